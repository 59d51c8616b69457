package services

import (
	"fmt"
	"math"
	"time"

	"fyzioakademie/internal/models"
)

const (
	maxTips             = 3
	strugglingAfter     = 7 * 24 * time.Hour
	strugglingProgress  = 30.0
	inactiveDaysWarning = 7
	recentWindow        = 7 * 24 * time.Hour
	goodWeekMinutes     = 120
	shortWeekMinutes    = 30
	almostDoneProgress  = 70.0
)

type LearningStats struct {
	TotalCourses            int      `json:"total_courses"`
	CompletedCourses        int      `json:"completed_courses"`
	AverageProgress         float64  `json:"average_progress"`
	StrugglingCourses       []string `json:"struggling_courses"`
	DaysSinceLastActivity   *int     `json:"days_since_last_activity"`
	MinutesWatchedLast7Days int      `json:"minutes_watched_last_7_days"`
}

type Tip struct {
	ID      string `json:"id"`
	Type    string `json:"type"` // info | warning | success
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ComputeLearningStats: чистая функция от строк БД и текущего времени.
func ComputeLearningStats(enrollments []*models.CourseEnrollment, watch []*models.LessonWatchTime, now time.Time) LearningStats {
	st := LearningStats{TotalCourses: len(enrollments), StrugglingCourses: []string{}}

	var last time.Time
	var sum float64
	for _, e := range enrollments {
		sum += e.ProgressPercent
		if e.IsCompleted {
			st.CompletedCourses++
		} else if now.Sub(e.EnrolledAt) >= strugglingAfter && e.ProgressPercent < strugglingProgress {
			title := e.CourseTitle
			if title == "" {
				title = fmt.Sprintf("#%d", e.CourseID)
			}
			st.StrugglingCourses = append(st.StrugglingCourses, title)
		}
		if e.LastAccessedAt != nil && e.LastAccessedAt.After(last) {
			last = *e.LastAccessedAt
		}
	}
	if len(enrollments) > 0 {
		st.AverageProgress = math.Round(sum/float64(len(enrollments))*10) / 10
	}

	seconds := 0
	for _, w := range watch {
		if w.UpdatedAt.After(last) {
			last = w.UpdatedAt
		}
		if now.Sub(w.UpdatedAt) <= recentWindow {
			seconds += w.SecondsWatched
		}
	}
	st.MinutesWatchedLast7Days = seconds / 60

	if !last.IsZero() {
		days := int(now.Sub(last).Hours() / 24)
		if days < 0 {
			days = 0
		}
		st.DaysSinceLastActivity = &days
	}
	return st
}

// SelectTips: не больше трёх, по убыванию важности.
func SelectTips(st LearningStats) []Tip {
	tips := make([]Tip, 0, maxTips)
	add := func(t Tip) {
		if len(tips) < maxTips {
			tips = append(tips, t)
		}
	}

	if st.TotalCourses == 0 {
		add(Tip{ID: "start", Type: "info", Title: "Začněte svou cestu",
			Message: "Zatím nemáte žádný kurz. Prohlédněte si nabídku a vyberte si ten první."})
		add(consistencyTip())
		return tips
	}

	if d := st.DaysSinceLastActivity; d != nil && *d >= inactiveDaysWarning {
		add(Tip{ID: "comeback", Type: "warning", Title: "Chybíte nám",
			Message: fmt.Sprintf("Naposledy jste studovali před %d dny. Stačí 10 minut denně, abyste neztratili tempo.", *d)})
	}

	if len(st.StrugglingCourses) > 0 {
		add(Tip{ID: "struggling", Type: "warning", Title: "Kurz čeká na dokončení",
			Message: fmt.Sprintf("U kurzu „%s“ máte hotovo méně než 30 %%. Naplánujte si krátkou lekci ještě dnes.", st.StrugglingCourses[0])})
	}

	switch {
	case st.MinutesWatchedLast7Days >= goodWeekMinutes:
		add(Tip{ID: "streak", Type: "success", Title: "Skvělé tempo",
			Message: fmt.Sprintf("Za posledních 7 dní jste sledovali %d minut videí. Jen tak dál!", st.MinutesWatchedLast7Days)})
	case st.MinutesWatchedLast7Days > 0 && st.MinutesWatchedLast7Days < shortWeekMinutes:
		add(Tip{ID: "short_sessions", Type: "info", Title: "Malé kroky",
			Message: fmt.Sprintf("Tento týden jen %d minut. Zkuste si nastavit pravidelný čas na studium.", st.MinutesWatchedLast7Days)})
	}

	switch {
	case st.CompletedCourses == st.TotalCourses:
		add(Tip{ID: "all_done", Type: "success", Title: "Všechny kurzy dokončeny",
			Message: fmt.Sprintf("Gratulujeme! Máte dokončeno všech %d kurzů. Mrkněte na novinky v nabídce.", st.TotalCourses)})
	case st.AverageProgress >= almostDoneProgress:
		add(Tip{ID: "almost", Type: "info", Title: "Cíl na dohled",
			Message: fmt.Sprintf("Průměrný postup je %.0f %%. Dokončete rozpracované kurzy a získejte certifikát.", st.AverageProgress)})
	}

	if len(tips) == 0 {
		add(consistencyTip())
	}
	return tips
}

func consistencyTip() Tip {
	return Tip{ID: "consistency", Type: "info", Title: "Pravidelnost je klíč",
		Message: "Krátké každodenní studium přináší lepší výsledky než dlouhé jednorázové bloky."}
}
