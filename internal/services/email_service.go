package services

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"fyzioakademie/internal/config"
)

var ErrMailerDisabled = errors.New("email delivery not configured")

type Mailer interface {
	SendRegistrationCode(ctx context.Context, email, fullName, code string) error
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

type emailMessage struct {
	Subject string
	HTML    string
	Text    string
}

func registrationCodeMessage(fullName, code string) emailMessage {
	greeting := "Dobrý den,"
	if fullName != "" {
		greeting = fmt.Sprintf("Dobrý den, %s,", html.EscapeString(fullName))
	}
	return emailMessage{
		Subject: "Ověřovací kód pro registraci",
		HTML: fmt.Sprintf(`
		<h2>%s</h2>
		<p>děkujeme za registraci ve Fyzio Akademii.</p>
		<p>Váš ověřovací kód: <strong style="font-size:22px;letter-spacing:4px">%s</strong></p>
		<p>Kód je platný 15 minut. Pokud jste se neregistrovali, tento e-mail ignorujte.</p>
	`, greeting, code),
		Text: fmt.Sprintf("%s\nváš ověřovací kód: %s\nKód je platný 15 minut.", greeting, code),
	}
}

func passwordResetCodeMessage(code string) emailMessage {
	return emailMessage{
		Subject: "Obnovení hesla",
		HTML: fmt.Sprintf(`
		<h3>Obnovení hesla</h3>
		<p>Obdrželi jsme žádost o změnu hesla k vašemu účtu.</p>
		<p>Kód pro obnovení: <strong style="font-size:22px;letter-spacing:4px">%s</strong></p>
		<p>Kód je platný 15 minut. Pokud jste o změnu nežádali, tento e-mail ignorujte.</p>
	`, code),
		Text: fmt.Sprintf("Kód pro obnovení hesla: %s\nKód je platný 15 minut.", code),
	}
}

// NewMailer: SendGrid, если есть API-ключ; иначе SMTP; иначе заглушка (код уйдёт в лог).
func NewMailer(cfg config.EmailConfig, log *zap.Logger) Mailer {
	switch {
	case cfg.SendGridAPIKey != "":
		log.Info("[email] using sendgrid")
		return NewSendGridMailer(cfg.SendGridAPIKey, "", cfg.FromEmail, cfg.FromName)
	case cfg.SMTPHost != "":
		log.Info("[email] using smtp", zap.String("host", cfg.SMTPHost), zap.Int("port", cfg.SMTPPort))
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.FromEmail, cfg.FromName)
	default:
		log.Warn("[email] no transport configured, codes will only be logged")
		return disabledMailer{}
	}
}

type disabledMailer struct{}

func (disabledMailer) SendRegistrationCode(context.Context, string, string, string) error {
	return ErrMailerDisabled
}

func (disabledMailer) SendPasswordResetCode(context.Context, string, string) error {
	return ErrMailerDisabled
}

type smtpMailer struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPMailer(host string, port int, user, password, fromEmail, fromName string) Mailer {
	return &smtpMailer{
		dialer:   gomail.NewDialer(host, port, user, password),
		from:     fromEmail,
		fromName: fromName,
	}
}

func (s *smtpMailer) send(to string, msg emailMessage) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *smtpMailer) SendRegistrationCode(_ context.Context, email, fullName, code string) error {
	return s.send(email, registrationCodeMessage(fullName, code))
}

func (s *smtpMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	return s.send(email, passwordResetCodeMessage(code))
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGridMailer: host пустой = api.sendgrid.com.
func NewSendGridMailer(apiKey, host, fromEmail, fromName string) Mailer {
	req := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
	req.Method = "POST"
	return &sendGridMailer{
		client: &sendgrid.Client{Request: req},
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *sendGridMailer) send(ctx context.Context, to string, msg emailMessage) error {
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", to), msg.Text, msg.HTML)
	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status=%d body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

func (s *sendGridMailer) SendRegistrationCode(ctx context.Context, email, fullName, code string) error {
	return s.send(ctx, email, registrationCodeMessage(fullName, code))
}

func (s *sendGridMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	return s.send(ctx, email, passwordResetCodeMessage(code))
}
