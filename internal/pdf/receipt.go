package pdf

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Generator: удобно мокать в тестах хендлеров.
type Generator interface {
	Receipt(w io.Writer, data ReceiptData) error
}

type ReceiptData struct {
	Number        string
	CustomerName  string
	CustomerEmail string
	CourseTitle   string
	Amount        string
	Currency      string
	PaidAt        time.Time
	PaymentRef    string
}

// ReceiptGenerator. FontPath: TTF с диакритикой (DejaVuSans и т.п.).
// Без шрифта печатаем Helvetica, чешские символы вне cp1252 теряются.
type ReceiptGenerator struct {
	FontPath string
	Seller   string
	fontName string
}

func NewReceiptGenerator(fontPath, seller string) *ReceiptGenerator {
	if seller == "" {
		seller = "Fyzio Akademie"
	}
	return &ReceiptGenerator{FontPath: fontPath, Seller: seller, fontName: "DejaVu"}
}

func (g *ReceiptGenerator) Receipt(w io.Writer, data ReceiptData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Potvrzení o platbě "+data.Number, true)
	pdf.SetAuthor(g.Seller, true)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	font, tr := g.setupFont(pdf)
	pdf.AddPage()

	pdf.SetFont(font, "B", 18)
	pdf.CellFormat(0, 10, tr("POTVRZENÍ O PLATBĚ"), "", 1, "C", false, 0, "")
	pdf.SetFont(font, "", 12)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("č. %s  ze dne  %s", data.Number, data.PaidAt.Format("02.01.2006"))), "", 1, "C", false, 0, "")
	hr(pdf)
	pdf.Ln(3)

	sectionTitle(pdf, font, tr("Prodávající"))
	kvLine(pdf, font, tr("Název"), tr(g.Seller))
	pdf.Ln(2)

	sectionTitle(pdf, font, tr("Zákazník"))
	if data.CustomerName != "" {
		kvLine(pdf, font, tr("Jméno"), tr(data.CustomerName))
	}
	kvLine(pdf, font, "E-mail", data.CustomerEmail)
	pdf.Ln(2)
	hr(pdf)

	sectionTitle(pdf, font, tr("Předmět platby"))
	kvLine(pdf, font, "Kurz", tr(data.CourseTitle))
	kvLine(pdf, font, tr("Částka"), fmt.Sprintf("%s %s", data.Amount, data.Currency))
	if data.PaymentRef != "" {
		kvLine(pdf, font, "Platba", data.PaymentRef)
	}
	pdf.Ln(4)

	pdf.SetFont(font, "", 10)
	pdf.MultiCell(0, 5, tr("Platba byla přijata prostřednictvím platební brány Stripe. "+
		"Přístup ke kurzu je aktivní v uživatelském profilu."), "", "L", false)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(font, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("%d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	return nil
}

func (g *ReceiptGenerator) setupFont(pdf *gofpdf.Fpdf) (string, func(string) string) {
	if g.FontPath != "" {
		if _, err := os.Stat(g.FontPath); err == nil {
			pdf.AddUTF8Font(g.fontName, "", g.FontPath)
			pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
			return g.fontName, func(s string) string { return s }
		}
	}
	return "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
}

func sectionTitle(pdf *gofpdf.Fpdf, font, s string) {
	pdf.SetFont(font, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
}

func kvLine(pdf *gofpdf.Fpdf, font, key, val string) {
	pdf.SetFont(font, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(font, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}
