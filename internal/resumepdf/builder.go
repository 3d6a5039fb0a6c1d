package resumepdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// Content is the structured input for the generated resume PDF
type Content struct {
	FullName    string
	Email       string
	Phone       string
	Summary     string
	Experiences []Experience
	Education   string
	Skills      []string
}

// Experience is one job entry with its bullet points
type Experience struct {
	Title   string
	Company string
	Dates   string
	Bullets []string
}

const fontFamily = "Arial"

// Palette for the generated resume
var (
	primaryColor   = [3]int{22, 27, 34}   // dark charcoal
	accentColor    = [3]int{99, 102, 241} // indigo
	secondaryColor = [3]int{74, 85, 104}  // cool gray
)

// Build renders the tailored resume into PDF bytes
func Build(content Content) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(true, 15)
	doc.AddPage()

	writeHeader(doc, content)
	doc.Ln(12)

	writeSectionTitle(doc, "Professional Summary")
	writeTextBlock(doc, content.Summary)

	writeSectionTitle(doc, "Work Experience")
	for _, exp := range content.Experiences {
		writeExperience(doc, exp)
	}

	writeSectionTitle(doc, "Education")
	writeTextBlock(doc, content.Education)

	writeSectionTitle(doc, "Skills")
	writeSkills(doc, content.Skills)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render resume PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(doc *fpdf.Fpdf, content Content) {
	doc.SetFont(fontFamily, "B", 24)
	doc.SetTextColor(primaryColor[0], primaryColor[1], primaryColor[2])
	doc.CellFormat(0, 10, content.FullName, "", 1, "L", false, 0, "")

	doc.SetFont(fontFamily, "", 11)
	doc.SetTextColor(secondaryColor[0], secondaryColor[1], secondaryColor[2])
	contact := fmt.Sprintf("Email: %s | Phone: %s", content.Email, content.Phone)
	doc.CellFormat(0, 8, contact, "", 1, "L", false, 0, "")
}

func writeSectionTitle(doc *fpdf.Fpdf, title string) {
	doc.SetFont(fontFamily, "B", 14)
	doc.SetTextColor(accentColor[0], accentColor[1], accentColor[2])
	doc.CellFormat(0, 12, title, "", 1, "L", false, 0, "")

	doc.SetLineWidth(0.5)
	doc.SetDrawColor(accentColor[0], accentColor[1], accentColor[2])
	x, y := doc.GetX(), doc.GetY()
	doc.Line(x, y, x+180, y)
	doc.Ln(5)
}

func writeExperience(doc *fpdf.Fpdf, exp Experience) {
	doc.SetFont(fontFamily, "B", 11)
	doc.SetTextColor(primaryColor[0], primaryColor[1], primaryColor[2])
	doc.CellFormat(120, 6, exp.Title, "", 0, "L", false, 0, "")

	doc.SetFont(fontFamily, "", 11)
	doc.CellFormat(0, 6, exp.Dates, "", 1, "R", false, 0, "")

	doc.SetFont(fontFamily, "I", 11)
	doc.SetTextColor(secondaryColor[0], secondaryColor[1], secondaryColor[2])
	doc.CellFormat(0, 6, exp.Company, "", 1, "L", false, 0, "")
	doc.Ln(2)

	doc.SetFont(fontFamily, "", 10)
	doc.SetTextColor(primaryColor[0], primaryColor[1], primaryColor[2])
	for _, bullet := range exp.Bullets {
		doc.MultiCell(0, 5, "- "+bullet, "", "L", false)
	}
	doc.Ln(5)
}

func writeTextBlock(doc *fpdf.Fpdf, text string) {
	doc.SetFont(fontFamily, "", 10)
	doc.SetTextColor(primaryColor[0], primaryColor[1], primaryColor[2])
	doc.MultiCell(0, 5, text, "", "L", false)
	doc.Ln(5)
}

func writeSkills(doc *fpdf.Fpdf, skills []string) {
	doc.SetFont(fontFamily, "", 10)
	doc.SetTextColor(primaryColor[0], primaryColor[1], primaryColor[2])

	line := ""
	for i, skill := range skills {
		if i > 0 {
			line += " | "
		}
		line += skill
	}
	doc.MultiCell(0, 5, line, "", "L", false)
	doc.Ln(5)
}
