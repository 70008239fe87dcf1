package report

import (
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/ideacritic/ideacritic/internal/domain/agents"
	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
)

// PDF renders investor reports with go-pdf/fpdf.
type PDF struct{}

func NewPDF() *PDF { return &PDF{} }

func (p *PDF) Render(a *domain.Analysis, path string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.MultiCell(0, 9, "Investment Evaluation: "+a.IdeaTitle, "", "L", false)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 5, fmt.Sprintf("Analysis %s / generated %s",
		a.ID, time.Now().UTC().Format("2006-01-02 15:04 UTC")), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	section(pdf, "Idea", a.IdeaDescription)
	if len(a.Clarifying) > 0 {
		var qa string
		for _, c := range a.Clarifying {
			answer := c.Answer
			if answer == "" {
				answer = "Not answered."
			}
			qa += "Q: " + c.Question + "\nA: " + answer + "\n"
		}
		section(pdf, "Clarifying Details", qa)
	}

	if len(a.Rounds) > 0 {
		heading(pdf, "Debate Transcript")
		pdf.SetFont("Helvetica", "", 10)
		for _, turn := range a.Rounds {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(0, 5, fmt.Sprintf("Round %d - %s", turn.Round, turn.Role), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(0, 5, turn.Text, "", "L", false)
			pdf.Ln(2)
		}
	}

	section(pdf, "Final Summary", a.FinalSummary)
	section(pdf, "Market Insight", a.MarketInsight)

	heading(pdf, "Investor Scorecard")
	scorecardTable(pdf, a.Scorecard)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 7, fmt.Sprintf("Weighted Score: %.1f / 100", a.Scorecard.WeightedScore), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Verdict: "+a.Scorecard.Verdict, "", 1, "L", false, 0, "")

	if len(a.Scorecard.Recommendations) > 0 {
		heading(pdf, "Recommendations")
		pdf.SetFont("Helvetica", "", 10)
		for i, rec := range a.Scorecard.Recommendations {
			pdf.MultiCell(0, 5, fmt.Sprintf("%d. %s", i+1, rec), "", "L", false)
		}
	}

	return pdf.OutputFileAndClose(path)
}

func heading(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
}

func section(pdf *fpdf.Fpdf, title, body string) {
	if body == "" {
		return
	}
	heading(pdf, title)
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, 5, body, "", "L", false)
}

func scorecardTable(pdf *fpdf.Fpdf, card agents.Scorecard) {
	rows := []struct {
		name   string
		factor agents.FactorScore
	}{
		{"Market Potential", card.MarketPotential},
		{"Innovation", card.Innovation},
		{"Scalability", card.Scalability},
		{"Team Feasibility", card.TeamFeasibility},
		{"Risk", card.Risk},
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, 7, "Factor", "1", 0, "L", false, 0, "")
	pdf.CellFormat(18, 7, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(0, 7, "Justification", "1", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.CellFormat(45, 7, r.name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(18, 7, fmt.Sprintf("%.1f", r.factor.Score), "1", 0, "C", false, 0, "")
		pdf.CellFormat(0, 7, r.factor.Justification, "1", 1, "L", false, 0, "")
	}
}
