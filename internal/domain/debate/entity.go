package debate

import (
	"fmt"
	"strings"
	"time"

	"github.com/ideacritic/ideacritic/internal/domain/agents"
)

// ID type for Analysis
type AnalysisID string

// Status enum
type Status string

const (
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// QA is one clarifying question with the founder's answer.
type QA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Turn is a single persona statement within a debate round.
type Turn struct {
	Round int    `json:"round"`
	Role  string `json:"role"`
	Text  string `json:"text"`
}

// Aggregate Root: Analysis. One record per submitted idea.
type Analysis struct {
	ID              AnalysisID       `json:"id"`
	TenantID        string           `json:"tenant_id"`
	IdeaTitle       string           `json:"idea_title"`
	IdeaDescription string           `json:"idea_description"`
	Clarifying      []QA             `json:"clarifying,omitempty"`
	Rounds          []Turn           `json:"rounds,omitempty"`
	FinalSummary    string           `json:"final_summary,omitempty"`
	MarketInsight   string           `json:"market_insight,omitempty"`
	InvestorOutput  string           `json:"investor_output,omitempty"`
	Scorecard       agents.Scorecard `json:"scorecard"`
	ReportURL       string           `json:"report_url,omitempty"`
	Status          Status           `json:"status"`
	Error           string           `json:"error,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	DurationMS      int64            `json:"duration_ms"`
}

// IdeaContext builds the idea text handed to every persona: the
// description followed by the clarifying Q&A block.
func (a *Analysis) IdeaContext() string {
	var b strings.Builder
	b.WriteString(a.IdeaDescription)
	if len(a.Clarifying) > 0 {
		b.WriteString("\n\n---Clarifying Details---\n")
		for _, qa := range a.Clarifying {
			answer := qa.Answer
			if strings.TrimSpace(answer) == "" {
				answer = "Not answered."
			}
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", qa.Question, answer)
		}
	}
	return b.String()
}

// Transcript renders the debate in its canonical line format, with the
// closing sections appended when present.
func (a *Analysis) Transcript() string {
	var b strings.Builder
	for _, t := range a.Rounds {
		fmt.Fprintf(&b, "\nRound %d - %s: %s", t.Round, t.Role, t.Text)
	}
	if a.FinalSummary != "" {
		fmt.Fprintf(&b, "\nFinal Summary: %s", a.FinalSummary)
	}
	if a.MarketInsight != "" {
		fmt.Fprintf(&b, "\nMarket Analyst: %s", a.MarketInsight)
	}
	if a.InvestorOutput != "" {
		fmt.Fprintf(&b, "\nInvestor Bot: %s", a.InvestorOutput)
	}
	return strings.TrimSpace(b.String())
}
