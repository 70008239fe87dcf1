package agents

import (
	"fmt"
	"regexp"
	"strings"
)

// Prompt builders for each persona. The wording is deliberate: the
// investor parser in this package depends on the output format the
// investor prompt demands.

// ClarifyPrompt asks for 3-5 clarifying questions as a numbered list.
func ClarifyPrompt(title, description string) string {
	return fmt.Sprintf(`You are a practical startup mentor. A founder provided this idea:
Title: %s
Description: %s

Generate exactly 3-5 clarifying questions to better understand this idea.
- Output exactly as a numbered list:
  1. <question>
  2. <question>
  ...
- Focus on market, target segment, feasibility, differentiation, and execution.
- Do not add extra text.`, title, description)
}

// TurnPrompt builds a debate-turn prompt for the Optimist or Critic.
// lastStatement is empty on the opening turn.
func TurnPrompt(persona Persona, idea, lastStatement string) string {
	if lastStatement == "" {
		return fmt.Sprintf("You are a startup %s. Analyze the idea: '%s' in 2-3 concise bullet points. Be specific and actionable.", persona, idea)
	}
	return fmt.Sprintf("You are a startup %s. The idea: '%s'. The last statement was: '%s'. Respond directly in 2-3 clear points.", persona, idea, lastStatement)
}

// SummaryPrompt asks the analyst persona to close out the debate.
func SummaryPrompt(idea, transcript string) string {
	return fmt.Sprintf(`You are an expert Business Analyst. Given the following discussion transcript for '%s', write:

- A short actionable paragraph (3-4 sentences)
- Then 3 key actionable bullet points

Transcript:
%s`, idea, transcript)
}

// MarketQuery is the search query sent to the market data API for an idea.
func MarketQuery(idea string) string {
	return "Recent market trends, competitors, pricing, funding signals for: " + idea
}

// MarketAnalystPrompt grounds the market persona in retrieved snippets.
func MarketAnalystPrompt(idea, marketData string) string {
	return fmt.Sprintf(`You are a Market Analyst. Use the following retrieved market snippets to produce an evidence-backed summary.

Startup Idea:
%s

Recent Market Data:
%s

Task:
- Provide a short evidence-based summary (3-5 lines).
- Highlight competitor signals, funding/traction notes, market growth or saturation, and GTM/pricing cues.
- Keep output factual and concise.`, idea, marketData)
}

// InvestorPrompt demands the strict line format ParseScorecard expects.
func InvestorPrompt(idea, marketInsight string) string {
	context := idea
	if marketInsight != "" {
		context += "\n\nMarket Analyst insight:\n" + marketInsight
	}
	return fmt.Sprintf(`You are an experienced early-stage investor. Evaluate the following startup idea and provide:

1) Five sub-scores on a 0-10 scale (integers or one decimal) with a one-line justification each:
   - Market Potential
   - Innovation
   - Scalability
   - Team Feasibility
   - Risk (10 = very low risk, 0 = very high risk)

2) Compute a weighted overall score (0-100) using weights:
   Market Potential 30%%, Innovation 25%%, Scalability 20%%, Team Feasibility 15%%, Risk 10%%

3) Provide a short verdict (choose one: "Strong Buy", "Consider with Caution", "Not Investable Yet")

4) Give 3 concise next-step recommendations for the founder.

Startup Idea:
%s

Format strictly as:
Market Potential: <score> — <justification>
Innovation: <score> — <justification>
Scalability: <score> — <justification>
Team Feasibility: <score> — <justification>
Risk: <score> — <justification>
Weighted Score (0-100): <score>
Verdict: <verdict>
Recommendations:
1. <rec1>
2. <rec2>
3. <rec3>`, context)
}

var numberedLineRx = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)

// ParseNumberedList extracts the items of a numbered list from raw LLM
// output. When no numbered lines are found the trimmed raw text is
// returned as a single item.
func ParseNumberedList(raw string) []string {
	var items []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if m := numberedLineRx.FindStringSubmatch(line); m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	if len(items) == 0 {
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}
	return items
}
