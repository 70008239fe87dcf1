package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTurnPromptOpeningVsReply(t *testing.T) {
	opening := TurnPrompt(PersonaOptimist, "idea", "")
	assert.Contains(t, opening, "startup Optimist")
	assert.NotContains(t, opening, "last statement")

	reply := TurnPrompt(PersonaCritic, "idea", "it will work")
	assert.Contains(t, reply, "startup Critic")
	assert.Contains(t, reply, "The last statement was: 'it will work'")
}

func TestInvestorPromptIncludesMarketInsight(t *testing.T) {
	p := InvestorPrompt("idea", "competitors are funded")
	assert.Contains(t, p, "Market Analyst insight:\ncompetitors are funded")
	assert.Contains(t, p, "Market Potential 30%")
	assert.Contains(t, p, `"Not Investable Yet"`)

	bare := InvestorPrompt("idea", "")
	assert.NotContains(t, bare, "Market Analyst insight")
}

func TestMarketQuery(t *testing.T) {
	assert.Equal(t,
		"Recent market trends, competitors, pricing, funding signals for: EcoSnap",
		MarketQuery("EcoSnap"))
}

func TestParseNumberedList(t *testing.T) {
	raw := `Here are the questions:
1. Who is the target customer?
2) What is the pricing model?
3. How will you reach them?`
	got := ParseNumberedList(raw)
	assert.Equal(t, []string{
		"Who is the target customer?",
		"What is the pricing model?",
		"How will you reach them?",
	}, got)
}

func TestParseNumberedListFallsBackToRaw(t *testing.T) {
	got := ParseNumberedList("no numbering at all")
	assert.Equal(t, []string{"no numbering at all"}, got)
	assert.Nil(t, ParseNumberedList("   \n  "))
}
