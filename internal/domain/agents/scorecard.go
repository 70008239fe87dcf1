package agents

import (
	"bufio"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Verdict values the investor persona is allowed to emit.
const (
	VerdictStrongBuy   = "Strong Buy"
	VerdictWithCaution = "Consider with Caution"
	VerdictNotYet      = "Not Investable Yet"
)

// Sub-score weights for the overall 0-100 score.
const (
	weightMarketPotential = 0.30
	weightInnovation      = 0.25
	weightScalability     = 0.20
	weightTeamFeasibility = 0.15
	weightRisk            = 0.10
)

// FactorScore is a single 0-10 sub-score with its one-line justification.
type FactorScore struct {
	Score         float64 `json:"score"`
	Justification string  `json:"justification,omitempty"`
}

// Scorecard is the structured investor verdict. Risk is inverted:
// 10 means very low risk, 0 means very high risk.
type Scorecard struct {
	MarketPotential FactorScore `json:"market_potential"`
	Innovation      FactorScore `json:"innovation"`
	Scalability     FactorScore `json:"scalability"`
	TeamFeasibility FactorScore `json:"team_feasibility"`
	Risk            FactorScore `json:"risk"`
	WeightedScore   float64     `json:"weighted_score"`
	Verdict         string      `json:"verdict"`
	Recommendations []string    `json:"recommendations,omitempty"`
}

// weightedScore recomputes the overall score (0-100) from the sub-scores.
// The model's own printed total is never trusted.
func (s *Scorecard) weightedScore() float64 {
	raw := weightMarketPotential*s.MarketPotential.Score +
		weightInnovation*s.Innovation.Score +
		weightScalability*s.Scalability.Score +
		weightTeamFeasibility*s.TeamFeasibility.Score +
		weightRisk*s.Risk.Score
	score := math.Round(raw*100) / 10 // 0-10 weighted avg -> 0-100, one decimal
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

var (
	scoreLineRx = regexp.MustCompile(`^([A-Za-z ]+):\s*([0-9]+(?:\.[0-9]+)?)\s*(?:[—–-]+\s*(.*))?$`)
	recLineRx   = regexp.MustCompile(`^\d+[.)]\s*(.+)$`)
)

// ParseScorecard extracts the structured scorecard from the investor
// persona's raw text. The prompt demands one "<Factor>: <score> — <line>"
// row per factor, a verdict line, and numbered recommendations. Missing
// rows score zero; the returned error lists what could not be parsed while
// the scorecard itself is always usable.
func ParseScorecard(raw string) (Scorecard, error) {
	var card Scorecard
	seen := map[string]bool{}
	inRecs := false

	sc := bufio.NewScanner(strings.NewReader(raw))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.Trim(line, "*_ \t")
		if line == "" {
			continue
		}

		if inRecs {
			if m := recLineRx.FindStringSubmatch(line); m != nil {
				card.Recommendations = append(card.Recommendations, strings.TrimSpace(m[1]))
				continue
			}
			inRecs = false
		}

		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "verdict:"):
			card.Verdict = normalizeVerdict(strings.TrimSpace(line[len("Verdict:"):]))
			seen["verdict"] = true
			continue
		case strings.HasPrefix(lower, "recommendations"):
			inRecs = true
			continue
		case strings.HasPrefix(lower, "weighted score"):
			// recomputed below; the model's arithmetic is ignored
			continue
		}

		m := scoreLineRx.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		score, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		fs := FactorScore{Score: clampScore(score), Justification: strings.TrimSpace(m[3])}

		switch strings.ToLower(strings.TrimSpace(m[1])) {
		case "market potential":
			card.MarketPotential = fs
			seen["market potential"] = true
		case "innovation":
			card.Innovation = fs
			seen["innovation"] = true
		case "scalability":
			card.Scalability = fs
			seen["scalability"] = true
		case "team feasibility":
			card.TeamFeasibility = fs
			seen["team feasibility"] = true
		case "risk":
			card.Risk = fs
			seen["risk"] = true
		}
	}

	card.WeightedScore = card.weightedScore()
	if card.Verdict == "" {
		card.Verdict = VerdictNotYet
	}

	var missing []string
	for _, want := range []string{"market potential", "innovation", "scalability", "team feasibility", "risk", "verdict"} {
		if !seen[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return card, fmt.Errorf("scorecard missing fields: %s", strings.Join(missing, ", "))
	}
	return card, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func normalizeVerdict(v string) string {
	v = strings.Trim(v, `"'* `)
	switch strings.ToLower(v) {
	case strings.ToLower(VerdictStrongBuy):
		return VerdictStrongBuy
	case strings.ToLower(VerdictWithCaution):
		return VerdictWithCaution
	case strings.ToLower(VerdictNotYet):
		return VerdictNotYet
	}
	return VerdictNotYet
}
