package agents

// Persona enum: the fixed cast of evaluators
type Persona string

const (
	PersonaOptimist      Persona = "Optimist"
	PersonaCritic        Persona = "Critic"
	PersonaAnalyst       Persona = "Business Analyst"
	PersonaMarketAnalyst Persona = "Market Analyst"
	PersonaInvestor      Persona = "Investor"
)

// DebateOrder is the per-round speaking order.
var DebateOrder = []Persona{PersonaOptimist, PersonaCritic}
