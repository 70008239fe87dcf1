package debate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ideacritic/ideacritic/internal/application"
	"github.com/ideacritic/ideacritic/internal/domain/agents"
	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
	"github.com/ideacritic/ideacritic/internal/domain/market"
)

// Service implements the analysis use-cases. Safe for concurrent use;
// each submission runs its pipeline on its own goroutine.
type Service struct {
	Repo   domain.Repository
	LLM    agents.Generator
	Market market.Searcher
	Clock  application.Clock
	Events *Broker
	Log    *zap.Logger

	DefaultRounds    int
	MaxRounds        int
	MarketMaxResults int
}

// StartCommand is the submission payload.
type StartCommand struct {
	TenantID    string
	Title       string
	Description string
	Clarifying  []domain.QA
	Rounds      int
}

// ClampRounds applies the 1..MaxRounds window with the configured default.
func (s *Service) ClampRounds(rounds int) int {
	def, max := s.DefaultRounds, s.MaxRounds
	if def <= 0 {
		def = 3
	}
	if max <= 0 {
		max = 5
	}
	if rounds <= 0 {
		return def
	}
	if rounds > max {
		return max
	}
	return rounds
}

// ClarifyingQuestions generates 3-5 follow-up questions for an idea.
func (s *Service) ClarifyingQuestions(ctx context.Context, title, description string) ([]string, error) {
	raw, err := s.LLM.Generate(ctx, agents.ClarifyPrompt(title, description))
	if err != nil {
		return nil, err
	}
	return agents.ParseNumberedList(raw), nil
}

// Start creates the initial running record so there is always an ID to
// reference, before any model call is made.
func (s *Service) Start(ctx context.Context, cmd StartCommand) (*domain.Analysis, error) {
	a := &domain.Analysis{
		ID:              domain.AnalysisID(uuid.New().String()),
		TenantID:        cmd.TenantID,
		IdeaTitle:       cmd.Title,
		IdeaDescription: cmd.Description,
		Clarifying:      cmd.Clarifying,
		Status:          domain.StatusRunning,
		CreatedAt:       s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RunUntilDone executes the pipeline with context.Background() so it
// survives the HTTP request that queued it. The returned error has
// already been recorded on the analysis row; callers only need it for
// accounting.
func (s *Service) RunUntilDone(a *domain.Analysis, rounds int) error {
	err := s.Run(context.Background(), a, rounds)
	if err != nil {
		s.logger().Error("analysis pipeline failed",
			zap.String("analysis_id", string(a.ID)),
			zap.String("tenant", a.TenantID),
			zap.Error(err))
	}
	return err
}

// Run drives the full pipeline: debate rounds, analyst summary, market
// analysis, investor verdict, then the final upsert.
func (s *Service) Run(ctx context.Context, a *domain.Analysis, rounds int) error {
	started := s.Clock.Now()
	rounds = s.ClampRounds(rounds)
	idea := a.IdeaContext()

	last := ""
	for r := 1; r <= rounds; r++ {
		for _, persona := range agents.DebateOrder {
			text, err := s.turn(ctx, a, r, persona, agents.TurnPrompt(persona, idea, last))
			if err != nil {
				return s.fail(a, err)
			}
			a.Rounds = append(a.Rounds, domain.Turn{Round: r, Role: string(persona), Text: text})
			last = text
		}
	}

	summary, err := s.turn(ctx, a, 0, agents.PersonaAnalyst, agents.SummaryPrompt(idea, a.Transcript()))
	if err != nil {
		return s.fail(a, err)
	}
	a.FinalSummary = summary

	// Market data failures degrade to an error note; the debate already
	// carries value without grounding data.
	marketData := s.fetchMarketData(ctx, idea)

	insight, err := s.turn(ctx, a, 0, agents.PersonaMarketAnalyst, agents.MarketAnalystPrompt(idea, marketData))
	if err != nil {
		return s.fail(a, err)
	}
	a.MarketInsight = insight

	investorOut, err := s.turn(ctx, a, 0, agents.PersonaInvestor, agents.InvestorPrompt(idea, insight))
	if err != nil {
		return s.fail(a, err)
	}
	a.InvestorOutput = investorOut

	card, perr := agents.ParseScorecard(investorOut)
	if perr != nil {
		s.logger().Warn("investor output only partially parsed",
			zap.String("analysis_id", string(a.ID)),
			zap.Error(perr))
	}
	a.Scorecard = card
	a.Status = domain.StatusSuccess
	a.DurationMS = s.Clock.Now().Sub(started).Milliseconds()

	if err := s.Repo.Save(ctx, a); err != nil {
		return s.fail(a, err)
	}

	s.publish(TurnEvent{AnalysisID: string(a.ID), Type: EventDone, Status: string(domain.StatusSuccess)})
	s.closeFeed(a.ID)
	return nil
}

// Get fetches one analysis by id.
func (s *Service) Get(ctx context.Context, tenant string, id domain.AnalysisID) (*domain.Analysis, error) {
	return s.Repo.Get(ctx, tenant, id)
}

// Latest fetches the most recent N analyses.
func (s *Service) Latest(ctx context.Context, tenant string, limit int) ([]*domain.Analysis, error) {
	return s.Repo.Latest(ctx, tenant, limit)
}

// Paginate fetches a page of analyses.
func (s *Service) Paginate(ctx context.Context, tenant string, page, pageSize int) (domain.PaginatedResult, error) {
	return s.Repo.Paginate(ctx, tenant, page, pageSize)
}

// SummaryStats rolls up analysis outcomes over the last N days.
func (s *Service) SummaryStats(ctx context.Context, tenant string, sinceDays int) (domain.SummaryStats, error) {
	return s.Repo.Summary(ctx, tenant, sinceDays)
}

// turn runs one persona statement, streaming chunks to the live feed.
func (s *Service) turn(ctx context.Context, a *domain.Analysis, round int, persona agents.Persona, prompt string) (string, error) {
	text, err := s.LLM.Stream(ctx, prompt, func(chunk string) {
		s.publish(TurnEvent{
			AnalysisID: string(a.ID),
			Type:       EventChunk,
			Round:      round,
			Role:       string(persona),
			Text:       chunk,
		})
	})
	if err != nil {
		return "", err
	}
	s.publish(TurnEvent{
		AnalysisID: string(a.ID),
		Type:       EventTurnDone,
		Round:      round,
		Role:       string(persona),
		Text:       text,
	})
	return text, nil
}

func (s *Service) fetchMarketData(ctx context.Context, idea string) string {
	if s.Market == nil {
		return "Market data unavailable: no search backend configured."
	}
	maxResults := s.MarketMaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	snippets, err := s.Market.Search(ctx, agents.MarketQuery(idea), maxResults)
	if err != nil {
		s.logger().Warn("market data fetch failed", zap.Error(err))
		return "Error fetching market data: " + err.Error()
	}
	return market.Join(snippets)
}

func (s *Service) fail(a *domain.Analysis, cause error) error {
	// Status updates survive the (possibly cancelled) pipeline context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Repo.UpdateStatus(ctx, a.TenantID, a.ID, domain.StatusFailed, cause.Error()); err != nil {
		s.logger().Error("failed to record analysis failure",
			zap.String("analysis_id", string(a.ID)),
			zap.Error(err))
	}
	s.publish(TurnEvent{AnalysisID: string(a.ID), Type: EventDone, Status: string(domain.StatusFailed)})
	s.closeFeed(a.ID)
	return cause
}

func (s *Service) publish(ev TurnEvent) {
	if s.Events != nil {
		s.Events.Publish(ev)
	}
}

func (s *Service) closeFeed(id domain.AnalysisID) {
	if s.Events != nil {
		s.Events.Close(id)
	}
}

func (s *Service) logger() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}
