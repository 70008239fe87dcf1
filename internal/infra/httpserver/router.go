package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appdebate "github.com/ideacritic/ideacritic/internal/application/debate"
	appreports "github.com/ideacritic/ideacritic/internal/application/reports"
	"github.com/ideacritic/ideacritic/internal/domain/agents"
	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
	"github.com/ideacritic/ideacritic/internal/middleware"
)

type Router struct {
	debateSvc  *appdebate.Service
	reportsSvc *appreports.Service
}

func NewRouter(debateSvc *appdebate.Service, reportsSvc *appreports.Service, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{debateSvc: debateSvc, reportsSvc: reportsSvc}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Post("/clarify", r.wrap(r.handleClarify))
		rt.Post("/analyses", r.wrap(r.handleSubmit))
		rt.Get("/analyses", r.wrap(r.handleList))
		rt.Get("/analyses/latest", r.wrap(r.handleLatest))
		rt.Get("/analyses/{id}", r.wrap(r.handleGet))
		rt.Get("/analyses/{id}/events", r.wrap(r.handleEvents))
		rt.Post("/analyses/{id}/report", r.wrap(r.handleReport))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// badRequestError marks handler errors caused by invalid client input.
type badRequestError struct{ err error }

func (e badRequestError) Error() string { return e.err.Error() }

func badRequest(err error) error { return badRequestError{err: err} }

// forbiddenError marks requests whose API key belongs to another tenant.
type forbiddenError struct{ err error }

func (e forbiddenError) Error() string { return e.err.Error() }

func forbidden(err error) error { return forbiddenError{err: err} }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var br badRequestError
			if errors.As(err, &br) {
				http.Error(w, br.Error(), http.StatusBadRequest)
				return
			}
			var fb forbiddenError
			if errors.As(err, &fb) {
				http.Error(w, fb.Error(), http.StatusForbidden)
				return
			}
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, agents.ErrQuotaExceeded) {
				http.Error(w, "llm quota exceeded", http.StatusTooManyRequests)
				return
			}
			if errors.Is(err, appreports.ErrNotReady) {
				http.Error(w, "analysis is not complete", http.StatusConflict)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func tenantFrom(req *http.Request) (string, error) {
	tenant := chi.URLParam(req, "tenant")
	if err := middleware.ValidateTenantID(tenant); err != nil {
		return "", badRequest(err)
	}
	// The auth middleware binds the key's tenant into the context. A key
	// must not reach another tenant's path.
	if authed := middleware.GetTenantFromContext(req.Context()); authed != "" && authed != tenant {
		return "", forbidden(fmt.Errorf("api key is not valid for tenant %q", tenant))
	}
	return tenant, nil
}

// POST /v1/{tenant}/clarify
// Body: {"title": "...", "description": "..."}
func (r *Router) handleClarify(w http.ResponseWriter, req *http.Request) error {
	if _, err := tenantFrom(req); err != nil {
		return err
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(err)
	}
	body.Title = middleware.SanitizeString(body.Title)
	body.Description = middleware.SanitizeString(body.Description)
	if err := middleware.ValidateIdeaTitle(body.Title); err != nil {
		return badRequest(err)
	}
	if err := middleware.ValidateIdeaDescription(body.Description); err != nil {
		return badRequest(err)
	}

	questions, err := r.debateSvc.ClarifyingQuestions(req.Context(), body.Title, body.Description)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{"questions": questions})
}

// POST /v1/{tenant}/analyses
// Body: {"title": "...", "description": "...", "clarifying": [{"question":"...","answer":"..."}], "rounds": 3}
func (r *Router) handleSubmit(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}

	var body struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Clarifying  []struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		} `json:"clarifying"`
		Rounds int `json:"rounds"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(err)
	}
	body.Title = middleware.SanitizeString(body.Title)
	body.Description = middleware.SanitizeString(body.Description)
	if err := middleware.ValidateIdeaTitle(body.Title); err != nil {
		return badRequest(err)
	}
	if err := middleware.ValidateIdeaDescription(body.Description); err != nil {
		return badRequest(err)
	}

	clarifying := make([]domain.QA, 0, len(body.Clarifying))
	for _, qa := range body.Clarifying {
		answer := middleware.SanitizeString(qa.Answer)
		if err := middleware.ValidateAnswer(answer); err != nil {
			return badRequest(err)
		}
		clarifying = append(clarifying, domain.QA{
			Question: middleware.SanitizeString(qa.Question),
			Answer:   answer,
		})
	}

	rounds := r.debateSvc.ClampRounds(body.Rounds)
	a, err := r.debateSvc.Start(req.Context(), appdebate.StartCommand{
		TenantID:    tenant,
		Title:       body.Title,
		Description: body.Description,
		Clarifying:  clarifying,
		Rounds:      rounds,
	})
	if err != nil {
		return err
	}

	middleware.IncrementAnalyses()
	middleware.IncrementAnalysesRunning()
	go func() {
		defer middleware.DecrementAnalysesRunning()
		if err := r.debateSvc.RunUntilDone(a, rounds); err != nil {
			middleware.IncrementAnalysesFailed()
		}
	}()

	resp := map[string]any{
		"id":       a.ID,
		"status":   "queued",
		"tenant":   tenant,
		"rounds":   rounds,
		"message":  "analysis started in background",
		"queuedAt": time.Now(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// GET /v1/{tenant}/analyses?page=&page_size=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	size = middleware.ValidateLimit(size)

	list, err := r.debateSvc.Paginate(req.Context(), tenant, page, size)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)

	list, err := r.debateSvc.Latest(req.Context(), tenant, limit)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/{tenant}/analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return badRequest(err)
	}

	a, err := r.debateSvc.Get(req.Context(), tenant, domain.AnalysisID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(a)
}

// GET /v1/{tenant}/analyses/{id}/events
// Streams debate turns as server-sent events while the pipeline runs.
func (r *Router) handleEvents(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return badRequest(err)
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("streaming not supported")
	}

	// Subscribe before reading the row. The pipeline saves the final
	// status before publishing done and closing the feed, so a row still
	// marked running here guarantees the done event reaches this channel.
	ch, cancel := r.debateSvc.Events.Subscribe(domain.AnalysisID(id))
	defer cancel()

	// The row must exist (and belong to the tenant) before we stream.
	a, err := r.debateSvc.Get(req.Context(), tenant, domain.AnalysisID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Finished analyses get a single done event instead of a live feed.
	if a.Status != domain.StatusRunning {
		writeEvent(w, appdebate.TurnEvent{
			AnalysisID: id,
			Type:       appdebate.EventDone,
			Status:     string(a.Status),
		})
		flusher.Flush()
		return nil
	}

	for {
		select {
		case <-req.Context().Done():
			return nil
		case ev, open := <-ch:
			if !open {
				return nil
			}
			writeEvent(w, ev)
			flusher.Flush()
			if ev.Type == appdebate.EventDone {
				return nil
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, ev appdebate.TurnEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// POST /v1/{tenant}/analyses/{id}/report
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return badRequest(err)
	}

	url, err := r.reportsSvc.Generate(req.Context(), tenant, domain.AnalysisID(id))
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(map[string]any{
		"id":         id,
		"report_url": url,
	})
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant, err := tenantFrom(req)
	if err != nil {
		return err
	}
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	days = middleware.ValidateDays(days)

	summary, err := r.debateSvc.SummaryStats(req.Context(), tenant, days)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}
