package debate

import (
	"sync"

	domain "github.com/ideacritic/ideacritic/internal/domain/debate"
)

// Event types published while an analysis runs.
const (
	EventChunk    = "chunk"     // partial persona output
	EventTurnDone = "turn_done" // one persona statement complete
	EventDone     = "done"      // pipeline finished (success or failure)
)

// TurnEvent is one item on the live feed for an analysis.
type TurnEvent struct {
	AnalysisID string `json:"analysis_id"`
	Type       string `json:"type"`
	Round      int    `json:"round,omitempty"`
	Role       string `json:"role,omitempty"`
	Text       string `json:"text,omitempty"`
	Status     string `json:"status,omitempty"`
}

// Broker fans TurnEvents out to subscribers of a given analysis.
// Publishing never blocks the pipeline: events to a full subscriber
// channel are dropped.
type Broker struct {
	mu   sync.Mutex
	subs map[domain.AnalysisID]map[chan TurnEvent]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[domain.AnalysisID]map[chan TurnEvent]struct{})}
}

// Subscribe registers a listener for one analysis. The returned cancel
// func must be called exactly once; the channel is closed either by
// cancel or by Close when the pipeline finishes.
func (b *Broker) Subscribe(id domain.AnalysisID) (<-chan TurnEvent, func()) {
	ch := make(chan TurnEvent, 64)

	b.mu.Lock()
	if b.subs[id] == nil {
		b.subs[id] = make(map[chan TurnEvent]struct{})
	}
	b.subs[id][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[id]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, id)
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to all current subscribers of its analysis.
func (b *Broker) Publish(ev TurnEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[domain.AnalysisID(ev.AnalysisID)] {
		select {
		case ch <- ev:
		default: // slow subscriber, drop
		}
	}
}

// Close tears down all subscriptions for an analysis.
func (b *Broker) Close(id domain.AnalysisID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[id] {
		close(ch)
	}
	delete(b.subs, id)
}
