package batch

import (
	"context"
	"sync"
	"time"

	"github.com/R3E-Network/batchpay/internal/invoice"
	"github.com/R3E-Network/batchpay/internal/metrics"
	"github.com/R3E-Network/batchpay/pkg/logger"
)

// Refresher keeps the suggestion list current against the invoice store.
// Suggestions depend only on the invoice set, not on the user's selection,
// so they are recomputed on a timer (and on demand) rather than per request.
type Refresher struct {
	store    invoice.Store
	interval time.Duration
	log      *logger.Logger

	mu          sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	suggestions []Suggestion
}

// NewRefresher creates a suggestion refresher over the store.
func NewRefresher(store invoice.Store, interval time.Duration, log *logger.Logger) *Refresher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("batch-suggest")
	}
	return &Refresher{
		store:    store,
		interval: interval,
		log:      log,
	}
}

// Start begins periodic refreshing. The first refresh runs immediately.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.running = true

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.refresh(runCtx)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				r.refresh(runCtx)
			}
		}
	}()

	r.log.Info("suggestion refresher started")
	return nil
}

// Stop halts refreshing and waits for the worker to exit.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel := r.cancel
	r.running = false
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.wg.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// Suggestions returns the last computed suggestion list.
func (r *Refresher) Suggestions() []Suggestion {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Suggestion, len(r.suggestions))
	copy(out, r.suggestions)
	return out
}

// RefreshNow recomputes suggestions immediately, outside the timer.
func (r *Refresher) RefreshNow(ctx context.Context) error {
	return r.refresh(ctx)
}

func (r *Refresher) refresh(ctx context.Context) error {
	invoices, err := r.store.ListInvoices(ctx)
	if err != nil {
		r.log.WithError(err).Warn("suggestion refresh failed to list invoices")
		return err
	}

	suggestions := Suggest(invoices)

	r.mu.Lock()
	r.suggestions = suggestions
	r.mu.Unlock()

	metrics.SuggestionRefreshObserved()
	r.log.WithField("count", len(suggestions)).Debug("suggestions refreshed")
	return nil
}
