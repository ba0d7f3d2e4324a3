// Package engine implements the change-detection core: classifying a
// fresh catalog fetch against the persisted snapshot, batching the
// resulting events into bounded alert messages, and driving one
// fetch -> classify -> notify -> persist cycle.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cardwatch/cardwatch/internal/catalog"
	"github.com/cardwatch/cardwatch/internal/metrics"
	"github.com/cardwatch/cardwatch/internal/notify"
	"github.com/cardwatch/cardwatch/internal/snapshot"
	domain "github.com/cardwatch/cardwatch/pkg/types"
)

// ErrNoProducts is returned when the catalog fetch yields zero records.
// An empty fetch is treated as a transient retrieval failure, never as
// "the catalog is empty", so the cycle aborts without touching the
// snapshot.
var ErrNoProducts = errors.New("catalog fetch returned no products")

// Engine orchestrates one monitor cycle. It is parameterized entirely by
// injected collaborators and never reads ambient process state.
type Engine struct {
	fetcher  catalog.Fetcher
	store    snapshot.Store
	notifier notify.Notifier
	log      *slog.Logger

	embedCap int
	meta     map[domain.Category]CategoryMeta
	now      func() time.Time
}

// NewEngine creates a new Engine with injected dependencies.
func NewEngine(
	f catalog.Fetcher,
	s snapshot.Store,
	n notify.Notifier,
	opts ...EngineOption,
) *Engine {
	eng := &Engine{
		fetcher:  f,
		store:    s,
		notifier: n,
		log:      slog.Default(),
		embedCap: DefaultEmbedCap,
		meta:     DefaultCategoryMeta(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(eng)
	}
	return eng
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithEmbedCap sets the per-message detail block cap.
func WithEmbedCap(n int) EngineOption {
	return func(e *Engine) {
		e.embedCap = n
	}
}

// WithCategoryMeta overrides the per-category rendering metadata.
func WithCategoryMeta(meta map[domain.Category]CategoryMeta) EngineOption {
	return func(e *Engine) {
		e.meta = meta
	}
}

// WithNowFunc overrides the time source for testing.
func WithNowFunc(f func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = f
	}
}

// CycleReport summarizes one completed cycle.
type CycleReport struct {
	RunID          string
	FirstRun       bool
	Fetched        int
	Events         int
	EventsByCat    map[domain.Category]int
	MessagesSent   int
	MessagesFailed int
	Duration       time.Duration
}

// RunCycle executes one fetch -> classify -> notify -> persist pass.
//
// Delivery failures are logged per message and never block persistence:
// the snapshot is updated regardless so an already-applied stock level is
// not re-alerted next cycle (at-least-once semantics; an alert dropped by
// the transport is permanently lost). A persistence failure is returned
// to the caller; the atomic snapshot write guarantees the on-disk state
// is either the old or the new snapshot.
func (eng *Engine) RunCycle(ctx context.Context) (*CycleReport, error) {
	start := eng.now()
	metrics.CyclesTotal.Inc()
	defer func() {
		metrics.CycleDuration.Observe(time.Since(start).Seconds())
	}()

	report := &CycleReport{
		RunID:       uuid.NewString(),
		EventsByCat: make(map[domain.Category]int),
	}
	log := eng.log.With("run_id", report.RunID)

	products, err := eng.fetcher.FetchAll(ctx)
	if err != nil {
		metrics.CycleErrorsTotal.Inc()
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	if len(products) == 0 {
		metrics.CycleErrorsTotal.Inc()
		return nil, ErrNoProducts
	}

	report.Fetched = len(products)
	metrics.ProductsFetched.Set(float64(len(products)))
	log.Info("catalog fetched", "products", len(products))

	prev, err := eng.store.Load()
	if err != nil {
		metrics.CycleErrorsTotal.Inc()
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	// First run: seed the baseline and stay silent. Without this, a
	// fresh deployment would alert on the entire catalog.
	if len(prev) == 0 {
		log.Info("no prior snapshot, seeding baseline", "products", len(products))
		report.FirstRun = true
		return eng.persist(report, products, start, log)
	}

	events := Classify(prev, products)
	report.Events = len(events)
	for _, ev := range events {
		report.EventsByCat[ev.Category]++
		metrics.EventsTotal.WithLabelValues(string(ev.Category)).Inc()
	}

	if len(events) == 0 {
		log.Info("no changes detected", "products", len(products))
		return eng.persist(report, products, start, log)
	}

	log.Info("changes detected",
		"restocked", report.EventsByCat[domain.CategoryRestocked],
		"increased", report.EventsByCat[domain.CategoryIncreased],
		"added", report.EventsByCat[domain.CategoryAdded],
	)

	for _, msg := range Batch(events, eng.meta, eng.embedCap, eng.now()) {
		if err := eng.notifier.Send(ctx, msg); err != nil {
			// Delivery failure must not block the remaining messages
			// or the snapshot write.
			log.Error("notification failed", "title", msg.Title, "error", err)
			metrics.NotificationFailuresTotal.Inc()
			report.MessagesFailed++
			continue
		}
		metrics.MessagesSentTotal.Inc()
		report.MessagesSent++
	}

	return eng.persist(report, products, start, log)
}

func (eng *Engine) persist(
	report *CycleReport,
	products []domain.Product,
	start time.Time,
	log *slog.Logger,
) (*CycleReport, error) {
	if err := eng.store.Save(products); err != nil {
		metrics.CycleErrorsTotal.Inc()
		return nil, fmt.Errorf("persisting snapshot: %w", err)
	}

	snap := domain.Index(products)
	metrics.SnapshotSize.Set(float64(len(snap)))
	report.Duration = eng.now().Sub(start)
	log.Debug("snapshot persisted", "products", len(snap))

	return report, nil
}
