// Package pipeline runs the grant alert matching pipeline: load active
// alerts, compile each alert's criteria, bound the query by the alert's
// freshness watermark, record matches idempotently, and fan out
// notifications for newly recorded matches.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/filter"
	"github.com/grantcue/grantcue/internal/notify"
)

const (
	// pageSize caps the candidates fetched per alert per run.
	pageSize = 50

	// newAlertLookback is the watermark for alerts never checked before:
	// only a trailing day of catalog history, not the whole catalog.
	newAlertLookback = 24 * time.Hour
)

// Store is the subset of database operations the pipeline needs.
type Store interface {
	ListActiveAlerts(ctx context.Context) ([]*database.Alert, error)
	QueryCatalog(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error)
	AdvanceWatermark(ctx context.Context, alertID string, checkedAt time.Time) error
	InsertMatch(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult
	RecordAlertSent(ctx context.Context, alertID string, matches int) error
	GetUser(ctx context.Context, userID string) (*database.User, error)
}

// Dispatcher fans one event out across the organization's channels.
type Dispatcher interface {
	Dispatch(ctx context.Context, e events.Event, emailTo string) notify.Outcome
}

// MetricsRecorder records pipeline run metrics.
type MetricsRecorder interface {
	RecordProcessed(latency time.Duration)
	RecordError()
	IncrementCustom(name string)
}

// NoOpMetrics is a no-op MetricsRecorder.
type NoOpMetrics struct{}

var _ MetricsRecorder = (*NoOpMetrics)(nil)

func (NoOpMetrics) RecordProcessed(_ time.Duration) {}
func (NoOpMetrics) RecordError()                    {}
func (NoOpMetrics) IncrementCustom(_ string)        {}

// AlertMatchSummary reports one alert's new matches in a run result.
type AlertMatchSummary struct {
	AlertName    string `json:"alert_name"`
	MatchesCount int    `json:"matches_count"`
}

// RunResult is the response shape of one matching run.
type RunResult struct {
	Message           string              `json:"message"`
	AlertsChecked     int                 `json:"alerts_checked"`
	MatchesCreated    int                 `json:"matches_created"`
	EmailsQueued      int                 `json:"emails_queued"`
	AlertsWithMatches []AlertMatchSummary `json:"alerts_with_matches"`
}

// Pipeline evaluates active alerts against the grant catalog. Both the
// store and the dispatcher are injected by the hosting process; the
// pipeline holds no hidden shared state.
type Pipeline struct {
	store      Store
	dispatcher Dispatcher
	metrics    MetricsRecorder

	// now is swappable for tests.
	now func() time.Time
}

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithMetrics sets a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(p *Pipeline) {
		if m != nil {
			p.metrics = m
		}
	}
}

// WithClock overrides the pipeline clock. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a matching pipeline.
func New(store Store, dispatcher Dispatcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      store,
		dispatcher: dispatcher,
		metrics:    NoOpMetrics{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes every active alert sequentially. Per-alert failures are
// isolated: a malformed criterion or store error fails that alert's
// evaluation for this run only. Re-invocation is idempotent-safe:
// already-recorded grants yield no new matches.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	start := p.now()

	alerts, err := p.store.ListActiveAlerts(ctx)
	if err != nil {
		p.metrics.RecordError()
		return nil, err
	}

	result := &RunResult{
		AlertsWithMatches: []AlertMatchSummary{},
	}

	for _, alert := range alerts {
		result.AlertsChecked++

		newMatches, ok := p.evaluateAlert(ctx, alert)
		if !ok {
			p.metrics.RecordError()
			continue
		}
		if len(newMatches) == 0 {
			continue
		}

		result.MatchesCreated += len(newMatches)
		result.AlertsWithMatches = append(result.AlertsWithMatches, AlertMatchSummary{
			AlertName:    alert.Name,
			MatchesCount: len(newMatches),
		})
		for range newMatches {
			p.metrics.IncrementCustom("matches_created")
		}

		result.EmailsQueued += p.notifyAlert(ctx, alert, newMatches)
	}

	result.Message = "alert check completed"
	p.metrics.RecordProcessed(p.now().Sub(start))

	slog.Info("Matching run completed",
		"alerts_checked", result.AlertsChecked,
		"matches_created", result.MatchesCreated,
		"emails_queued", result.EmailsQueued,
		"duration", p.now().Sub(start),
	)

	return result, nil
}

// evaluateAlert compiles, queries, advances the watermark, and records
// matches for one alert. Returns the newly recorded matches and whether
// evaluation succeeded.
func (p *Pipeline) evaluateAlert(ctx context.Context, alert *database.Alert) ([]events.MatchedGrant, bool) {
	pred, err := filter.Compile(criteriaOf(alert))
	if err != nil {
		slog.Error("Failed to compile alert criteria",
			"error", err,
			"alert_id", alert.AlertID,
			"alert_name", alert.Name,
		)
		return nil, false
	}

	watermark := p.watermarkOf(alert)
	grants, err := p.store.QueryCatalog(ctx, pred, watermark, pageSize)
	if err != nil {
		slog.Error("Failed to query catalog for alert",
			"error", err,
			"alert_id", alert.AlertID,
		)
		return nil, false
	}

	// The watermark advances unconditionally once the result set is
	// built, even with zero matches and even if downstream recording
	// later fails partially. This bounds re-scans; the cost is that a
	// crash between here and delivery can drop a match window.
	if err := p.store.AdvanceWatermark(ctx, alert.AlertID, p.now()); err != nil {
		slog.Error("Failed to advance alert watermark",
			"error", err,
			"alert_id", alert.AlertID,
		)
	}

	var newMatches []events.MatchedGrant
	for _, grant := range grants {
		res := p.store.InsertMatch(ctx, alert.AlertID, grant)
		switch res.Outcome {
		case database.MatchInserted:
			newMatches = append(newMatches, events.MatchedGrant{
				ExternalID: grant.ExternalID,
				Title:      grant.Title,
				Agency:     grant.Agency,
				CloseDate:  grant.CloseDate,
			})
		case database.MatchAlreadyExists:
			// Expected under re-runs and concurrent runs; not new.
		case database.MatchFailed:
			slog.Error("Failed to record match, skipping candidate",
				"error", res.Err,
				"alert_id", alert.AlertID,
				"external_id", grant.ExternalID,
			)
		}
	}

	return newMatches, true
}

// notifyAlert fans out a grant.matched event for the alert's new matches
// and updates the alert's sent bookkeeping. Returns the number of emails
// queued.
func (p *Pipeline) notifyAlert(ctx context.Context, alert *database.Alert, matches []events.MatchedGrant) int {
	e := events.GrantMatched{
		OrganizationID: alert.OrganizationID,
		AlertID:        alert.AlertID,
		AlertName:      alert.Name,
		OwnerUserID:    alert.UserID,
		Grants:         matches,
	}

	emailTo := ""
	if alert.NotifyEmail {
		user, err := p.store.GetUser(ctx, alert.UserID)
		if err != nil || user.Email == "" {
			// Unresolvable address skips email only; everything else
			// still goes out.
			slog.Warn("Could not resolve alert owner email, skipping email",
				"alert_id", alert.AlertID,
				"user_id", alert.UserID,
				"error", err,
			)
		} else {
			emailTo = user.Email
		}
	}

	outcome := p.dispatcher.Dispatch(ctx, e, emailTo)

	if err := p.store.RecordAlertSent(ctx, alert.AlertID, len(matches)); err != nil {
		slog.Error("Failed to record alert sent",
			"error", err,
			"alert_id", alert.AlertID,
		)
	}

	if outcome.WebhooksFailed > 0 {
		p.metrics.IncrementCustom("webhook_failed")
	}

	return outcome.EmailsSent
}

// watermarkOf returns the freshness boundary for an alert's query.
func (p *Pipeline) watermarkOf(alert *database.Alert) time.Time {
	if alert.LastCheckedAt != nil {
		return *alert.LastCheckedAt
	}
	return p.now().Add(-newAlertLookback)
}

// criteriaOf maps an alert row to compiler criteria.
func criteriaOf(alert *database.Alert) filter.Criteria {
	return filter.Criteria{
		Keyword:          alert.Keyword,
		Category:         alert.Category,
		Agency:           alert.Agency,
		StatusPosted:     alert.StatusPosted,
		StatusForecasted: alert.StatusForecasted,
		DueInDays:        alert.DueInDays,
		MinAmount:        alert.MinAmount,
		MaxAmount:        alert.MaxAmount,
	}
}
