package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/grantcue/grantcue/internal/database"
	"github.com/grantcue/grantcue/internal/events"
	"github.com/grantcue/grantcue/internal/filter"
	"github.com/grantcue/grantcue/internal/notify"
)

// fakeStore implements Store with function fields for test control.
type fakeStore struct {
	listActiveAlertsFn func(ctx context.Context) ([]*database.Alert, error)
	queryCatalogFn     func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error)
	insertMatchFn      func(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult
	getUserFn          func(ctx context.Context, userID string) (*database.User, error)

	advancedWatermarks map[string]time.Time
	recordedSent       map[string]int
	querySince         map[string]time.Time
	advanceErr         error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		advancedWatermarks: map[string]time.Time{},
		recordedSent:       map[string]int{},
		querySince:         map[string]time.Time{},
	}
}

func (s *fakeStore) ListActiveAlerts(ctx context.Context) ([]*database.Alert, error) {
	return s.listActiveAlertsFn(ctx)
}

func (s *fakeStore) QueryCatalog(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
	return s.queryCatalogFn(ctx, pred, since, limit)
}

func (s *fakeStore) AdvanceWatermark(ctx context.Context, alertID string, checkedAt time.Time) error {
	if s.advanceErr != nil {
		return s.advanceErr
	}
	s.advancedWatermarks[alertID] = checkedAt
	return nil
}

func (s *fakeStore) InsertMatch(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult {
	return s.insertMatchFn(ctx, alertID, grant)
}

func (s *fakeStore) RecordAlertSent(ctx context.Context, alertID string, matches int) error {
	s.recordedSent[alertID] += matches
	return nil
}

func (s *fakeStore) GetUser(ctx context.Context, userID string) (*database.User, error) {
	if s.getUserFn != nil {
		return s.getUserFn(ctx, userID)
	}
	return &database.User{UserID: userID, Email: "owner@example.org"}, nil
}

// fakeDispatcher records dispatched events.
type fakeDispatcher struct {
	dispatched []events.Event
	emailTos   []string
	outcome    notify.Outcome
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, e events.Event, emailTo string) notify.Outcome {
	d.dispatched = append(d.dispatched, e)
	d.emailTos = append(d.emailTos, emailTo)
	out := d.outcome
	if emailTo == "" {
		out.EmailsSent = 0
	}
	return out
}

func testAlert(id, name string) *database.Alert {
	kw := "climate"
	return &database.Alert{
		AlertID:        id,
		OrganizationID: "org-1",
		UserID:         "user-1",
		Name:           name,
		Keyword:        &kw,
		NotifyEmail:    true,
		Cadence:        "immediate",
		IsActive:       true,
	}
}

func testGrant(externalID string) *database.CatalogGrant {
	return &database.CatalogGrant{
		SourceKey:  "grants_gov",
		ExternalID: externalID,
		Title:      "Grant " + externalID,
		Agency:     "NOAA",
	}
}

func insertedResult(grant *database.CatalogGrant) database.MatchResult {
	return database.MatchResult{
		Outcome: database.MatchInserted,
		Match:   &database.AlertMatch{ExternalID: grant.ExternalID},
	}
}

// TestPipeline_Run tests a full run with new matches.
func TestPipeline_Run(t *testing.T) {
	store := newFakeStore()
	alert := testAlert("alert-1", "NSF climate")
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return []*database.Alert{alert}, nil
	}
	store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
		if limit != 50 {
			t.Errorf("limit = %d, want 50", limit)
		}
		store.querySince[alert.AlertID] = since
		return []*database.CatalogGrant{testGrant("G-1"), testGrant("G-2")}, nil
	}
	store.insertMatchFn = func(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult {
		return insertedResult(grant)
	}

	dispatcher := &fakeDispatcher{outcome: notify.Outcome{EmailsSent: 1}}
	p := New(store, dispatcher)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.AlertsChecked != 1 {
		t.Errorf("AlertsChecked = %d, want 1", result.AlertsChecked)
	}
	if result.MatchesCreated != 2 {
		t.Errorf("MatchesCreated = %d, want 2", result.MatchesCreated)
	}
	if result.EmailsQueued != 1 {
		t.Errorf("EmailsQueued = %d, want 1", result.EmailsQueued)
	}
	if len(result.AlertsWithMatches) != 1 || result.AlertsWithMatches[0].AlertName != "NSF climate" || result.AlertsWithMatches[0].MatchesCount != 2 {
		t.Errorf("AlertsWithMatches = %+v", result.AlertsWithMatches)
	}
	if result.Message == "" {
		t.Error("Message is empty")
	}

	if _, ok := store.advancedWatermarks["alert-1"]; !ok {
		t.Error("watermark was not advanced")
	}
	if store.recordedSent["alert-1"] != 2 {
		t.Errorf("recorded sent = %d, want 2", store.recordedSent["alert-1"])
	}

	if len(dispatcher.dispatched) != 1 {
		t.Fatalf("dispatched %d events, want 1", len(dispatcher.dispatched))
	}
	e, ok := dispatcher.dispatched[0].(events.GrantMatched)
	if !ok {
		t.Fatalf("dispatched event type %T", dispatcher.dispatched[0])
	}
	if e.Kind() != events.KindGrantMatched || len(e.Grants) != 2 {
		t.Errorf("event = %+v", e)
	}
	if dispatcher.emailTos[0] != "owner@example.org" {
		t.Errorf("emailTo = %q", dispatcher.emailTos[0])
	}
}

// TestPipeline_RunIdempotent tests that re-runs produce no new matches
// and no notifications, while the watermark still advances.
func TestPipeline_RunIdempotent(t *testing.T) {
	store := newFakeStore()
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return []*database.Alert{testAlert("alert-1", "NSF climate")}, nil
	}
	store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
		return []*database.CatalogGrant{testGrant("G-1")}, nil
	}
	store.insertMatchFn = func(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult {
		return database.MatchResult{Outcome: database.MatchAlreadyExists}
	}

	dispatcher := &fakeDispatcher{}
	p := New(store, dispatcher)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.MatchesCreated != 0 {
		t.Errorf("MatchesCreated = %d, want 0", result.MatchesCreated)
	}
	if len(result.AlertsWithMatches) != 0 {
		t.Errorf("AlertsWithMatches = %+v, want empty", result.AlertsWithMatches)
	}
	if len(dispatcher.dispatched) != 0 {
		t.Errorf("dispatched %d events, want 0", len(dispatcher.dispatched))
	}
	if _, ok := store.advancedWatermarks["alert-1"]; !ok {
		t.Error("watermark was not advanced on a no-match run")
	}
}

// TestPipeline_RunIsolation tests that one failing alert does not stop
// the others.
func TestPipeline_RunIsolation(t *testing.T) {
	badDue := -5
	bad := testAlert("alert-bad", "broken window")
	bad.DueInDays = &badDue

	good := testAlert("alert-good", "still works")

	store := newFakeStore()
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return []*database.Alert{bad, good}, nil
	}
	store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
		return []*database.CatalogGrant{testGrant("G-1")}, nil
	}
	store.insertMatchFn = func(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult {
		return insertedResult(grant)
	}

	dispatcher := &fakeDispatcher{}
	p := New(store, dispatcher)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.AlertsChecked != 2 {
		t.Errorf("AlertsChecked = %d, want 2", result.AlertsChecked)
	}
	if result.MatchesCreated != 1 {
		t.Errorf("MatchesCreated = %d, want 1", result.MatchesCreated)
	}
	if _, ok := store.advancedWatermarks["alert-bad"]; ok {
		t.Error("watermark advanced for alert whose criteria failed to compile")
	}
	if _, ok := store.advancedWatermarks["alert-good"]; !ok {
		t.Error("watermark not advanced for healthy alert")
	}
}

// TestPipeline_RunQueryFailure tests that a catalog query error skips the
// alert without advancing its watermark.
func TestPipeline_RunQueryFailure(t *testing.T) {
	store := newFakeStore()
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return []*database.Alert{testAlert("alert-1", "NSF climate")}, nil
	}
	store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
		return nil, errors.New("catalog unavailable")
	}

	p := New(store, &fakeDispatcher{})
	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.AlertsChecked != 1 || result.MatchesCreated != 0 {
		t.Errorf("result = %+v", result)
	}
	if len(store.advancedWatermarks) != 0 {
		t.Error("watermark advanced despite query failure")
	}
}

// TestPipeline_Watermark tests the freshness boundary selection.
func TestPipeline_Watermark(t *testing.T) {
	fixedNow := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	checked := fixedNow.Add(-2 * time.Hour)
	seasoned := testAlert("alert-old", "seasoned")
	seasoned.LastCheckedAt = &checked

	fresh := testAlert("alert-new", "fresh")

	store := newFakeStore()
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return []*database.Alert{seasoned, fresh}, nil
	}
	var sinceByAlert []time.Time
	store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
		sinceByAlert = append(sinceByAlert, since)
		return nil, nil
	}

	p := New(store, &fakeDispatcher{}, WithClock(func() time.Time { return fixedNow }))
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(sinceByAlert) != 2 {
		t.Fatalf("queried %d alerts, want 2", len(sinceByAlert))
	}
	if !sinceByAlert[0].Equal(checked) {
		t.Errorf("seasoned alert since = %v, want %v", sinceByAlert[0], checked)
	}
	if want := fixedNow.Add(-24 * time.Hour); !sinceByAlert[1].Equal(want) {
		t.Errorf("fresh alert since = %v, want %v", sinceByAlert[1], want)
	}
	if got := store.advancedWatermarks["alert-old"]; !got.Equal(fixedNow) {
		t.Errorf("advanced watermark = %v, want %v", got, fixedNow)
	}
}

// TestPipeline_RunRecordFailure tests that one failed insert skips only
// that candidate.
func TestPipeline_RunRecordFailure(t *testing.T) {
	store := newFakeStore()
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return []*database.Alert{testAlert("alert-1", "NSF climate")}, nil
	}
	store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
		return []*database.CatalogGrant{testGrant("G-good"), testGrant("G-bad")}, nil
	}
	store.insertMatchFn = func(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult {
		if grant.ExternalID == "G-bad" {
			return database.MatchResult{Outcome: database.MatchFailed, Err: errors.New("insert failed")}
		}
		return insertedResult(grant)
	}

	dispatcher := &fakeDispatcher{}
	p := New(store, dispatcher)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if result.MatchesCreated != 1 {
		t.Errorf("MatchesCreated = %d, want 1", result.MatchesCreated)
	}
	e := dispatcher.dispatched[0].(events.GrantMatched)
	if len(e.Grants) != 1 || e.Grants[0].ExternalID != "G-good" {
		t.Errorf("event grants = %+v", e.Grants)
	}
}

// TestPipeline_RunEmailResolution tests owner email lookup behavior.
func TestPipeline_RunEmailResolution(t *testing.T) {
	tests := []struct {
		name        string
		notifyEmail bool
		getUserFn   func(ctx context.Context, userID string) (*database.User, error)
		wantEmailTo string
	}{
		{
			name:        "email disabled",
			notifyEmail: false,
			wantEmailTo: "",
		},
		{
			name:        "owner lookup fails",
			notifyEmail: true,
			getUserFn: func(ctx context.Context, userID string) (*database.User, error) {
				return nil, errors.New("user not found")
			},
			wantEmailTo: "",
		},
		{
			name:        "owner resolved",
			notifyEmail: true,
			wantEmailTo: "owner@example.org",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := testAlert("alert-1", "NSF climate")
			alert.NotifyEmail = tt.notifyEmail

			store := newFakeStore()
			store.getUserFn = tt.getUserFn
			store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
				return []*database.Alert{alert}, nil
			}
			store.queryCatalogFn = func(ctx context.Context, pred *filter.Predicate, since time.Time, limit int) ([]*database.CatalogGrant, error) {
				return []*database.CatalogGrant{testGrant("G-1")}, nil
			}
			store.insertMatchFn = func(ctx context.Context, alertID string, grant *database.CatalogGrant) database.MatchResult {
				return insertedResult(grant)
			}

			dispatcher := &fakeDispatcher{outcome: notify.Outcome{EmailsSent: 1}}
			p := New(store, dispatcher)

			if _, err := p.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if dispatcher.emailTos[0] != tt.wantEmailTo {
				t.Errorf("emailTo = %q, want %q", dispatcher.emailTos[0], tt.wantEmailTo)
			}
		})
	}
}

// TestPipeline_RunListFailure tests that a store failure listing alerts
// fails the run.
func TestPipeline_RunListFailure(t *testing.T) {
	store := newFakeStore()
	store.listActiveAlertsFn = func(ctx context.Context) ([]*database.Alert, error) {
		return nil, errors.New("db down")
	}

	p := New(store, &fakeDispatcher{})
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("Run() error = nil, want error")
	}
}
