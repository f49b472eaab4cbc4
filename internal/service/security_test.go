package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propcost/internal/metrics"
	"propcost/internal/models"
	"propcost/internal/server"
)

var testNow = time.Date(2026, 10, 14, 15, 0, 0, 0, time.UTC)

type fakeStore struct {
	mu sync.Mutex

	events     []models.ActivityEvent
	threats    []models.ThreatRecord
	unresolved []models.ThreatRecord
	resolved   []models.ThreatRecord
	alerts     []models.StoredAlert

	eventsErr  error
	alertsErr  error
	createErr  error
	auditErr   error
	resolveErr error
	block      bool

	reads      int
	windows    []models.Window
	types      []models.ThreatType
	created    []models.ThreatRecord
	alertRows  []int64
	audit      []models.AuditEntry
	resolvedID []int64
}

func (f *fakeStore) read() {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
}

func (f *fakeStore) AppendActivity(ctx context.Context, event models.ActivityEvent) (int64, error) {
	return 0, nil
}

func (f *fakeStore) ListSecurityEvents(ctx context.Context, w models.Window) ([]models.ActivityEvent, error) {
	f.read()
	f.mu.Lock()
	f.windows = append(f.windows, w)
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.events, f.eventsErr
}

func (f *fakeStore) ListThreats(ctx context.Context, since time.Time) ([]models.ThreatRecord, error) {
	f.read()
	return f.threats, nil
}

func (f *fakeStore) ListUnresolved(ctx context.Context, types []models.ThreatType, since time.Time) ([]models.ThreatRecord, error) {
	f.read()
	f.mu.Lock()
	f.types = types
	f.mu.Unlock()
	return f.unresolved, nil
}

func (f *fakeStore) ListResolved(ctx context.Context) ([]models.ThreatRecord, error) {
	f.read()
	return f.resolved, nil
}

func (f *fakeStore) CreateThreat(ctx context.Context, threat models.ThreatRecord) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, threat)
	return int64(100 + len(f.created)), nil
}

func (f *fakeStore) ResolveThreat(ctx context.Context, id int64, resolvedBy int, at time.Time) error {
	if f.resolveErr != nil {
		return f.resolveErr
	}
	f.resolvedID = append(f.resolvedID, id)
	return nil
}

func (f *fakeStore) ListAlerts(ctx context.Context, w models.Window) ([]models.StoredAlert, error) {
	f.read()
	return f.alerts, f.alertsErr
}

func (f *fakeStore) CreateAlert(ctx context.Context, threatID int64, sent bool, sentAt time.Time) (int64, error) {
	f.alertRows = append(f.alertRows, threatID)
	return int64(len(f.alertRows)), nil
}

func (f *fakeStore) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) (models.AuditEntry, error) {
	if f.auditErr != nil {
		return models.AuditEntry{}, f.auditErr
	}
	entry.ID = "entry-1"
	f.audit = append(f.audit, entry)
	return entry, nil
}

func securityConfig() server.SecurityConfig {
	return server.SecurityConfig{
		AdminRoles:  []string{models.RoleAdmin, models.RoleSecurityAdmin},
		ResolveMode: server.ResolveModeAudit,
		Timeout:     time.Second,
		Location:    time.UTC,
	}
}

func newTestService(store *fakeStore, config server.SecurityConfig) *SecurityService {
	s := NewSecurityService(store, config, metrics.New(prometheus.NewRegistry()))
	s.now = func() time.Time { return testNow }
	return s
}

var admin = models.User{Id: 1, Username: "sec", Role: models.RoleSecurityAdmin, IsAuth: true}

func failedLogins(actor int, ip string, n int) []models.ActivityEvent {
	events := make([]models.ActivityEvent, 0, n)
	for i := 0; i < n; i++ {
		id := actor
		events = append(events, models.ActivityEvent{
			ID:        i + 1,
			Timestamp: testNow.Add(-time.Duration(i+1) * time.Minute),
			ActorID:   &id,
			Action:    models.ActionFailedLogin,
			Details:   models.EventDetails{IP: ip},
		})
	}
	return events
}

func TestDashboard_RejectsBeforeAnyRead(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		want error
	}{
		{name: "anonymous", user: models.User{}, want: models.ErrUnauthenticated},
		{name: "manager", user: models.User{Id: 2, Role: models.RoleManager, IsAuth: true}, want: models.ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			s := newTestService(store, securityConfig())

			_, err := s.Dashboard(context.Background(), tt.user, "24h")
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, store.reads)
		})
	}
}

func TestDashboard_InvalidTimeframe(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, securityConfig())

	_, err := s.Dashboard(context.Background(), admin, "30d")
	require.ErrorIs(t, err, models.ErrInvalidTimeframe)
	assert.Zero(t, store.reads)
}

func TestDashboard_Computes(t *testing.T) {
	store := &fakeStore{events: failedLogins(7, "10.0.0.9", 4)}
	s := newTestService(store, securityConfig())

	d, err := s.Dashboard(context.Background(), admin, "1h")
	require.NoError(t, err)

	assert.Equal(t, 5, store.reads)
	require.Len(t, store.windows, 1)
	assert.Equal(t, testNow, store.windows[0].Now)
	assert.Equal(t, testNow.Add(-time.Hour), store.windows[0].Since)
	assert.Len(t, store.types, 4)

	assert.Equal(t, models.Timeframe1h, d.Timeframe)
	assert.Equal(t, testNow, d.GeneratedAt)
	require.Len(t, d.ActiveThreats, 1)
	assert.Equal(t, models.ThreatBruteForce, d.ActiveThreats[0].Type)
	assert.Equal(t, models.LevelMedium, d.ActiveThreats[0].Level)
	assert.GreaterOrEqual(t, d.Metrics.ActiveThreatsByLevel[models.LevelMedium], 1)

	assert.Empty(t, store.created, "candidates are not persisted by default")
}

func TestDashboard_EmptyTimeframeDefaultsTo24h(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, securityConfig())

	d, err := s.Dashboard(context.Background(), admin, "")
	require.NoError(t, err)
	assert.Equal(t, models.Timeframe24h, d.Timeframe)
	assert.Equal(t, testNow.Add(-24*time.Hour), store.windows[0].Since)
}

func TestDashboard_StoreFailureAbortsRun(t *testing.T) {
	store := &fakeStore{
		events:    failedLogins(7, "10.0.0.9", 12),
		alertsErr: errors.New("no such table: security_alerts"),
	}
	s := newTestService(store, securityConfig())

	d, err := s.Dashboard(context.Background(), admin, "24h")
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.Equal(t, models.Dashboard{}, d)
}

func TestDashboard_DeadlineMapsToStoreUnavailable(t *testing.T) {
	store := &fakeStore{block: true}
	config := securityConfig()
	config.Timeout = 20 * time.Millisecond
	s := newTestService(store, config)

	_, err := s.Dashboard(context.Background(), admin, "24h")
	require.ErrorIs(t, err, models.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDashboard_PersistsCandidatesWhenEnabled(t *testing.T) {
	store := &fakeStore{events: failedLogins(7, "10.0.0.9", 12)}
	config := securityConfig()
	config.PersistCandidates = true
	s := newTestService(store, config)

	d, err := s.Dashboard(context.Background(), admin, "24h")
	require.NoError(t, err)

	// brute force for user 7 and suspicious ip for 10.0.0.9
	require.Len(t, store.created, 2)
	assert.Equal(t, models.ThreatBruteForce, store.created[0].Type)
	assert.Equal(t, []int64{101}, store.alertRows)
	assert.Len(t, d.RecentAlerts, 1)
}

func TestDashboard_PersistFailureIsNotFatal(t *testing.T) {
	store := &fakeStore{
		events:    failedLogins(7, "10.0.0.9", 12),
		createErr: errors.New("database is locked"),
	}
	config := securityConfig()
	config.PersistCandidates = true
	s := newTestService(store, config)

	d, err := s.Dashboard(context.Background(), admin, "24h")
	require.NoError(t, err)
	assert.Len(t, d.ActiveThreats, 2)
	assert.Empty(t, store.alertRows)
}

func TestResolveThreat_AuditMode(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, securityConfig())

	err := s.ResolveThreat(context.Background(), admin, "audit_threat_3", "false positive")
	require.NoError(t, err)

	assert.Empty(t, store.resolvedID)
	require.Len(t, store.audit, 1)
	entry := store.audit[0]
	assert.Equal(t, models.ActionSecurityThreatResolved, entry.Action)
	assert.Equal(t, admin.Id, entry.ActorID)
	assert.Equal(t, "security_threat", entry.Resource)
	assert.Equal(t, "audit_threat_3", entry.ResourceID)
	assert.Equal(t, "false positive", entry.Detail["resolution"])
	assert.Equal(t, testNow, entry.CreatedAt)
}

func TestResolveThreat_MutateMode(t *testing.T) {
	config := securityConfig()
	config.ResolveMode = server.ResolveModeMutate

	t.Run("persisted id", func(t *testing.T) {
		store := &fakeStore{}
		s := newTestService(store, config)

		require.NoError(t, s.ResolveThreat(context.Background(), admin, "42", "blocked"))
		assert.Equal(t, []int64{42}, store.resolvedID)
		assert.Len(t, store.audit, 1)
	})

	t.Run("ephemeral id", func(t *testing.T) {
		store := &fakeStore{}
		s := newTestService(store, config)

		err := s.ResolveThreat(context.Background(), admin, "ip_threat_2", "blocked")
		require.ErrorIs(t, err, models.ErrThreatNotFound)
		assert.Empty(t, store.audit)
	})

	t.Run("already resolved", func(t *testing.T) {
		store := &fakeStore{resolveErr: models.ErrThreatNotFound}
		s := newTestService(store, config)

		err := s.ResolveThreat(context.Background(), admin, "42", "blocked")
		require.ErrorIs(t, err, models.ErrThreatNotFound)
		assert.Len(t, store.audit, 1)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &fakeStore{resolveErr: errors.New("disk I/O error")}
		s := newTestService(store, config)

		err := s.ResolveThreat(context.Background(), admin, "42", "blocked")
		require.ErrorIs(t, err, models.ErrOperationFailed)
	})

	t.Run("audit failure leaves record untouched", func(t *testing.T) {
		store := &fakeStore{auditErr: errors.New("readonly database")}
		s := newTestService(store, config)

		err := s.ResolveThreat(context.Background(), admin, "42", "blocked")
		require.ErrorIs(t, err, models.ErrOperationFailed)
		assert.Empty(t, store.resolvedID)
	})
}

func TestResolveThreat_Errors(t *testing.T) {
	s := newTestService(&fakeStore{}, securityConfig())
	require.ErrorIs(t, s.ResolveThreat(context.Background(), models.User{}, "1", ""), models.ErrUnauthenticated)
	require.ErrorIs(t, s.ResolveThreat(context.Background(), admin, "", ""), models.ErrInvalidRequest)

	failing := newTestService(&fakeStore{auditErr: errors.New("readonly database")}, securityConfig())
	require.ErrorIs(t, failing.ResolveThreat(context.Background(), admin, "1", "done"), models.ErrOperationFailed)
}

func TestToggleMonitoring(t *testing.T) {
	store := &fakeStore{}
	s := newTestService(store, securityConfig())

	require.NoError(t, s.ToggleMonitoring(context.Background(), admin, true))
	require.NoError(t, s.ToggleMonitoring(context.Background(), admin, false))

	require.Len(t, store.audit, 2)
	assert.Equal(t, models.ActionSecurityMonitoringEnabled, store.audit[0].Action)
	assert.Equal(t, models.ActionSecurityMonitoringOff, store.audit[1].Action)
	assert.Equal(t, false, store.audit[1].Detail["enabled"])

	manager := models.User{Id: 3, Role: models.RoleManager, IsAuth: true}
	require.ErrorIs(t, s.ToggleMonitoring(context.Background(), manager, true), models.ErrUnauthorized)

	failing := newTestService(&fakeStore{auditErr: errors.New("readonly database")}, securityConfig())
	require.ErrorIs(t, failing.ToggleMonitoring(context.Background(), admin, true), models.ErrOperationFailed)
}
