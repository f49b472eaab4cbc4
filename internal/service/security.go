package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"propcost/internal/detection"
	"propcost/internal/metrics"
	"propcost/internal/models"
	"propcost/internal/server"
	"propcost/internal/storage"
)

const (
	resourceThreat     = "security_threat"
	resourceMonitoring = "security_monitoring"
)

// Security is the admin-only surface of the threat engine.
type Security interface {
	Dashboard(ctx context.Context, user models.User, timeframe string) (models.Dashboard, error)
	ResolveThreat(ctx context.Context, user models.User, threatID, resolution string) error
	ToggleMonitoring(ctx context.Context, user models.User, enabled bool) error
}

// SecurityStore is the part of the record store the engine reads and
// appends to.
type SecurityStore interface {
	storage.ActivityIR
	storage.ThreatIR
	storage.AlertIR
	storage.AuditIR
}

type SecurityService struct {
	store     SecurityStore
	config    server.SecurityConfig
	metrics   *metrics.Metrics
	detectors []detection.Detector
	now       func() time.Time
}

func NewSecurityService(store SecurityStore, config server.SecurityConfig, m *metrics.Metrics) *SecurityService {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.ResolveMode == "" {
		config.ResolveMode = server.ResolveModeAudit
	}
	return &SecurityService{
		store:     store,
		config:    config,
		metrics:   m,
		detectors: detection.Default(),
		now:       time.Now,
	}
}

func (s *SecurityService) authorize(user models.User) error {
	if !user.IsAuth {
		return models.ErrUnauthenticated
	}
	if !user.CanAdministerSecurity(s.config.AdminRoles) {
		return models.ErrUnauthorized
	}
	return nil
}

// Dashboard runs one engine computation for the requested timeframe. Any
// failed or expired read aborts the whole run with ErrStoreUnavailable.
func (s *SecurityService) Dashboard(ctx context.Context, user models.User, timeframe string) (models.Dashboard, error) {
	if err := s.authorize(user); err != nil {
		return models.Dashboard{}, err
	}
	tf, err := models.ParseTimeframe(timeframe)
	if err != nil {
		return models.Dashboard{}, err
	}

	started := time.Now()
	window := models.NewWindow(tf, s.now())

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	in, err := s.read(ctx, window)
	if err != nil {
		s.metrics.ObserveRun(tf, time.Since(started), err)
		log.Error().Err(err).Str("timeframe", string(tf)).Int("user_id", user.Id).Msg("security dashboard read failed")
		return models.Dashboard{}, err
	}

	res := detection.Compute(in)
	if s.config.PersistCandidates {
		s.persist(ctx, res)
	}

	elapsed := time.Since(started)
	s.metrics.ObserveRun(tf, elapsed, nil)
	s.metrics.ObserveCandidates(res.Candidates)
	s.metrics.ObserveSynthesized(res.Synthesized)

	log.Debug().
		Str("timeframe", string(tf)).
		Int("events", len(in.Events)).
		Int("stored_threats", len(in.Threats)).
		Int("candidates", len(res.Candidates)).
		Int("active", res.Dashboard.Summary.TotalActiveThreats).
		Dur("elapsed", elapsed).
		Msg("security dashboard computed")

	return res.Dashboard, nil
}

// read issues the store reads of one run concurrently.
func (s *SecurityService) read(ctx context.Context, w models.Window) (detection.Input, error) {
	in := detection.Input{
		Window:    w,
		Location:  s.config.Location,
		Detectors: s.detectors,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events, err := s.store.ListSecurityEvents(gctx, w)
		in.Events = events
		return err
	})
	g.Go(func() error {
		threats, err := s.store.ListThreats(gctx, w.Since)
		in.Threats = threats
		return err
	})
	g.Go(func() error {
		unresolved, err := s.store.ListUnresolved(gctx, detection.Types(s.detectors), w.Since)
		in.Unresolved = unresolved
		return err
	})
	g.Go(func() error {
		resolved, err := s.store.ListResolved(gctx)
		in.Resolved = resolved
		return err
	})
	g.Go(func() error {
		alerts, err := s.store.ListAlerts(gctx, w)
		in.Alerts = alerts
		return err
	})

	if err := g.Wait(); err != nil {
		return detection.Input{}, storeUnavailable(err)
	}
	if err := ctx.Err(); err != nil {
		return detection.Input{}, storeUnavailable(err)
	}
	return in, nil
}

func storeUnavailable(err error) error {
	if errors.Is(err, models.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
}

// persist appends the surviving candidates and their synthesized alerts.
// Failures are logged and never affect the computed dashboard.
func (s *SecurityService) persist(ctx context.Context, res detection.Result) {
	stored := make(map[string]int64, len(res.Candidates))
	for _, c := range res.Candidates {
		id, err := s.store.CreateThreat(ctx, c)
		if err != nil {
			s.metrics.IncPersistErrors()
			log.Error().Err(err).Str("threat_id", c.ID).Str("type", string(c.Type)).Msg("persist threat candidate")
			continue
		}
		stored[c.ID] = id
	}

	for _, a := range res.Synthesized {
		threatID, ok := stored[a.ThreatID]
		if !ok {
			continue
		}
		sentAt := s.now()
		if a.SentAt != nil {
			sentAt = *a.SentAt
		}
		if _, err := s.store.CreateAlert(ctx, threatID, a.Sent, sentAt); err != nil {
			s.metrics.IncPersistErrors()
			log.Error().Err(err).Int64("threat_id", threatID).Msg("persist synthesized alert")
		}
	}
}

// ResolveThreat records the resolution of threatID. The audit entry is
// always written first; in mutate mode the stored record is flipped only
// after the entry is appended, which requires a persisted numeric id.
func (s *SecurityService) ResolveThreat(ctx context.Context, user models.User, threatID, resolution string) error {
	if err := s.authorize(user); err != nil {
		return err
	}
	if threatID == "" {
		return fmt.Errorf("%w: threat id is required", models.ErrInvalidRequest)
	}

	mutate := s.config.ResolveMode == server.ResolveModeMutate
	var id int64
	if mutate {
		parsed, err := strconv.ParseInt(threatID, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q is not a persisted threat", models.ErrThreatNotFound, threatID)
		}
		id = parsed
	}

	now := s.now()
	entry, err := s.store.AppendAuditEntry(ctx, models.AuditEntry{
		ActorID:    user.Id,
		Action:     models.ActionSecurityThreatResolved,
		Resource:   resourceThreat,
		ResourceID: threatID,
		Detail: map[string]any{
			"resolution": resolution,
			"mode":       s.config.ResolveMode,
		},
		CreatedAt: now,
	})
	if err != nil {
		log.Error().Err(err).Str("threat_id", threatID).Msg("append resolution audit entry")
		return fmt.Errorf("%w: audit resolution: %w", models.ErrOperationFailed, err)
	}

	if mutate {
		if err := s.store.ResolveThreat(ctx, id, user.Id, now); err != nil {
			log.Error().Err(err).Str("threat_id", threatID).Str("audit_id", entry.ID).Msg("resolve threat")
			if errors.Is(err, models.ErrThreatNotFound) {
				return err
			}
			return fmt.Errorf("%w: resolve threat: %w", models.ErrOperationFailed, err)
		}
	}

	log.Info().
		Str("threat_id", threatID).
		Int("user_id", user.Id).
		Str("mode", s.config.ResolveMode).
		Str("audit_id", entry.ID).
		Msg("security threat resolved")
	return nil
}

// ToggleMonitoring records a monitoring switch in the audit trail.
func (s *SecurityService) ToggleMonitoring(ctx context.Context, user models.User, enabled bool) error {
	if err := s.authorize(user); err != nil {
		return err
	}

	action := models.ActionSecurityMonitoringOff
	if enabled {
		action = models.ActionSecurityMonitoringEnabled
	}
	_, err := s.store.AppendAuditEntry(ctx, models.AuditEntry{
		ActorID:    user.Id,
		Action:     action,
		Resource:   resourceMonitoring,
		ResourceID: strconv.Itoa(user.Id),
		Detail:     map[string]any{"enabled": enabled},
		CreatedAt:  s.now(),
	})
	if err != nil {
		log.Error().Err(err).Bool("enabled", enabled).Msg("append monitoring audit entry")
		return fmt.Errorf("%w: toggle monitoring: %w", models.ErrOperationFailed, err)
	}

	log.Info().Int("user_id", user.Id).Bool("enabled", enabled).Msg("security monitoring toggled")
	return nil
}
