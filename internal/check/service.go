package check

import (
	"context"
	"log/slog"
	"time"

	"github.com/chaincheck/chaincheck/internal/entity"
	"github.com/chaincheck/chaincheck/internal/idgen"
	"github.com/chaincheck/chaincheck/internal/metrics"
	"github.com/chaincheck/chaincheck/internal/signal"
	"github.com/chaincheck/chaincheck/internal/traces"
)

// CheckEvent is broadcast to feed subscribers after each completed check.
type CheckEvent struct {
	CheckID   string      `json:"checkId"`
	Value     string      `json:"value"`
	Type      entity.Type `json:"entityType"`
	RiskLevel RiskLevel   `json:"riskLevel"`
	CheckedAt time.Time   `json:"checkedAt"`
}

// EventPublisher receives completed check events, e.g. the websocket hub.
type EventPublisher interface {
	PublishCheck(ev CheckEvent)
}

// Service orchestrates the full check pipeline.
type Service struct {
	invoker   *signal.Invoker
	store     Store
	reports   ReportCounter
	publisher EventPublisher
	logger    *slog.Logger
}

// NewService creates a check service. Store is required; reports and
// publisher are optional collaborators.
func NewService(invoker *signal.Invoker, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		invoker: invoker,
		store:   store,
		logger:  logger,
	}
}

// WithReports wires the user report counter into entity stats.
func (s *Service) WithReports(r ReportCounter) *Service {
	s.reports = r
	return s
}

// WithPublisher wires a feed publisher for completed checks.
func (s *Service) WithPublisher(p EventPublisher) *Service {
	s.publisher = p
	return s
}

// Check runs the full pipeline for one raw entity string: classify, record
// the search, fan out to providers, resolve, assemble. Provider failures
// degrade the response; only classification errors are returned.
func (s *Service) Check(ctx context.Context, raw string) (*CheckResponse, error) {
	start := time.Now()

	e, err := entity.Classify(raw)
	if err != nil {
		return nil, err
	}

	ctx, span := traces.StartSpan(ctx, "check.entity",
		traces.EntityType(string(e.Type)),
		traces.EntityValue(e.Normalized),
	)
	defer span.End()

	stats := s.collectStats(ctx, e)

	signals := s.invoker.RunAll(ctx, e)
	if err := ctx.Err(); err != nil {
		// Cancelled mid-flight: the caller is gone, return nothing partial.
		return nil, err
	}

	assessment := Resolve(signals)
	checkID := idgen.WithPrefix("chk_")
	checkedAt := time.Now().UTC()

	resp := Assemble(e, checkID, assessment, signals, stats, checkedAt)

	span.SetAttributes(traces.RiskLevel(string(assessment.RiskLevel)), traces.CheckID(checkID))
	metrics.ChecksTotal.WithLabelValues(string(e.Type), string(assessment.RiskLevel)).Inc()
	metrics.CheckDuration.Observe(time.Since(start).Seconds())

	s.logger.Info("check completed",
		"check_id", checkID,
		"entity_type", e.Type,
		"risk_level", assessment.RiskLevel,
		"signals", len(signals),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if s.publisher != nil {
		s.publisher.PublishCheck(CheckEvent{
			CheckID:   checkID,
			Value:     e.Normalized,
			Type:      e.Type,
			RiskLevel: assessment.RiskLevel,
			CheckedAt: checkedAt,
		})
	}

	return resp, nil
}

// Stats returns the bookkeeping counters for an entity without running a check.
func (s *Service) Stats(ctx context.Context, raw string) (EntityInfo, EntityStats, error) {
	e, err := entity.Classify(raw)
	if err != nil {
		return EntityInfo{}, EntityStats{}, err
	}

	var stats EntityStats
	if s.store != nil {
		if n, err := s.store.TimesSearched(ctx, e.Normalized, e.Type); err == nil {
			stats.TimesSearched = n
		}
	}
	if s.reports != nil {
		if n, err := s.reports.CountForEntity(ctx, e.Normalized, e.Type); err == nil {
			stats.UserReportCount = n
		}
	}

	info := EntityInfo{Value: e.Value, Type: e.Type, Normalized: e.Normalized, Chain: e.Chain}
	return info, stats, nil
}

// collectStats increments the search counter and gathers report counts.
// Both are best-effort: a stats failure never fails the check.
func (s *Service) collectStats(ctx context.Context, e entity.Entity) EntityStats {
	var stats EntityStats

	if s.store != nil {
		n, err := s.store.RecordSearch(ctx, e.Normalized, e.Type)
		if err != nil {
			s.logger.Warn("record search failed", "entity_type", e.Type, "error", err)
		} else {
			stats.TimesSearched = n
		}
	}

	if s.reports != nil {
		n, err := s.reports.CountForEntity(ctx, e.Normalized, e.Type)
		if err != nil {
			s.logger.Warn("report count failed", "entity_type", e.Type, "error", err)
		} else {
			stats.UserReportCount = n
		}
	}

	return stats
}
