// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// GradingMetrics provides business metrics for the grading workflow.
// It tracks session throughput, review decisions, Gemini usage, and the
// size of the review backlog.
type GradingMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	sessionCreatedTotal     *Counter
	sessionReviewedTotal    *Counter
	documentsGradedTotal    *Counter
	geminiCallsTotal        *Counter
	feedbackSyncFailedTotal *Counter

	// Histogram metrics
	geminiCallDuration *Histogram

	// Gauge metrics (point-in-time values)
	sessionsPendingReview *Gauge
	documentsUngraded     *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	statsProvider GradingStatsProvider
}

// GradingStatsProvider provides workload counts for periodic metrics
// collection. This interface allows the telemetry layer to query grading
// state without depending on the grading domain directly.
type GradingStatsProvider interface {
	// CountSessionsPendingReview returns the number of sessions awaiting review
	CountSessionsPendingReview(ctx context.Context) (int64, error)

	// CountDocumentsUngraded returns the number of documents not yet graded
	CountDocumentsUngraded(ctx context.Context) (int64, error)
}

// GradingMetricsConfig holds configuration for grading metrics.
type GradingMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	StatsProvider   GradingStatsProvider
}

// NewGradingMetrics creates a new GradingMetrics instance.
func NewGradingMetrics(cfg GradingMetricsConfig) (*GradingMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	gm := &GradingMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		statsProvider: cfg.StatsProvider,
	}

	// Initialize counter metrics
	var err error

	// Session metrics
	gm.sessionCreatedTotal, err = NewCounter(
		cfg.Meter,
		"grader_session_created_total",
		"Total number of grading sessions created",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	gm.sessionReviewedTotal, err = NewCounter(
		cfg.Meter,
		"grader_session_reviewed_total",
		"Total number of grading sessions reviewed, labeled by decision",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	gm.documentsGradedTotal, err = NewCounter(
		cfg.Meter,
		"grader_documents_graded_total",
		"Total number of documents sent through grading, labeled by outcome",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	// Gemini metrics
	gm.geminiCallsTotal, err = NewCounter(
		cfg.Meter,
		"grader_gemini_calls_total",
		"Total number of Gemini API calls, labeled by operation and outcome",
		"{calls}",
	)
	if err != nil {
		return nil, err
	}

	gm.geminiCallDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "grader_gemini_call_duration_seconds",
		Description: "Gemini API call duration",
		Unit:        "s",
		Boundaries:  GeminiDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	// Feedback sync metrics
	gm.feedbackSyncFailedTotal, err = NewCounter(
		cfg.Meter,
		"grader_feedback_sync_failed_total",
		"Total number of Google Docs feedback writes that failed",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	// Workload gauge metrics
	gm.sessionsPendingReview, err = NewGauge(
		cfg.Meter,
		"grader_sessions_pending_review",
		"Number of grading sessions currently awaiting review",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	gm.documentsUngraded, err = NewGauge(
		cfg.Meter,
		"grader_documents_ungraded",
		"Number of synced documents not yet graded",
		"{documents}",
	)
	if err != nil {
		return nil, err
	}

	return gm, nil
}

// =============================================================================
// Session Metrics
// =============================================================================

// ReviewDecision represents the outcome of a session review for metrics labeling.
type ReviewDecision string

const (
	ReviewDecisionApproved ReviewDecision = "approved"
	ReviewDecisionRejected ReviewDecision = "rejected"
)

// RecordSessionCreated records a grading session creation event.
// This should be called from the application layer when a batch grade completes.
func (gm *GradingMetrics) RecordSessionCreated(ctx context.Context, sectionNumber string) {
	gm.sessionCreatedTotal.Inc(ctx,
		AttrSectionNumber.String(sectionNumber),
	)
}

// RecordSessionReviewed records a session review decision.
func (gm *GradingMetrics) RecordSessionReviewed(ctx context.Context, sectionNumber string, decision ReviewDecision) {
	gm.sessionReviewedTotal.Inc(ctx,
		AttrSectionNumber.String(sectionNumber),
		AttrDecision.String(string(decision)),
	)
}

// =============================================================================
// Grading Metrics
// =============================================================================

// GradeOutcome represents the per-document grading result for metrics labeling.
type GradeOutcome string

const (
	GradeOutcomeOK     GradeOutcome = "ok"
	GradeOutcomeFailed GradeOutcome = "failed"
)

// RecordDocumentGraded records one document passing through the grader.
func (gm *GradingMetrics) RecordDocumentGraded(ctx context.Context, outcome GradeOutcome) {
	gm.documentsGradedTotal.Inc(ctx,
		AttrOutcome.String(string(outcome)),
	)
}

// =============================================================================
// Gemini Metrics
// =============================================================================

// GeminiOperation names the Gemini call site for metrics labeling.
type GeminiOperation string

const (
	GeminiOpGrade       GeminiOperation = "grade"
	GeminiOpParseRubric GeminiOperation = "parse_rubric"
	GeminiOpSummarize   GeminiOperation = "summarize"
)

// RecordGeminiCall records one Gemini API call with its duration and outcome.
func (gm *GradingMetrics) RecordGeminiCall(ctx context.Context, op GeminiOperation, model string, duration time.Duration, err error) {
	outcome := GradeOutcomeOK
	if err != nil {
		outcome = GradeOutcomeFailed
	}

	gm.geminiCallsTotal.Inc(ctx,
		AttrGeminiOp.String(string(op)),
		AttrGeminiModel.String(model),
		AttrOutcome.String(string(outcome)),
	)
	gm.geminiCallDuration.RecordDuration(ctx, duration,
		AttrGeminiOp.String(string(op)),
		AttrGeminiModel.String(model),
	)
}

// =============================================================================
// Feedback Sync Metrics
// =============================================================================

// RecordFeedbackSyncFailure records a failed Google Docs feedback write.
// Approval proceeds despite these failures, so the counter is the only
// visible trace of documents needing a manual feedback pass.
func (gm *GradingMetrics) RecordFeedbackSyncFailure(ctx context.Context, sectionNumber string) {
	gm.feedbackSyncFailedTotal.Inc(ctx,
		AttrSectionNumber.String(sectionNumber),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of workload gauges.
// It queries the stats provider every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (gm *GradingMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	gm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go gm.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (gm *GradingMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	gm.collectWorkloadMetrics(ctx)

	for {
		select {
		case <-gm.stopChan:
			gm.logger.Info("Stopping periodic grading metrics collection")
			return
		case <-ctx.Done():
			gm.logger.Info("Context cancelled, stopping periodic grading metrics collection")
			return
		case <-ticker.C:
			gm.collectWorkloadMetrics(ctx)
		}
	}
}

// collectWorkloadMetrics collects the review backlog gauges.
func (gm *GradingMetrics) collectWorkloadMetrics(ctx context.Context) {
	if gm.statsProvider == nil {
		gm.logger.Debug("No stats provider configured, skipping workload metrics collection")
		return
	}

	pending, err := gm.statsProvider.CountSessionsPendingReview(ctx)
	if err != nil {
		gm.logger.Warn("Failed to count pending review sessions", zap.Error(err))
	} else {
		gm.sessionsPendingReview.Record(ctx, pending)
	}

	ungraded, err := gm.statsProvider.CountDocumentsUngraded(ctx)
	if err != nil {
		gm.logger.Warn("Failed to count ungraded documents", zap.Error(err))
	} else {
		gm.documentsUngraded.Record(ctx, ungraded)
	}
}

// Stop stops the periodic collection.
func (gm *GradingMetrics) Stop() {
	gm.stopOnce.Do(func() {
		close(gm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewGradingMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Histogram Buckets
// =============================================================================

// GeminiDurationBuckets are bucket boundaries for Gemini call duration
// (seconds). Generation calls routinely take several seconds.
var GeminiDurationBuckets = []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120}
