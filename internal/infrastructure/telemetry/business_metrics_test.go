package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewGradingMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, gm)
}

func TestNewGradingMetrics_NilMeter(t *testing.T) {
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, gm)
	assert.Equal(t, "NewGradingMetrics: meter cannot be nil", err.Error())
}

func TestGradingMetrics_RecordSessionCreated(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	gm.RecordSessionCreated(ctx, "900")
	gm.RecordSessionCreated(ctx, "901")
}

func TestGradingMetrics_RecordSessionReviewed(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	gm.RecordSessionReviewed(ctx, "900", telemetry.ReviewDecisionApproved)
	gm.RecordSessionReviewed(ctx, "901", telemetry.ReviewDecisionRejected)
}

func TestGradingMetrics_RecordDocumentGraded(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	gm.RecordDocumentGraded(ctx, telemetry.GradeOutcomeOK)
	gm.RecordDocumentGraded(ctx, telemetry.GradeOutcomeFailed)
}

func TestGradingMetrics_RecordGeminiCall(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic, success and failure paths
	gm.RecordGeminiCall(ctx, telemetry.GeminiOpGrade, "gemini-2.5-flash", 3*time.Second, nil)
	gm.RecordGeminiCall(ctx, telemetry.GeminiOpParseRubric, "gemini-2.5-flash", time.Second, errors.New("quota"))
	gm.RecordGeminiCall(ctx, telemetry.GeminiOpSummarize, "gemini-2.5-flash", 500*time.Millisecond, nil)
}

func TestGradingMetrics_RecordFeedbackSyncFailure(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	// Should not panic
	gm.RecordFeedbackSyncFailure(context.Background(), "900")
}

// Mock implementation for testing periodic collection

type mockStatsProvider struct {
	pendingSessions   int64
	ungradedDocuments int64
	err               error
}

func (m *mockStatsProvider) CountSessionsPendingReview(ctx context.Context) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.pendingSessions, nil
}

func (m *mockStatsProvider) CountDocumentsUngraded(ctx context.Context) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.ungradedDocuments, nil
}

func TestGradingMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	statsProvider := &mockStatsProvider{
		pendingSessions:   3,
		ungradedDocuments: 12,
	}

	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter:         meter,
		Logger:        zap.NewNop(),
		StatsProvider: statsProvider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start periodic collection with short interval for testing
	gm.StartPeriodicCollection(ctx, 100*time.Millisecond)

	// Wait for at least one collection cycle
	time.Sleep(150 * time.Millisecond)

	// Stop collection
	gm.Stop()

	// Should complete without error
}

func TestGradingMetrics_PeriodicCollection_NoProvider(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
		// No stats provider
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Should not panic with no stats provider
	gm.StartPeriodicCollection(ctx, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	gm.Stop()
}

func TestGradingMetrics_PeriodicCollection_ProviderError(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	statsProvider := &mockStatsProvider{
		err: errors.New("database unavailable"),
	}

	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter:         meter,
		Logger:        zap.NewNop(),
		StatsProvider: statsProvider,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Provider errors are logged, not fatal
	gm.StartPeriodicCollection(ctx, 50*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	gm.Stop()
}

func TestGradingMetrics_Stop_Idempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	// Calling Stop multiple times should not panic
	gm.Stop()
	gm.Stop()
	gm.Stop()
}

func TestGradingMetrics_StartPeriodicCollection_OnlyOnce(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	gm, err := telemetry.NewGradingMetrics(telemetry.GradingMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Calling StartPeriodicCollection multiple times should only start once
	gm.StartPeriodicCollection(ctx, time.Hour)
	gm.StartPeriodicCollection(ctx, time.Minute)
	gm.StartPeriodicCollection(ctx, time.Second)

	gm.Stop()
}

func TestReviewDecision_Values(t *testing.T) {
	assert.Equal(t, telemetry.ReviewDecision("approved"), telemetry.ReviewDecisionApproved)
	assert.Equal(t, telemetry.ReviewDecision("rejected"), telemetry.ReviewDecisionRejected)
}

func TestGeminiOperation_Values(t *testing.T) {
	assert.Equal(t, telemetry.GeminiOperation("grade"), telemetry.GeminiOpGrade)
	assert.Equal(t, telemetry.GeminiOperation("parse_rubric"), telemetry.GeminiOpParseRubric)
	assert.Equal(t, telemetry.GeminiOperation("summarize"), telemetry.GeminiOpSummarize)
}

func TestMetricsError_Error(t *testing.T) {
	err := &telemetry.MetricsError{
		Op:  "TestOperation",
		Err: "test error message",
	}

	assert.Equal(t, "TestOperation: test error message", err.Error())
}
