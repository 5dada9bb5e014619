package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStepLogger(t *testing.T) *StepLogger {
	t.Helper()
	sl, err := NewStepLogger("test-query", "info", false, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sl.Close() })
	return sl
}

func TestStepLifecycle(t *testing.T) {
	sl := newTestStepLogger(t)

	step1 := sl.StartStep(ComponentClassifier, "classify intent", nil)
	step2 := sl.StartStep(ComponentExtractor, "extract entities", nil)
	assert.Equal(t, 1, step1)
	assert.Equal(t, 2, step2)

	sl.CompleteStep(step1, map[string]interface{}{"intent": "weather"})
	sl.FailStep(step2, errors.New("model down"))

	summary := sl.GetExecutionSummary()
	assert.Equal(t, "test-query", summary.QueryID)
	assert.Equal(t, 2, summary.TotalSteps)
	assert.Equal(t, 1, summary.CompletedSteps)
	assert.Equal(t, 1, summary.FailedSteps)

	assert.Equal(t, StatusCompleted, summary.Steps[0].Status)
	assert.Equal(t, StatusFailed, summary.Steps[1].Status)
	assert.Equal(t, "model down", summary.Steps[1].Error)
	assert.NotNil(t, summary.Steps[0].EndTime)
}

func TestCompleteStepOutOfRangeIsIgnored(t *testing.T) {
	sl := newTestStepLogger(t)

	sl.CompleteStep(0, nil)
	sl.CompleteStep(99, nil)
	sl.FailStep(-1, errors.New("x"))

	assert.Equal(t, 0, sl.GetExecutionSummary().TotalSteps)
}

func TestFactorySharesOneSinkAcrossQueries(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")
	factory, err := NewFactory("info", false, logDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Close() })

	first := factory.ForQuery("query-1")
	second := factory.ForQuery("query-2")

	// Same underlying zap sink, independent step state
	assert.Same(t, first.Zap(), second.Zap())
	first.StartStep(ComponentClassifier, "classify intent", nil)
	assert.Equal(t, 1, first.GetExecutionSummary().TotalSteps)
	assert.Equal(t, 0, second.GetExecutionSummary().TotalSteps)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStepLoggerWritesToConfiguredDir(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "steps")
	sl, err := NewStepLogger("query-3", "debug", false, logDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sl.Close() })

	sl.StartStep(ComponentTools, "dispatch weather", nil)

	entries, err := os.ReadDir(logDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "steps_")
}
