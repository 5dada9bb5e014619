// Why this file: ./internal/logger/step_logger.go
// This implements the step-by-step logging for the query pipeline.
// Every pipeline stage (classify, extract, dispatch, synthesize) records its
// start/completion/failure here, with file logging and an execution summary
// per query - essential for tracing which fallbacks fired.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StepLogger provides detailed step-by-step logging for the pipeline
type StepLogger struct {
	logger        *zap.Logger
	stepCounter   int
	queryID       string
	startTime     time.Time
	steps         []LogStep
	mu            sync.RWMutex
	enableConsole bool
}

// LogStep represents a single stage in the pipeline flow
type LogStep struct {
	StepNumber int           `json:"step_number"`
	Component  string        `json:"component"`
	Action     string        `json:"action"`
	Status     StepStatus    `json:"status"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    *time.Time    `json:"end_time,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Details    interface{}   `json:"details,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// StepStatus represents the status of a step
type StepStatus string

const (
	StatusStarted   StepStatus = "started"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
	StatusSkipped   StepStatus = "skipped"
)

// Component represents different system components
type Component string

const (
	ComponentCLI          Component = "cli"
	ComponentConnectivity Component = "connectivity"
	ComponentClassifier   Component = "classifier"
	ComponentExtractor    Component = "extractor"
	ComponentTools        Component = "tools"
	ComponentRAG          Component = "rag"
	ComponentOffline      Component = "offline"
	ComponentSynthesizer  Component = "synthesizer"
	ComponentLLM          Component = "llm"
	ComponentServer       Component = "server"
	ComponentCache        Component = "cache"
)

// Factory hands out per-query step loggers over one shared zap sink.
// Building a zap file logger is not free; a busy server must not do it
// once per query.
type Factory struct {
	logger        *zap.Logger
	enableConsole bool
}

// NewFactory builds the shared sink. An empty logDir logs to stderr
// instead of a file.
func NewFactory(logLevel string, enableConsole bool, logDir string) (*Factory, error) {
	zl, err := buildZap(logLevel, logDir)
	if err != nil {
		return nil, err
	}
	return &Factory{logger: zl, enableConsole: enableConsole}, nil
}

// ForQuery returns a step logger for one query sharing the factory sink.
func (f *Factory) ForQuery(queryID string) *StepLogger {
	return &StepLogger{
		logger:        f.logger,
		queryID:       queryID,
		startTime:     time.Now(),
		steps:         make([]LogStep, 0),
		enableConsole: f.enableConsole,
	}
}

// Close flushes the shared sink.
func (f *Factory) Close() error {
	return f.logger.Sync()
}

// NewStepLogger creates a standalone step logger with its own sink. An
// empty logDir logs to stderr instead of a file.
func NewStepLogger(queryID string, logLevel string, enableConsole bool, logDir string) (*StepLogger, error) {
	zl, err := buildZap(logLevel, logDir)
	if err != nil {
		return nil, err
	}

	return &StepLogger{
		logger:        zl,
		queryID:       queryID,
		startTime:     time.Now(),
		steps:         make([]LogStep, 0),
		enableConsole: enableConsole,
	}, nil
}

func buildZap(logLevel, logDir string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch strings.ToLower(logLevel) {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	config := zap.NewProductionConfig()
	config.Level.SetLevel(level)
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var outputs []string
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		logFile := filepath.Join(logDir, fmt.Sprintf("steps_%s.log", time.Now().Format("2006-01-02")))
		outputs = append(outputs, logFile)
	}
	if len(outputs) == 0 {
		outputs = append(outputs, "stderr")
	}
	config.OutputPaths = outputs

	zl, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return zl, nil
}

// Zap exposes the underlying zap logger for components that log directly.
func (sl *StepLogger) Zap() *zap.Logger {
	return sl.logger
}

// StartStep begins a new step in the pipeline flow
func (sl *StepLogger) StartStep(component Component, action string, details interface{}) int {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	sl.stepCounter++
	sl.steps = append(sl.steps, LogStep{
		StepNumber: sl.stepCounter,
		Component:  string(component),
		Action:     action,
		Status:     StatusStarted,
		StartTime:  time.Now(),
		Details:    details,
	})

	sl.logger.Info("step started",
		zap.String("query_id", sl.queryID),
		zap.Int("step", sl.stepCounter),
		zap.String("component", string(component)),
		zap.String("action", action),
	)

	return sl.stepCounter
}

// CompleteStep marks a step as completed
func (sl *StepLogger) CompleteStep(stepNumber int, result interface{}) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if stepNumber <= 0 || stepNumber > len(sl.steps) {
		return
	}

	step := &sl.steps[stepNumber-1]
	now := time.Now()
	step.Status = StatusCompleted
	step.EndTime = &now
	step.Duration = now.Sub(step.StartTime)
	if result != nil {
		step.Details = result
	}

	sl.logger.Info("step completed",
		zap.String("query_id", sl.queryID),
		zap.Int("step", stepNumber),
		zap.String("component", step.Component),
		zap.String("action", step.Action),
		zap.Duration("duration", step.Duration),
	)
}

// FailStep marks a step as failed. Pipeline stages fail into fallbacks,
// so a failed step is a warning for the query, not an error.
func (sl *StepLogger) FailStep(stepNumber int, err error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if stepNumber <= 0 || stepNumber > len(sl.steps) {
		return
	}

	step := &sl.steps[stepNumber-1]
	now := time.Now()
	step.Status = StatusFailed
	step.EndTime = &now
	step.Duration = now.Sub(step.StartTime)
	if err != nil {
		step.Error = err.Error()
	}

	sl.logger.Warn("step failed",
		zap.String("query_id", sl.queryID),
		zap.Int("step", stepNumber),
		zap.String("component", step.Component),
		zap.String("action", step.Action),
		zap.Duration("duration", step.Duration),
		zap.Error(err),
	)
}

// LogInfo logs an informational message
func (sl *StepLogger) LogInfo(component Component, message string, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("query_id", sl.queryID),
		zap.String("component", string(component)),
	}, fields...)
	sl.logger.Info(message, all...)
}

// LogError logs an error message
func (sl *StepLogger) LogError(component Component, message string, err error, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("query_id", sl.queryID),
		zap.String("component", string(component)),
		zap.Error(err),
	}, fields...)
	sl.logger.Error(message, all...)

	if sl.enableConsole {
		fmt.Printf("🚨 [%s] %s: %v\n", component, message, err)
	}
}

// GetExecutionSummary returns a summary of all executed steps
func (sl *StepLogger) GetExecutionSummary() ExecutionSummary {
	sl.mu.RLock()
	defer sl.mu.RUnlock()

	summary := ExecutionSummary{
		QueryID:    sl.queryID,
		StartTime:  sl.startTime,
		EndTime:    time.Now(),
		TotalSteps: len(sl.steps),
		Steps:      make([]LogStep, len(sl.steps)),
	}

	copy(summary.Steps, sl.steps)
	summary.Duration = summary.EndTime.Sub(summary.StartTime)

	for _, step := range sl.steps {
		switch step.Status {
		case StatusCompleted:
			summary.CompletedSteps++
		case StatusFailed:
			summary.FailedSteps++
		case StatusSkipped:
			summary.SkippedSteps++
		}
	}

	return summary
}

// Close flushes buffered log entries
func (sl *StepLogger) Close() error {
	return sl.logger.Sync()
}

// ExecutionSummary provides a summary of one query's pipeline run
type ExecutionSummary struct {
	QueryID        string        `json:"query_id"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	TotalSteps     int           `json:"total_steps"`
	CompletedSteps int           `json:"completed_steps"`
	FailedSteps    int           `json:"failed_steps"`
	SkippedSteps   int           `json:"skipped_steps"`
	Steps          []LogStep     `json:"steps"`
}
