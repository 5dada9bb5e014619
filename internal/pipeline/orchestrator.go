// Why this file: ./internal/pipeline/orchestrator.go
// This is the end-to-end state machine for one query: probe connectivity,
// pick the online or offline path, classify, extract, dispatch, synthesize.
// Every exit - success, fallback, or total failure - emits a complete
// FinalResponse. Callers never see a partial response or a raw error.
package pipeline

import (
	"context"

	"go.uber.org/zap"

	"github.com/yourusername/krishimitra-assistant/internal/logger"
	"github.com/yourusername/krishimitra-assistant/internal/offline"
	"github.com/yourusername/krishimitra-assistant/models"
)

// offlinePreferenceThreshold is the minimum offline-match confidence at
// which an offline answer is preferred over the templated fallback when
// synthesis fails mid-online-path.
const offlinePreferenceThreshold = 0.3

// noInternetMessage is the terminal reply when neither network nor the
// offline engine can serve the query.
const noInternetMessage = "इंटरनेट कनेक्शन नहीं है। कृपया अपना इंटरनेट कनेक्शन जांचें।\n\n" +
	"No internet connection. Please check your internet connection."

// ConnectivityProber reports whether network-dependent collaborators
// are reachable.
type ConnectivityProber interface {
	IsOnline() bool
}

// OfflineEngine is the pipeline's view of the offline answer engine.
type OfflineEngine interface {
	Ready() bool
	Initialize() error
	GetAnswer(query string) models.ToolResult
}

// Orchestrator runs the full pipeline for each query.
type Orchestrator struct {
	prober      ConnectivityProber
	classifier  *Classifier
	extractor   *Extractor
	dispatcher  *Dispatcher
	synthesizer *Synthesizer
	offline     OfflineEngine
	steps       *logger.Factory
	logger      *zap.Logger
}

// NewOrchestrator wires the pipeline. offline may be nil when no corpus
// is configured; offline-path queries then get the terminal error
// response. steps may be nil to disable per-step logging.
func NewOrchestrator(prober ConnectivityProber, classifier *Classifier, extractor *Extractor, dispatcher *Dispatcher, synthesizer *Synthesizer, offline OfflineEngine, steps *logger.Factory, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		prober:      prober,
		classifier:  classifier,
		extractor:   extractor,
		dispatcher:  dispatcher,
		synthesizer: synthesizer,
		offline:     offline,
		steps:       steps,
		logger:      log,
	}
}

// Answer runs the pipeline for one query and always returns a complete
// FinalResponse.
func (o *Orchestrator) Answer(ctx context.Context, query *models.Query) models.FinalResponse {
	var steps *logger.StepLogger
	if o.steps != nil {
		steps = o.steps.ForQuery(query.ID)
		defer steps.Close()
	}

	if !o.prober.IsOnline() {
		o.logger.Info("query in offline mode", zap.String("query_id", query.ID))
		return o.answerOffline(query)
	}

	return o.answerOnline(ctx, query, steps)
}

// answerOffline serves the query entirely from the offline engine.
func (o *Orchestrator) answerOffline(query *models.Query) models.FinalResponse {
	if o.offline == nil {
		return noInternetResponse("Internet is required for this feature")
	}

	if !o.offline.Ready() {
		if err := o.offline.Initialize(); err != nil {
			o.logger.Warn("offline engine unavailable", zap.Error(err))
			return noInternetResponse(err.Error())
		}
	}

	if reply := o.conversationalReply(query.Text); reply != "" {
		return conversationalResponse(reply, "KrishiMitra (Offline)", models.ModeOffline)
	}

	result := o.offline.GetAnswer(query.Text)
	return finalFromTool(result, models.Entities{}, models.IntentOfflineQA, models.ModeOffline, result.Message)
}

// answerOnline runs the full classify/extract/dispatch/synthesize chain.
func (o *Orchestrator) answerOnline(ctx context.Context, query *models.Query, steps *logger.StepLogger) models.FinalResponse {
	if reply := o.conversationalReply(query.Text); reply != "" {
		return conversationalResponse(reply, "KrishiMitra", models.ModeOnline)
	}

	var step int
	if steps != nil {
		step = steps.StartStep(logger.ComponentClassifier, "classify intent", query.Text)
	}
	intent, usedLLM := o.classifier.Classify(ctx, query.Text)
	if steps != nil {
		steps.CompleteStep(step, map[string]interface{}{"intent": intent, "llm": usedLLM})
	}

	// A classifier that had to fall back signals the model is down;
	// keyword intent still routes, matching degraded-online behavior.
	if !usedLLM {
		o.logger.Warn("intent classifier fell back to keywords", zap.String("query_id", query.ID))
	}

	if steps != nil {
		step = steps.StartStep(logger.ComponentExtractor, "extract entities", nil)
	}
	entities := o.extractor.Extract(ctx, query.Text, query.Context)
	if steps != nil {
		steps.CompleteStep(step, entities)
	}

	o.logger.Info("query routed",
		zap.String("query_id", query.ID),
		zap.String("intent", string(intent)),
		zap.String("crop", entities.Crop),
		zap.String("location", entities.Location))

	if steps != nil {
		step = steps.StartStep(logger.ComponentTools, "dispatch "+string(intent), nil)
	}
	tool, err := o.dispatcher.Dispatch(ctx, intent, entities, query)
	if err != nil {
		if steps != nil {
			steps.FailStep(step, err)
		}
		// The network died mid-path: escalate to the offline engine
		return o.escalateOffline(query, entities, intent)
	}
	if steps != nil {
		steps.CompleteStep(step, map[string]interface{}{"type": tool.Type, "confidence": tool.Confidence})
	}

	message := tool.Message
	if message == "" {
		if steps != nil {
			step = steps.StartStep(logger.ComponentSynthesizer, "synthesize response", nil)
		}
		language := query.Context.Language
		message, err = o.synthesizer.Synthesize(ctx, query.Text, tool, entities, language)
		if err != nil {
			if steps != nil {
				steps.FailStep(step, err)
			}
			if o.offline != nil {
				offline := o.offline.GetAnswer(query.Text)
				if offline.Confidence > offlinePreferenceThreshold {
					return finalFromTool(offline, entities, intent, models.ModeOfflineFallback, offline.Message)
				}
			}
			message = o.synthesizer.FallbackMessage(tool)
		} else if steps != nil {
			steps.CompleteStep(step, nil)
		}
	}

	return finalFromTool(tool, entities, intent, models.ModeOnline, message)
}

// escalateOffline is the online-path exit taken when a model call fails
// with no tool data to fall back on.
func (o *Orchestrator) escalateOffline(query *models.Query, entities models.Entities, intent models.Intent) models.FinalResponse {
	if o.offline != nil {
		result := o.offline.GetAnswer(query.Text)
		return finalFromTool(result, entities, intent, models.ModeOfflineFallback, result.Message)
	}

	return models.FinalResponse{
		Type:       "general",
		Summary:    "कृषि सहायता",
		Details:    map[string]interface{}{"query": query.Text},
		Advisory:   GenericAdvisory,
		Confidence: 0,
		Source:     "KrishiMitra",
		Message:    "कृपया अपना प्रश्न दोबारा पूछें। Please ask your question again.",
		Entities:   entities,
		Intent:     intent,
		Mode:       models.ModeOfflineFallback,
	}
}

func (o *Orchestrator) conversationalReply(query string) string {
	return offline.HandleConversational(query)
}

func noInternetResponse(detail string) models.FinalResponse {
	return models.FinalResponse{
		Type:       "error",
		Summary:    "No internet connection",
		Details:    map[string]interface{}{"error": detail},
		Advisory:   []string{"Please check your internet connection", "Connect to WiFi or mobile data"},
		Confidence: 0,
		Source:     "KrishiMitra",
		Message:    noInternetMessage,
		Entities:   models.Entities{},
		Intent:     models.IntentError,
		Mode:       models.ModeOffline,
	}
}

func conversationalResponse(reply, source string, mode models.ResponseMode) models.FinalResponse {
	return models.FinalResponse{
		Type:       "conversational",
		Summary:    "Greeting",
		Details:    map[string]interface{}{},
		Advisory:   []string{},
		Confidence: 1.0,
		Source:     source,
		Message:    reply,
		Entities:   models.Entities{},
		Intent:     models.IntentConversational,
		Mode:       mode,
	}
}

// finalFromTool assembles the invariant FinalResponse from a ToolResult.
// Advisory passes the cleaner one last time; every field is populated.
func finalFromTool(tool models.ToolResult, entities models.Entities, intent models.Intent, mode models.ResponseMode, message string) models.FinalResponse {
	details := tool.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	resultType := tool.Type
	if resultType == "" {
		resultType = "general"
	}
	source := tool.Source
	if source == "" {
		source = "KrishiMitra"
	}
	if message == "" {
		message = helplineMessage
	}

	return models.FinalResponse{
		Type:       resultType,
		Summary:    tool.Summary,
		Details:    details,
		Advisory:   CleanAdvisory(tool.Advisory),
		Confidence: tool.Confidence,
		Source:     source,
		Message:    message,
		Entities:   entities,
		Intent:     intent,
		Mode:       mode,
	}
}
