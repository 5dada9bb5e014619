// Why this file: ./internal/pipeline/dispatcher.go
// This routes a classified query to its tool or knowledge domain and
// normalizes whatever comes back into a ToolResult. No branch propagates
// a raw error past this boundary: failures become zero-confidence results
// with user-safe advisory. The single exception is the general-intent
// direct-LLM path, whose network failure escalates to the offline engine.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/krishimitra-assistant/internal/llm"
	"github.com/yourusername/krishimitra-assistant/internal/rag"
	"github.com/yourusername/krishimitra-assistant/models"
)

// WeatherTool fetches current weather for a location or coordinates.
type WeatherTool interface {
	GetWeather(ctx context.Context, location string, lat, lng *float64, crop string) models.ToolResult
}

// ForecastTool predicts near-term crop prices.
type ForecastTool interface {
	ForecastPrice(ctx context.Context, crop, state string) models.ToolResult
}

// MandiTool fetches current wholesale prices.
type MandiTool interface {
	GetMandiPrice(ctx context.Context, crop, state string) models.ToolResult
}

// DiseaseTool classifies a plant image.
type DiseaseTool interface {
	DetectDisease(ctx context.Context, imagePath, cropType string) models.ToolResult
}

// KnowledgeRetriever searches the domain-partitioned knowledge index.
type KnowledgeRetriever interface {
	RetrieveContext(ctx context.Context, query, domain string, k int) (string, error)
	RetrieveAcrossDomains(ctx context.Context, query string, domains []string, k int) (string, string)
}

const directAnswerPrompt = `As KrishiMitra agricultural assistant, answer this farmer's question:

Question: %s

Provide practical, helpful advice in simple language. Include:
1. Direct answer to the question
2. Step-by-step guidance if applicable
3. Any precautions or warnings
4. Suggest contacting Krishi Vigyan Kendra if needed

Keep response under 200 words.`

// Dispatcher routes intents to tools and knowledge domains.
type Dispatcher struct {
	weather   WeatherTool
	forecast  ForecastTool
	mandi     MandiTool
	disease   DiseaseTool
	retriever KnowledgeRetriever
	llm       LLMClient
	logger    *zap.Logger
}

// NewDispatcher wires the dispatcher. Any collaborator may be nil; its
// branch then degrades instead of panicking.
func NewDispatcher(weather WeatherTool, forecast ForecastTool, mandi MandiTool, disease DiseaseTool, retriever KnowledgeRetriever, client LLMClient, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		weather:   weather,
		forecast:  forecast,
		mandi:     mandi,
		disease:   disease,
		retriever: retriever,
		llm:       client,
		logger:    logger,
	}
}

// Dispatch executes the routing table. The returned error is non-nil
// only when the general-intent direct model call failed and the query
// should escalate to the offline engine.
func (d *Dispatcher) Dispatch(ctx context.Context, intent models.Intent, entities models.Entities, query *models.Query) (models.ToolResult, error) {
	switch intent {
	case models.IntentDisease:
		return d.dispatchDisease(ctx, entities, query), nil
	case models.IntentWeather:
		return d.dispatchWeather(ctx, entities, query), nil
	case models.IntentMarketForecast:
		return d.dispatchForecast(ctx, entities), nil
	case models.IntentMandiPrice:
		return d.dispatchMandi(ctx, entities), nil
	case models.IntentSoil:
		return d.dispatchSoil(ctx, query.Text), nil
	case models.IntentScheme:
		return d.dispatchScheme(ctx, query.Text), nil
	default:
		return d.dispatchGeneral(ctx, query.Text)
	}
}

func (d *Dispatcher) dispatchDisease(ctx context.Context, entities models.Entities, query *models.Query) models.ToolResult {
	if !query.HasImage() {
		// No external call without an image: ask for one instead
		return models.ToolResult{
			Type:    "disease",
			Summary: "कृपया पौधे की तस्वीर अपलोड करें (Please upload plant image)",
			Details: map[string]interface{}{
				"error":        "No image provided",
				"instructions": "Take a clear photo of the affected leaf",
			},
			Advisory: []string{
				"प्रभावित पत्ती की साफ फोटो लें",
				"अच्छी रोशनी में फोटो खींचें",
				"15-20 सेमी दूरी से फोटो लें",
				"Please upload a clear photo of the affected plant leaf",
			},
			Confidence: 0,
			Source:     "ML Disease Detection Model",
		}
	}

	crop := entities.Crop
	if crop == "" {
		crop = "unknown"
	}

	result := d.callDisease(ctx, query.ImagePath, strings.ToLower(crop))

	// Best-effort treatment knowledge for confident detections
	if result.Confidence > 0.5 && d.retriever != nil {
		if disease, ok := result.Details["disease"].(string); ok && disease != "" {
			text, err := d.retriever.RetrieveContext(ctx,
				fmt.Sprintf("treatment for %s in %s", disease, crop), rag.DomainPestDisease, 2)
			if err == nil && text != "" {
				result.Knowledge = truncate(text, 500)
			}
		}
	}
	return result
}

func (d *Dispatcher) callDisease(ctx context.Context, imagePath, crop string) models.ToolResult {
	if d.disease == nil {
		return degradedResult("disease", "Disease detection is not available right now")
	}
	return d.disease.DetectDisease(ctx, imagePath, crop)
}

func (d *Dispatcher) dispatchWeather(ctx context.Context, entities models.Entities, query *models.Query) models.ToolResult {
	if d.weather == nil {
		return degradedResult("weather", "Weather service is not available right now")
	}

	var result models.ToolResult
	if query.Context.HasCoordinates() {
		result = d.weather.GetWeather(ctx, "", query.Context.Lat, query.Context.Lng, entities.Crop)
	} else {
		location := entities.Location
		if location == "" {
			location = DefaultLocation
		}
		result = d.weather.GetWeather(ctx, location, nil, nil, entities.Crop)
	}

	// Best-effort seasonal advisory for the reported condition
	if d.retriever != nil {
		condition := "normal"
		if c, ok := result.Details["condition"].(string); ok && c != "" {
			condition = c
		}
		text, err := d.retriever.RetrieveContext(ctx,
			fmt.Sprintf("farming activities during %s weather", condition), rag.DomainWeatherAdvisory, 2)
		if err == nil && text != "" {
			result.Knowledge = truncate(text, 400)
		}
	}
	return result
}

func (d *Dispatcher) dispatchForecast(ctx context.Context, entities models.Entities) models.ToolResult {
	if d.forecast == nil {
		return degradedResult("market", "Price forecast service is not available right now")
	}

	crop, state := entities.Crop, entities.State
	if crop == "" {
		crop = "Potato"
	}
	if state == "" {
		state = DefaultState
	}
	result := d.forecast.ForecastPrice(ctx, crop, state)

	if d.retriever != nil {
		text, err := d.retriever.RetrieveContext(ctx,
			fmt.Sprintf("market trends and selling tips for %s", crop), rag.DomainMarketKnowledge, 2)
		if err == nil && text != "" {
			result.Knowledge = truncate(text, 400)
		}
	}
	return result
}

func (d *Dispatcher) dispatchMandi(ctx context.Context, entities models.Entities) models.ToolResult {
	if d.mandi == nil {
		return degradedResult("market", "Mandi price service is not available right now")
	}

	crop, state := entities.Crop, entities.State
	if crop == "" {
		crop = "Potato"
	}
	if state == "" {
		state = DefaultState
	}
	return d.mandi.GetMandiPrice(ctx, crop, state)
}

func (d *Dispatcher) dispatchSoil(ctx context.Context, query string) models.ToolResult {
	if d.retriever != nil {
		text, _ := d.retriever.RetrieveAcrossDomains(ctx, query, rag.DomainsForIntent[models.IntentSoil], 3)
		if text != "" {
			return models.ToolResult{
				Type:    "soil",
				Summary: "मिट्टी और उर्वरक संबंधी जानकारी",
				Details: map[string]interface{}{
					"query":       query,
					"information": truncate(text, 600),
				},
				Advisory:   advisoryLines(text, []string{"मिट्टी की जांच कराएं", "संतुलित उर्वरक का प्रयोग करें", "जैविक खाद का उपयोग करें"}),
				Confidence: 0.8,
				Source:     "Agricultural Knowledge Base (RAG)",
			}
		}
	}

	return models.ToolResult{
		Type:    "soil",
		Summary: "Soil and fertilizer guidance",
		Details: map[string]interface{}{"query": query},
		Advisory: []string{
			"Get soil tested at nearest Krishi Vigyan Kendra",
			"Apply balanced NPK based on soil test report",
			"Add organic manure like FYM or compost",
			"Maintain soil pH between 6.0-7.5",
		},
		Confidence: 0.6,
		Source:     "General Agricultural Guidelines",
	}
}

func (d *Dispatcher) dispatchScheme(ctx context.Context, query string) models.ToolResult {
	if d.retriever != nil {
		text, _ := d.retriever.RetrieveAcrossDomains(ctx, query, rag.DomainsForIntent[models.IntentScheme], 4)
		if text != "" {
			return models.ToolResult{
				Type:    "scheme",
				Summary: "सरकारी योजनाओं की जानकारी",
				Details: map[string]interface{}{
					"query":       query,
					"information": truncate(text, 800),
				},
				Advisory:   advisoryLines(text, nil),
				Confidence: 0.85,
				Source:     "Government Schemes Database (RAG)",
			}
		}
	}

	return models.ToolResult{
		Type:    "scheme",
		Summary: "Government schemes information",
		Details: map[string]interface{}{"query": query},
		Advisory: []string{
			"PM-KISAN: ₹6000 annual direct benefit",
			"PMFBY: Crop insurance scheme",
			"KCC: Kisan Credit Card for loans",
			"Visit https://pmkisan.gov.in for registration",
			"Call 1800-180-1551 for helpline",
		},
		Confidence: 0.7,
		Source:     "Government Agricultural Schemes",
	}
}

// dispatchGeneral handles crop_advice and general: walk the general
// knowledge domains, and when none has usable text, make one direct
// model call. A failed direct call escalates to the offline engine.
func (d *Dispatcher) dispatchGeneral(ctx context.Context, query string) (models.ToolResult, error) {
	if d.retriever != nil {
		text, domain := d.retriever.RetrieveAcrossDomains(ctx, query, rag.DomainsForIntent[models.IntentGeneral], 3)
		if text != "" {
			d.logger.Debug("knowledge domain matched", zap.String("domain", domain))
			advisory := advisoryLines(text, []string{
				"Consult local agricultural extension officer",
				"Follow recommended practices for your region",
			})
			return models.ToolResult{
				Type:    "crop_advice",
				Summary: "कृषि संबंधी जानकारी",
				Details: map[string]interface{}{
					"query":       query,
					"information": truncate(text, 700),
					"domain":      domain,
				},
				Advisory:   advisory,
				Confidence: 0.75,
				Source:     "Agricultural Knowledge Base (RAG)",
			}, nil
		}
	}

	if d.llm == nil {
		return degradedResult("general", "कृपया अपना प्रश्न दोबारा पूछें। Please ask your question again."), nil
	}

	resp, err := d.llm.Complete(ctx, &llm.CompletionRequest{
		Prompt:      fmt.Sprintf(directAnswerPrompt, query),
		MaxTokens:   400,
		Temperature: 0.4,
	})
	if err != nil {
		return models.ToolResult{}, fmt.Errorf("direct answer failed: %w", err)
	}

	return models.ToolResult{
		Type:    "general",
		Summary: "कृषि सहायता",
		Details: map[string]interface{}{"query": query},
		Advisory: []string{
			"Visit nearest Krishi Vigyan Kendra for detailed guidance",
			"Call farmer helpline: 1800-180-1551 (toll-free)",
			"Use Kisan Suvidha mobile app",
		},
		Confidence: 0.6,
		Source:     "KrishiMitra AI Assistant",
		Message:    strings.TrimSpace(resp.Content),
	}, nil
}

// advisoryLines derives advisory bullets from retrieved text: non-trivial
// lines longer than 20 characters, capped at 5 and 200 chars each.
func advisoryLines(text string, fallback []string) []string {
	var advisory []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || len(line) <= 20 {
			continue
		}
		advisory = append(advisory, truncate(line, 200))
		if len(advisory) >= 5 {
			break
		}
	}
	if len(advisory) == 0 {
		return fallback
	}
	return advisory
}

func degradedResult(resultType, summary string) models.ToolResult {
	return models.ToolResult{
		Type:       resultType,
		Summary:    summary,
		Details:    map[string]interface{}{},
		Advisory:   GenericAdvisory,
		Confidence: 0,
		Source:     "KrishiMitra",
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
