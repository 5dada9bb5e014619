// Why this file: ./internal/pipeline/synthesizer.go
// This turns a ToolResult into the farmer-facing answer. One model call
// with the cleaned summary/advisory and entity context; when the model is
// unreachable the orchestrator falls back to the offline engine and, past
// that, to the deterministic template built here. Raw technical strings
// never reach the model or the farmer - everything passes the cleaner.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/yourusername/krishimitra-assistant/internal/llm"
	"github.com/yourusername/krishimitra-assistant/models"
)

// helplineMessage is the last-resort reply when nothing usable remains.
const helplineMessage = "I can help you with your farming question.\n\n" +
	"Please contact your local Krishi Vigyan Kendra or call the farmer helpline 1800-180-1551 for specific guidance."

// Synthesizer generates the final natural-language answer.
type Synthesizer struct {
	llm LLMClient
}

// NewSynthesizer creates a response synthesizer backed by the given LLM.
func NewSynthesizer(client LLMClient) *Synthesizer {
	return &Synthesizer{llm: client}
}

// Synthesize produces a 100-200 word farmer-facing answer in the
// requested language. Returns an error only when the model call fails;
// the caller owns the fallback chain.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, tool models.ToolResult, entities models.Entities, language string) (string, error) {
	if s.llm == nil {
		return "", fmt.Errorf("no language model configured")
	}

	resp, err := s.llm.Complete(ctx, &llm.CompletionRequest{
		Prompt:      buildSynthesisPrompt(query, tool, entities, language),
		MaxTokens:   400,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// FallbackMessage deterministically concatenates the cleaned summary
// with up to 3 cleaned advisory bullets. When nothing survives
// cleaning, the fixed helpline message is returned.
func (s *Synthesizer) FallbackMessage(tool models.ToolResult) string {
	var parts []string

	if CleanSummary(tool.Summary) {
		parts = append(parts, tool.Summary)
	}

	advisory := CleanAdvisory(tool.Advisory)
	if len(advisory) > 0 {
		parts = append(parts, "\nसुझाव (Suggestions):")
		for i, adv := range advisory[:min(3, len(advisory))] {
			parts = append(parts, fmt.Sprintf("%d. %s", i+1, adv))
		}
	}

	if len(parts) == 0 {
		return helplineMessage
	}
	return strings.Join(parts, "\n")
}

func buildSynthesisPrompt(query string, tool models.ToolResult, entities models.Entities, language string) string {
	langInstruction := "Respond in clear, simple English only. Do NOT use Hindi or Hinglish."
	switch language {
	case "hi":
		langInstruction = "Respond in Hindi (Devanagari script)."
	case "te", "mr", "ta", "kn", "pa", "bn":
		langInstruction = "Respond in simple English with some Hindi words if helpful."
	}

	advisory := CleanAdvisory(tool.Advisory)
	keyPoints := make([]string, 0, 4)
	for _, adv := range advisory[:min(4, len(advisory))] {
		keyPoints = append(keyPoints, "- "+adv)
	}
	if len(keyPoints) == 0 {
		keyPoints = append(keyPoints, "- Provide helpful farming advice")
	}

	// Pass along clean scalar details only; raw data fields stay out of
	// the prompt.
	var cleanInfo strings.Builder
	for key, value := range tool.Details {
		if key == "query" || key == "information" || key == "domain" || key == "error" {
			continue
		}
		switch v := value.(type) {
		case string:
			if cleanText(v) || len(v) < 15 {
				str := v
				if len(str) > 100 {
					str = str[:100]
				}
				if cleanDetailValue(str) {
					fmt.Fprintf(&cleanInfo, "- %s: %s\n", key, str)
				}
			}
		case int, int64, float64:
			fmt.Fprintf(&cleanInfo, "- %s: %v\n", key, v)
		}
	}

	return fmt.Sprintf(`You are KrishiMitra, a helpful agricultural assistant for Indian farmers.

USER QUERY: %s

FARMER'S CONTEXT:
- Crop: %s
- Location: %s
- State: %s

KEY INFORMATION:
- Topic: %s
- Source: %s
%s
KEY POINTS TO COVER:
%s

LANGUAGE INSTRUCTION: %s

TASK: Write a helpful, farmer-friendly response that:
1. Directly answers the farmer's question about "%s"
2. Provides practical, actionable advice
3. Mentions any relevant warnings or precautions
4. Suggests next steps if appropriate

IMPORTANT RULES:
- Do NOT include raw technical data or JSON
- Do NOT mention "tool data", "API", "RAG", or "database"
- Write naturally as if speaking to a farmer
- Keep response between 100-200 words
- Be warm and helpful

RESPONSE:`,
		query,
		orNotSpecified(entities.Crop),
		orNotSpecified(entities.Location),
		orNotSpecified(entities.State),
		tool.Summary,
		tool.Source,
		cleanInfo.String(),
		strings.Join(keyPoints, "\n"),
		langInstruction,
		query,
	)
}

func cleanDetailValue(s string) bool {
	lower := strings.ToLower(s)
	for _, deny := range []string{"kg/ha", "temp [", "_0"} {
		if strings.Contains(lower, deny) {
			return false
		}
	}
	return true
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
