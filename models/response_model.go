// Why this file: ./models/response_model.go
// This defines the two interchange shapes of the pipeline: ToolResult, the
// normalized record every tool and knowledge source returns before synthesis,
// and FinalResponse, the schema-stable contract returned to callers. The
// pipeline must never emit a partial FinalResponse, even on total failure.
package models

// ResponseMode indicates which path produced the answer.
type ResponseMode string

const (
	ModeOnline          ResponseMode = "online"
	ModeOffline         ResponseMode = "offline"
	ModeOfflineFallback ResponseMode = "offline_fallback"
)

// ToolResult is the normalized record returned by every tool and
// knowledge source. A confidence of 0 means the call failed and the
// summary/advisory must describe the failure in user-safe language.
type ToolResult struct {
	Type       string                 `json:"type"`
	Summary    string                 `json:"summary"`
	Details    map[string]interface{} `json:"details"`
	Advisory   []string               `json:"advisory"`
	Confidence float64                `json:"confidence"`
	Source     string                 `json:"source"`

	// Message, when set, is a pre-rendered natural-language answer that
	// the synthesizer passes through instead of calling the model again.
	Message string `json:"message,omitempty"`

	// Knowledge holds best-effort retrieval context layered onto a tool
	// result. Its absence never fails a dispatch.
	Knowledge string `json:"knowledge,omitempty"`
}

// Failed reports whether the underlying collaborator call failed.
func (t *ToolResult) Failed() bool {
	return t.Confidence == 0
}

// FinalResponse is the contract returned to callers. Every field is
// always present, even on total failure.
type FinalResponse struct {
	Type       string                 `json:"type"`
	Summary    string                 `json:"summary"`
	Details    map[string]interface{} `json:"details"`
	Advisory   []string               `json:"advisory"`
	Confidence float64                `json:"confidence"`
	Source     string                 `json:"source"`
	Message    string                 `json:"message"`
	Entities   Entities               `json:"entities"`
	Intent     Intent                 `json:"intent"`
	Mode       ResponseMode           `json:"mode"`
}
