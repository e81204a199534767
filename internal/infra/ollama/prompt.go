package ollama

import (
	"fmt"
	"strings"

	"buddy/internal/domain"
)

// ChatMessage is one turn in the chat request body.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the wire body for a non-streaming chat completion.
type ChatRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

// NewChatRequest renders the instruction prompt for a transcript and
// capability table into a single-message chat request.
func NewChatRequest(model, transcript string, table domain.CapabilityTable) ChatRequest {
	return ChatRequest{
		Model: model,
		Messages: []ChatMessage{
			{Role: "user", Content: BuildPrompt(transcript, table)},
		},
		Stream: false,
	}
}

// BuildPrompt produces the fixed classification instruction. The field
// names and action values it enumerates are a contract with the
// validator: validation trusts this structure, not the model's content.
func BuildPrompt(transcript string, table domain.CapabilityTable) string {
	files := strings.Join(table.FileKeys(), ", ")
	apps := strings.Join(table.AppKeys(), ", ")
	systems := strings.Join(table.SystemActions(), ", ")

	return fmt.Sprintf(`You interpret voice commands for a desktop assistant.
User said: %q
Available files: %s
Available apps: %s
Available system actions: %s
Rules:
- action must be one of: open_file, open_app, system, answer, unknown
- use open_file/open_app/system only when the request matches an available key
- for action=answer, provide a direct response text and set target to null
- if unsure, use action=unknown and target=null
- confidence is a number between 0.0 and 1.0
Examples:
Input: "open my resume" => {"action":"open_file","target":"resume","response":null,"confidence":0.9}
Input: "start chrome" => {"action":"open_app","target":"chrome","response":null,"confidence":0.8}
Input: "turn volume down" => {"action":"system","target":"volume_down","response":null,"confidence":0.8}
Input: "set volume to 30" => {"action":"system","target":"volume_set 30","response":null,"confidence":0.8}
Input: "what is 2+3" => {"action":"answer","target":null,"response":"5","confidence":0.9}
Return JSON only (no markdown, no code fences) with keys action, target, response, confidence.`,
		transcript, files, apps, systems)
}
