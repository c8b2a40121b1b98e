package models

// Message represents a role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options tunes generation; NumPredict caps the response length.
type Options struct {
	NumPredict int `json:"num_predict,omitempty"`
}

// OllamaChatCompletionRequest is the request body for the streaming chat
// endpoint.
type OllamaChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Stream      bool      `json:"stream"`
	Temperature *float32  `json:"temperature,omitempty"`
	Options     *Options  `json:"options,omitempty"`
}

// OllamaChatCompletionResponse is one decoded stream chunk. The final chunk
// carries Done plus the token accounting counters.
type OllamaChatCompletionResponse struct {
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
}
