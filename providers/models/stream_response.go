package models

// StreamResponse is one chunk of a streaming chat completion. Content carries
// accumulated text, Done marks the end of the stream and Err carries a
// terminal failure.
type StreamResponse struct {
	Content string
	Done    bool
	Err     error
}

// AIError is the error envelope chat APIs return on non-200 responses.
type AIError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
