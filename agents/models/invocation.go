package models

import "time"

// InvocationRequest describes one request against the external coding agent.
// It is constructed by the caller and never mutated by the pipeline.
type InvocationRequest struct {
	RootDirectory         string
	SystemMessage         string
	UserMessage           string
	Model                 string
	WeakModel             string
	EditorModel           string
	CachePrompts          bool
	CacheKeepAliveSeconds int
}

// AgentOutput carries everything captured from one agent process run. Raw is
// the agent's standard output; Stderr is kept separately for diagnostics and
// never reaches the user-facing reduction.
type AgentOutput struct {
	Raw      string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// InvocationResult is the single structured record produced for every
// InvocationRequest. UserOutput and RawOutput are bounded by the configured
// maximum output length; RawOutput retains the truncated agent output as the
// diff payload.
type InvocationResult struct {
	UserOutput  string `json:"userOutput"`
	FileChanged bool   `json:"fileChanged"`
	RawOutput   string `json:"rawOutput,omitempty"`
}
