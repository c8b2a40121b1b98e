package aider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/sitewright/sitewright/agents/contracts"
	"github.com/sitewright/sitewright/agents/models"
	site_models "github.com/sitewright/sitewright/site_analyzer/models"
)

const (
	// defaultCommand is the aider executable resolved through PATH.
	defaultCommand = "aider"

	// defaultTimeout bounds one agent run when no timeout is configured.
	defaultTimeout = 5 * time.Minute

	// maxCaptureBytes caps the output captured per stream so a runaway
	// agent cannot exhaust memory.
	maxCaptureBytes = 1 << 20

	// cacheKeepAlivePingInterval is how long one keep-alive ping holds the
	// provider-side prompt cache warm.
	cacheKeepAlivePingInterval = 5 * time.Minute
)

// AiderConfig holds the settings of the aider process adapter.
type AiderConfig struct {
	Command string
	Timeout time.Duration
	ApiKey  string
}

// AiderAgent drives the aider CLI as the external coding agent.
type AiderAgent struct {
	config *AiderConfig
}

// NewAiderAgent initializes the aider adapter.
func NewAiderAgent(config *AiderConfig) contracts.ICodingAgent {
	if config.Command == "" {
		config.Command = defaultCommand
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	return &AiderAgent{config: config}
}

// BuildArgs assembles the bounded argument list for one invocation: the model
// identifiers, the combined system/user message, the automation flags, and
// one --file reference per discovered file, relative to the target directory.
func BuildArgs(request *models.InvocationRequest, fileSet *site_models.FileSet) []string {
	args := []string{"--model", request.Model}

	if request.WeakModel != "" {
		args = append(args, "--weak-model", request.WeakModel)
	}
	if request.EditorModel != "" {
		args = append(args, "--editor-model", request.EditorModel)
	}

	fullMessage := fmt.Sprintf("System: %s\n\nUser: %s", request.SystemMessage, request.UserMessage)
	args = append(args, "--message", fullMessage)

	args = append(args, "--yes", "--no-pretty", "--no-detect-urls")

	if request.CachePrompts {
		pings := keepAlivePings(request.CacheKeepAliveSeconds)
		args = append(args, "--cache-prompts", "--cache-keepalive-pings", strconv.Itoa(pings))
	}

	for _, file := range fileSet.Files {
		args = append(args, "--file", file)
	}

	return args
}

// keepAlivePings converts the requested keep-alive duration into aider's ping
// count. One ping holds the cache for five minutes, so any positive
// keep-alive needs at least one ping.
func keepAlivePings(seconds int) int {
	interval := int(cacheKeepAlivePingInterval.Seconds())
	pings := (seconds + interval - 1) / interval
	if pings < 1 {
		pings = 1
	}
	return pings
}

// Invoke runs aider synchronously inside the file set's target directory and
// captures everything it prints; nothing reaches the parent's streams. A run
// that exceeds the configured timeout is killed and reported with TimedOut
// set. A non-zero exit with captured output is not an error: aider
// legitimately exits non-zero on some conversational turns, and the caller
// decides the outcome from the repository state, never from the exit code.
func (agent *AiderAgent) Invoke(ctx context.Context, request *models.InvocationRequest, fileSet *site_models.FileSet) (*models.AgentOutput, error) {
	runCtx, cancel := context.WithTimeout(ctx, agent.config.Timeout)
	defer cancel()

	stdout := &boundedBuffer{limit: maxCaptureBytes}
	stderr := &boundedBuffer{limit: maxCaptureBytes}

	// The child runs with the target directory as its working directory so
	// the --file references resolve; the parent's working directory is
	// never touched.
	cmd := exec.CommandContext(runCtx, agent.config.Command, BuildArgs(request, fileSet)...)
	cmd.Dir = fileSet.TargetDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if agent.config.ApiKey != "" {
		cmd.Env = append(os.Environ(), "OPENAI_API_KEY="+agent.config.ApiKey)
	}

	started := time.Now()
	err := cmd.Run()
	duration := time.Since(started)

	if runCtx.Err() != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return &models.AgentOutput{TimedOut: true, Duration: duration}, nil
		}
		return nil, runCtx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &models.AgentOutput{
				Raw:      stdout.String(),
				Stderr:   stderr.String(),
				ExitCode: exitErr.ExitCode(),
				Duration: duration,
			}, nil
		}
		return nil, fmt.Errorf("failed to run %s: %w", agent.config.Command, err)
	}

	return &models.AgentOutput{
		Raw:      stdout.String(),
		Stderr:   stderr.String(),
		Duration: duration,
	}, nil
}

// boundedBuffer collects process output up to a fixed limit and appends a
// truncation marker once the limit is hit.
type boundedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + "\n[... output truncated: limit reached ...]"
	}
	return b.buf.String()
}
