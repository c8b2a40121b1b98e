package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/sitewright/sitewright/agents/aider"
	agent_contracts "github.com/sitewright/sitewright/agents/contracts"
	"github.com/sitewright/sitewright/agents/models"
	site_contracts "github.com/sitewright/sitewright/site_analyzer/contracts"
	"github.com/sitewright/sitewright/utils"
)

// DefaultMaxOutputLength bounds the user-facing output when no limit is
// configured.
const DefaultMaxOutputLength = 3000

// Runner carries one request through the full pipeline: discover the site's
// files, fingerprint the repository, invoke the coding agent, fingerprint
// again, and reduce the raw output into a bounded user-facing result. Every
// request produces exactly one result; failures are folded into the result
// instead of escaping to the caller.
type Runner struct {
	analyzer        site_contracts.ISiteAnalyzer
	agent           agent_contracts.ICodingAgent
	git             *utils.GitOperations
	maxOutputLength int

	// mu serializes runs: the agent mutates the working tree, so two
	// concurrent invocations against the same site would race on both the
	// files and the revision fingerprints.
	mu sync.Mutex
}

// NewRunner wires the pipeline stages together.
func NewRunner(analyzer site_contracts.ISiteAnalyzer, agent agent_contracts.ICodingAgent, git *utils.GitOperations, maxOutputLength int) *Runner {
	if maxOutputLength <= 0 {
		maxOutputLength = DefaultMaxOutputLength
	}
	return &Runner{
		analyzer:        analyzer,
		agent:           agent,
		git:             git,
		maxOutputLength: maxOutputLength,
	}
}

// Run executes one invocation end to end and always returns a well-formed
// result, even when a pipeline stage panics.
func (r *Runner) Run(ctx context.Context, request *models.InvocationRequest) (result models.InvocationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = models.InvocationResult{UserOutput: fmt.Sprintf("Error running aider: %v", rec)}
		}
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	fileSet, err := r.analyzer.DiscoverWebFiles(request.RootDirectory)
	if err != nil {
		return models.InvocationResult{UserOutput: fmt.Sprintf("Error running aider: %v", err)}
	}

	if fileSet.IsEmpty() {
		return models.InvocationResult{UserOutput: fmt.Sprintf("No HTML, JS, or CSS files found in %s", fileSet.TargetDir)}
	}

	before := r.git.HeadRevision(ctx, request.RootDirectory)

	output, err := r.agent.Invoke(ctx, request, fileSet)
	if err != nil {
		return models.InvocationResult{UserOutput: fmt.Sprintf("Error running aider: %v", err)}
	}

	if output.TimedOut {
		return models.InvocationResult{}
	}

	after := r.git.HeadRevision(ctx, request.RootDirectory)
	fileChanged := utils.RevisionChanged(before, after)

	return models.InvocationResult{
		UserOutput:  aider.Reduce(output.Raw, fileChanged, r.maxOutputLength),
		FileChanged: fileChanged,
		RawOutput:   aider.TruncateOutput(output.Raw, r.maxOutputLength),
	}
}
