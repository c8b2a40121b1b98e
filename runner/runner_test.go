package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sitewright/sitewright/agents/aider"
	"github.com/sitewright/sitewright/agents/models"
	"github.com/sitewright/sitewright/site_analyzer"
	site_models "github.com/sitewright/sitewright/site_analyzer/models"
	"github.com/sitewright/sitewright/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stubRawOutput = `───────────────────────────────
Aider v0.82.0
Main model: gpt-5 with diff edit format
Weak model: gpt-4o-mini
Git repo: .git with 3 files
Repo-map: using 1024 tokens
Added index.html to the chat.

I added a footer with your contact details to index.html.

Tokens: 4.2k sent, 120 received. Cost: $0.01 message.
`

type stubAgent struct {
	output   *models.AgentOutput
	err      error
	invoked  bool
	onInvoke func(fileSet *site_models.FileSet)
}

func (s *stubAgent) Invoke(ctx context.Context, request *models.InvocationRequest, fileSet *site_models.FileSet) (*models.AgentOutput, error) {
	s.invoked = true
	if s.onInvoke != nil {
		s.onInvoke(fileSet)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.output, nil
}

func newTestRunner(agent *stubAgent, maxOutputLength int) *Runner {
	return NewRunner(site_analyzer.NewSiteAnalyzer(false), agent, utils.NewGitOperations(), maxOutputLength)
}

func writeSiteFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	base := []string{"-C", dir, "-c", "user.email=dev@example.com", "-c", "user.name=dev"}
	out, err := exec.Command("git", append(base, args...)...).CombinedOutput()
	require.NoError(t, err, string(out))
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
}

func TestRun_MissingDirectory(t *testing.T) {
	agent := &stubAgent{}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{
		RootDirectory: filepath.Join(t.TempDir(), "does-not-exist"),
	})

	assert.Contains(t, result.UserOutput, "Error running aider:")
	assert.False(t, result.FileChanged)
	assert.False(t, agent.invoked)
}

func TestRun_NoWebFilesFound(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "notes.txt", "not a web file")

	agent := &stubAgent{}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.Equal(t, "No HTML, JS, or CSS files found in "+dir, result.UserOutput)
	assert.False(t, result.FileChanged)
	assert.False(t, agent.invoked)
}

func TestRun_NoVersionControlReportsConversation(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")

	agent := &stubAgent{output: &models.AgentOutput{Raw: stubRawOutput}}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.True(t, agent.invoked)
	assert.False(t, result.FileChanged)
	assert.Equal(t, "I added a footer with your contact details to index.html.", result.UserOutput)
}

func TestRun_CommitMarksFileChanged(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")
	runGit(t, dir, "init")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial site")

	agent := &stubAgent{
		output: &models.AgentOutput{Raw: stubRawOutput},
		onInvoke: func(fileSet *site_models.FileSet) {
			writeSiteFile(t, dir, "index.html", "<html><footer>contact</footer></html>")
			runGit(t, dir, "add", ".")
			runGit(t, dir, "commit", "-m", "add footer")
		},
	}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.True(t, result.FileChanged)
	assert.Equal(t, aider.ChangesAppliedMessage, result.UserOutput)
	assert.Contains(t, result.RawOutput, "I added a footer")
}

func TestRun_NoCommitMeansNoChange(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")
	runGit(t, dir, "init")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial site")

	agent := &stubAgent{output: &models.AgentOutput{Raw: stubRawOutput}}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.False(t, result.FileChanged)
	assert.Equal(t, "I added a footer with your contact details to index.html.", result.UserOutput)
}

func TestRun_TimeoutYieldsEmptyResult(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")

	agent := &stubAgent{output: &models.AgentOutput{TimedOut: true}}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.Equal(t, models.InvocationResult{}, result)
}

func TestRun_AgentErrorFoldedIntoResult(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")

	agent := &stubAgent{err: errors.New("spawn failed")}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.Equal(t, "Error running aider: spawn failed", result.UserOutput)
	assert.False(t, result.FileChanged)
}

func TestRun_RecoversFromPanic(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")

	agent := &stubAgent{
		onInvoke: func(fileSet *site_models.FileSet) {
			panic("stage blew up")
		},
	}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.Equal(t, "Error running aider: stage blew up", result.UserOutput)
	assert.False(t, result.FileChanged)
}

func TestRun_PreambleOnlyOutputFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")

	agent := &stubAgent{output: &models.AgentOutput{Raw: "Aider v0.82.0\nMain model: gpt-5\n"}}
	r := newTestRunner(agent, 0)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.Equal(t, aider.FallbackGreeting, result.UserOutput)
}

func TestRun_SiteSubdirectoryWithSiblingAssets(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, filepath.Join("site", "index.html"), "<html></html>")
	writeSiteFile(t, dir, filepath.Join("assets", "app.js"), "console.log('hi')")

	var captured *site_models.FileSet
	agent := &stubAgent{
		output:   &models.AgentOutput{Raw: stubRawOutput},
		onInvoke: func(fileSet *site_models.FileSet) { captured = fileSet },
	}
	r := newTestRunner(agent, 0)

	r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	require.NotNil(t, captured)
	assert.Equal(t, filepath.Join(dir, "site"), captured.TargetDir)
	assert.Equal(t, []string{"../assets/app.js", "index.html"}, captured.Files)
}

func TestRun_TruncatesLongOutput(t *testing.T) {
	dir := t.TempDir()
	writeSiteFile(t, dir, "index.html", "<html></html>")

	agent := &stubAgent{output: &models.AgentOutput{Raw: strings.Repeat("x", 500)}}
	r := newTestRunner(agent, 60)

	result := r.Run(context.Background(), &models.InvocationRequest{RootDirectory: dir})

	assert.Equal(t, strings.Repeat("x", 60)+aider.TruncationMarker, result.UserOutput)
	assert.Equal(t, strings.Repeat("x", 60)+aider.TruncationMarker, result.RawOutput)
}
