package aider

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sitewright/sitewright/agents/models"
	site_models "github.com/sitewright/sitewright/site_analyzer/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFileSet(t *testing.T, files ...string) *site_models.FileSet {
	t.Helper()
	dir := t.TempDir()
	return &site_models.FileSet{
		RootDir:   dir,
		TargetDir: dir,
		Files:     files,
	}
}

// writeScript creates an executable shell script for exercising the process
// handling without a real aider installation.
func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-agent.sh")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+content), 0755)
	require.NoError(t, err)
	return path
}

func TestBuildArgs_CombinedMessageAndAutomationFlags(t *testing.T) {
	request := &models.InvocationRequest{
		Model:         "gpt-5",
		SystemMessage: "You are a web developer",
		UserMessage:   "Add a footer",
	}
	fileSet := testFileSet(t, "index.html", "app.js")

	args := BuildArgs(request, fileSet)

	assert.Equal(t, []string{
		"--model", "gpt-5",
		"--message", "System: You are a web developer\n\nUser: Add a footer",
		"--yes", "--no-pretty", "--no-detect-urls",
		"--file", "index.html",
		"--file", "app.js",
	}, args)
}

func TestBuildArgs_OptionalModelIdentifiers(t *testing.T) {
	request := &models.InvocationRequest{
		Model:       "gpt-5",
		WeakModel:   "gpt-4o-mini",
		EditorModel: "gpt-4o",
	}

	args := BuildArgs(request, testFileSet(t))

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--weak-model gpt-4o-mini")
	assert.Contains(t, joined, "--editor-model gpt-4o")
}

func TestBuildArgs_CacheKeepAlivePings(t *testing.T) {
	fileSet := testFileSet(t)

	request := &models.InvocationRequest{Model: "gpt-5", CachePrompts: true, CacheKeepAliveSeconds: 300}
	joined := strings.Join(BuildArgs(request, fileSet), " ")
	assert.Contains(t, joined, "--cache-prompts")
	assert.Contains(t, joined, "--cache-keepalive-pings 1")

	request.CacheKeepAliveSeconds = 900
	joined = strings.Join(BuildArgs(request, fileSet), " ")
	assert.Contains(t, joined, "--cache-keepalive-pings 3")

	// Any positive keep-alive needs at least one ping.
	request.CacheKeepAliveSeconds = 0
	joined = strings.Join(BuildArgs(request, fileSet), " ")
	assert.Contains(t, joined, "--cache-keepalive-pings 1")

	request.CachePrompts = false
	joined = strings.Join(BuildArgs(request, fileSet), " ")
	assert.NotContains(t, joined, "--cache-prompts")
}

func TestAiderAgent_Invoke_CapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	script := writeScript(t, `echo "conversational reply"
echo "diagnostic noise" >&2`)
	agent := NewAiderAgent(&AiderConfig{Command: script, Timeout: 30 * time.Second})

	output, err := agent.Invoke(context.Background(), &models.InvocationRequest{Model: "gpt-5"}, testFileSet(t, "index.html"))

	require.NoError(t, err)
	assert.False(t, output.TimedOut)
	assert.Equal(t, 0, output.ExitCode)
	assert.Contains(t, output.Raw, "conversational reply")
	assert.Contains(t, output.Stderr, "diagnostic noise")
}

func TestAiderAgent_Invoke_RunsInTargetDirectory(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	script := writeScript(t, "pwd")
	agent := NewAiderAgent(&AiderConfig{Command: script, Timeout: 30 * time.Second})
	fileSet := testFileSet(t, "index.html")

	output, err := agent.Invoke(context.Background(), &models.InvocationRequest{Model: "gpt-5"}, fileSet)

	require.NoError(t, err)

	// Resolve both sides: on some systems TempDir goes through a symlink.
	reported, err := filepath.EvalSymlinks(strings.TrimSpace(output.Raw))
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(fileSet.TargetDir)
	require.NoError(t, err)
	assert.Equal(t, expected, reported)
}

func TestAiderAgent_Invoke_ToleratesNonZeroExit(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	script := writeScript(t, `echo "partial reply"
exit 2`)
	agent := NewAiderAgent(&AiderConfig{Command: script, Timeout: 30 * time.Second})

	output, err := agent.Invoke(context.Background(), &models.InvocationRequest{Model: "gpt-5"}, testFileSet(t))

	require.NoError(t, err)
	assert.Equal(t, 2, output.ExitCode)
	assert.Contains(t, output.Raw, "partial reply")
}

func TestAiderAgent_Invoke_TimeoutKillsProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixtures require a POSIX shell")
	}

	script := writeScript(t, "sleep 30")
	agent := NewAiderAgent(&AiderConfig{Command: script, Timeout: 200 * time.Millisecond})

	started := time.Now()
	output, err := agent.Invoke(context.Background(), &models.InvocationRequest{Model: "gpt-5"}, testFileSet(t))

	require.NoError(t, err)
	assert.True(t, output.TimedOut)
	assert.Empty(t, output.Raw)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestAiderAgent_Invoke_CommandNotFound(t *testing.T) {
	agent := NewAiderAgent(&AiderConfig{Command: "sitewright-no-such-agent-binary", Timeout: time.Second})

	output, err := agent.Invoke(context.Background(), &models.InvocationRequest{Model: "gpt-5"}, testFileSet(t))

	assert.Error(t, err)
	assert.Nil(t, output)
}

func TestBoundedBuffer_TruncatesPastLimit(t *testing.T) {
	buffer := &boundedBuffer{limit: 10}

	n, err := buffer.Write([]byte("0123456789ABCDEF"))

	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.True(t, strings.HasPrefix(buffer.String(), "0123456789"))
	assert.Contains(t, buffer.String(), "output truncated")
}
