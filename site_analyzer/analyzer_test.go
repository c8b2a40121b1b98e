package site_analyzer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir string, name string, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDiscoverWebFiles_MissingRoot(t *testing.T) {
	analyzer := NewSiteAnalyzer(false)

	_, err := analyzer.DiscoverWebFiles(filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDirectoryNotFound))
}

func TestDiscoverWebFiles_EmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	analyzer := NewSiteAnalyzer(false)

	fileSet, err := analyzer.DiscoverWebFiles(dir)

	require.NoError(t, err)
	assert.True(t, fileSet.IsEmpty())
	assert.Equal(t, dir, fileSet.TargetDir)
}

func TestDiscoverWebFiles_FlatSite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, "styles.css", "body {}")
	writeFile(t, dir, "app.js", "console.log('hi')")
	writeFile(t, dir, "notes.txt", "not a web file")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, fileSet.TargetDir)
	assert.Equal(t, []string{"app.js", "index.html", "styles.css"}, fileSet.Files)
}

func TestDiscoverWebFiles_UppercaseExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "INDEX.HTML", "<html></html>")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"INDEX.HTML"}, fileSet.Files)
}

func TestDiscoverWebFiles_SiteSubdirectoryBecomesTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, filepath.Join("site", "index.html"), "<html></html>")
	writeFile(t, dir, filepath.Join("site", "css", "styles.css"), "body {}")
	writeFile(t, dir, filepath.Join("assets", "app.js"), "console.log('hi')")
	// Loose files in the root are not part of the site when a site
	// directory exists.
	writeFile(t, dir, "main.css", "body {}")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "site"), fileSet.TargetDir)
	assert.Equal(t, []string{"../assets/app.js", "css/styles.css", "index.html"}, fileSet.Files)
}

func TestDiscoverWebFiles_SkipsIgnoredDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, filepath.Join("node_modules", "pkg", "vendor.js"), "x")
	writeFile(t, dir, filepath.Join(".git", "hooks", "hook.js"), "x")
	writeFile(t, dir, filepath.Join("dist", "bundle.js"), "x")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, fileSet.Files)
}

func TestDiscoverWebFiles_HonorsIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".sitewright-ignore", "# generated assets\nvendor.js\nlegacy/\n")
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, "vendor.js", "x")
	writeFile(t, dir, filepath.Join("legacy", "old.html"), "<html></html>")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)

	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, fileSet.Files)
}

func TestBuildSiteContext_FullMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html><body>home</body></html>")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)
	require.NoError(t, err)

	siteContext, err := analyzer.BuildSiteContext(fileSet, "full")

	require.NoError(t, err)
	require.Len(t, siteContext.Files, 1)
	assert.Equal(t, "index.html", siteContext.Files[0].RelativePath)
	assert.Contains(t, siteContext.RawContexts[0], "**File: index.html**")
	assert.Contains(t, siteContext.RawContexts[0], "<body>home</body>")
}

func TestBuildSiteContext_InfoMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "const a = 1\nconst b = 2\nconsole.log(a + b)")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)
	require.NoError(t, err)

	siteContext, err := analyzer.BuildSiteContext(fileSet, "info")

	require.NoError(t, err)
	assert.Contains(t, siteContext.RawContexts[0], "app.js (3 lines)")
}

func TestBuildSiteContext_SummaryMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.js", "function greet() { return 'hi' }\nclass Widget {}\n")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)
	require.NoError(t, err)

	siteContext, err := analyzer.BuildSiteContext(fileSet, "summary")

	require.NoError(t, err)
	outline := siteContext.RawContexts[0]
	assert.Contains(t, outline, "function: greet")
	assert.Contains(t, outline, "class: Widget")
}

func TestBuildSiteContext_MissingFileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "index.html")))

	_, err = analyzer.BuildSiteContext(fileSet, "full")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestGenerateChatPrompt(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")

	analyzer := NewSiteAnalyzer(false)
	fileSet, err := analyzer.DiscoverWebFiles(dir)
	require.NoError(t, err)
	siteContext, err := analyzer.BuildSiteContext(fileSet, "full")
	require.NoError(t, err)

	prompt := analyzer.GenerateChatPrompt("You are a web developer.", siteContext)

	assert.True(t, strings.HasPrefix(prompt, "You are a web developer."))
	assert.Contains(t, prompt, "## Here are the current files of the site")
	assert.Contains(t, prompt, "**File: index.html**")
}
