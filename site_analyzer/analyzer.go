package site_analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sitewright/sitewright/embed_data"
	"github.com/sitewright/sitewright/site_analyzer/contracts"
	"github.com/sitewright/sitewright/site_analyzer/models"
	"github.com/sitewright/sitewright/utils"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/html"
	"github.com/smacker/go-tree-sitter/javascript"
)

// ErrDirectoryNotFound is returned when the requested root directory does not exist.
var ErrDirectoryNotFound = errors.New("directory not found")

// siteSubdirectory is the conventional subdirectory holding the site sources.
const siteSubdirectory = "site"

// maxSummarizableFileSize caps the files handed to tree-sitter.
const maxSummarizableFileSize = 100 * 1024

// webExtensions is the whitelist of file types handed to the coding agent.
var webExtensions = map[string]bool{
	".html": true,
	".js":   true,
	".css":  true,
}

// SiteAnalyzer discovers web source files and prepares their content for
// prompting.
type SiteAnalyzer struct {
	cacheManager *CacheManager
}

// NewSiteAnalyzer initializes a new SiteAnalyzer.
func NewSiteAnalyzer(enableCache bool) contracts.ISiteAnalyzer {
	var cacheManager *CacheManager
	if enableCache {
		var err error
		cacheManager, err = NewCacheManager("")
		if err != nil {
			log.Printf("Warning: Failed to initialize cache manager: %v", err)
			cacheManager = nil
		}
	}

	return &SiteAnalyzer{cacheManager: cacheManager}
}

// DiscoverWebFiles enumerates the HTML, JS and CSS files under rootDir.
// When rootDir contains a "site" subdirectory, that becomes the primary
// target; sibling subdirectories of rootDir are enumerated as well so asset
// folders next to the site are not lost. All paths are expressed relative to
// the target directory.
func (analyzer *SiteAnalyzer) DiscoverWebFiles(rootDir string) (*models.FileSet, error) {
	rootInfo, err := os.Stat(rootDir)
	if err != nil || !rootInfo.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, rootDir)
	}

	targetDir := rootDir
	sitePath := filepath.Join(rootDir, siteSubdirectory)
	if info, err := os.Stat(sitePath); err == nil && info.IsDir() {
		targetDir = sitePath
	}

	ignorePatterns, err := utils.GetIgnorePatterns(rootDir)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string

	collect := func(dir string) error {
		return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != dir && utils.IsIgnoredDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			if !webExtensions[strings.ToLower(filepath.Ext(path))] {
				return nil
			}

			relativePath, err := filepath.Rel(targetDir, path)
			if err != nil {
				return err
			}
			relativePath = strings.ReplaceAll(relativePath, "\\", "/")

			if utils.MatchesIgnorePattern(relativePath, ignorePatterns) {
				return nil
			}

			if !seen[relativePath] {
				seen[relativePath] = true
				files = append(files, relativePath)
			}
			return nil
		})
	}

	if err := collect(targetDir); err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", targetDir, err)
	}

	// Sibling asset folders live next to the site directory and are not
	// reachable from the primary target.
	entries, err := os.ReadDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", rootDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == siteSubdirectory || utils.IsIgnoredDir(entry.Name()) {
			continue
		}
		if err := collect(filepath.Join(rootDir, entry.Name())); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", entry.Name(), err)
		}
	}

	sort.Strings(files)

	return &models.FileSet{
		RootDir:   rootDir,
		TargetDir: targetDir,
		Files:     files,
	}, nil
}

// BuildSiteContext loads the discovered files and renders them according to
// the display mode: "info" (name and line count), "summary" (structural
// outline) or "full" (complete content).
func (analyzer *SiteAnalyzer) BuildSiteContext(fileSet *models.FileSet, displayMode string) (*models.SiteContext, error) {
	var result models.SiteContext

	for _, relativePath := range fileSet.Files {
		path := filepath.Join(fileSet.TargetDir, relativePath)

		content, err := analyzer.readFileCached(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %s, error: %w", relativePath, err)
		}

		var rendered string
		switch displayMode {
		case "info":
			rendered = fmt.Sprintf("%s (%d lines)", relativePath, countLines(content))
		case "summary":
			outline := analyzer.outlineCached(path, relativePath, content)
			rendered = strings.Join(outline, "\n")
		default:
			rendered = string(content)
		}

		siteFile := models.SiteFile{
			RelativePath: relativePath,
			Code:         string(content),
			Outline:      rendered,
		}
		result.Files = append(result.Files, siteFile)
		result.RawContexts = append(result.RawContexts, fmt.Sprintf("**File: %s**\n\n%s", relativePath, rendered))
	}

	return &result, nil
}

// GenerateChatPrompt assembles the system prompt for the direct chat mode
// from the caller's system message and the rendered site context.
func (analyzer *SiteAnalyzer) GenerateChatPrompt(systemMessage string, siteContext *models.SiteContext) string {
	code := strings.Join(siteContext.RawContexts, "\n---------\n\n")

	return fmt.Sprintf("%s\n\n______\n\n%s\n\n## Here are the current files of the site\n\n%s",
		systemMessage, strings.TrimSpace(string(embed_data.SiteContextPrompt)), code)
}

// GetCacheStats exposes cache statistics for the reset-cache command.
func (analyzer *SiteAnalyzer) GetCacheStats() (map[string]interface{}, error) {
	if analyzer.cacheManager == nil {
		return map[string]interface{}{"cache_enabled": false}, nil
	}
	return analyzer.cacheManager.GetCacheStats()
}

// ClearCache removes all cached file content and outlines.
func (analyzer *SiteAnalyzer) ClearCache() error {
	if analyzer.cacheManager == nil {
		return nil
	}
	return analyzer.cacheManager.ClearCache()
}

func (analyzer *SiteAnalyzer) readFileCached(path string) ([]byte, error) {
	if analyzer.cacheManager != nil {
		if cached, found := analyzer.cacheManager.GetFileContentCache(path); found {
			return cached, nil
		}
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if analyzer.cacheManager != nil {
		analyzer.cacheManager.SetFileContentCache(path, content)
	}
	return content, nil
}

func (analyzer *SiteAnalyzer) outlineCached(path string, relativePath string, content []byte) []string {
	if analyzer.cacheManager != nil {
		if cached, found := analyzer.cacheManager.GetOutlineCache(path); found {
			return cached
		}
	}

	outline := analyzer.summarizeFile(relativePath, content)

	if analyzer.cacheManager != nil {
		analyzer.cacheManager.SetOutlineCache(path, outline)
	}
	return outline
}

// summarizeFile produces a structural outline of a single file using
// tree-sitter. Unsupported or oversized files fall back to a line count.
func (analyzer *SiteAnalyzer) summarizeFile(relativePath string, sourceCode []byte) []string {
	elements := []string{relativePath}

	if len(sourceCode) > maxSummarizableFileSize {
		elements = append(elements, fmt.Sprintf("(%d lines, too large to summarize)", countLines(sourceCode)))
		return elements
	}

	var lang *sitter.Language
	var query []byte

	switch strings.ToLower(filepath.Ext(relativePath)) {
	case ".html":
		lang = html.GetLanguage()
		query = embed_data.HTMLQuery
	case ".js":
		lang = javascript.GetLanguage()
		query = embed_data.JavascriptQuery
	case ".css":
		lang = css.GetLanguage()
		query = embed_data.CSSQuery
	default:
		elements = append(elements, fmt.Sprintf("(%d lines)", countLines(sourceCode)))
		return elements
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree := parser.Parse(nil, sourceCode)

	queries := make(map[string]string)
	if err := json.Unmarshal(query, &queries); err != nil {
		log.Fatalf("failed to parse JSON: %v", err)
	}

	// Markup files repeat the same structures constantly, so identical
	// captures collapse to one outline line.
	captured := make(map[string]bool)

	for tag, queryStr := range queries {
		q, err := sitter.NewQuery([]byte(queryStr), lang)
		if err != nil {
			log.Fatalf("failed to compile query: %v", err)
		}

		cursor := sitter.NewQueryCursor()
		cursor.Exec(q, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}

			for _, cap := range match.Captures {
				taggedElement := fmt.Sprintf("%s: %s", tag, strings.TrimSpace(cap.Node.Content(sourceCode)))
				if !captured[taggedElement] {
					captured[taggedElement] = true
					elements = append(elements, taggedElement)
				}
			}
		}
	}

	return elements
}

func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	return strings.Count(string(content), "\n") + 1
}
