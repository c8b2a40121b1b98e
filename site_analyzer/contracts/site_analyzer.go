package contracts

import (
	"github.com/sitewright/sitewright/site_analyzer/models"
)

type ISiteAnalyzer interface {
	DiscoverWebFiles(rootDir string) (*models.FileSet, error)
	BuildSiteContext(fileSet *models.FileSet, displayMode string) (*models.SiteContext, error)
	GenerateChatPrompt(systemMessage string, siteContext *models.SiteContext) string
	GetCacheStats() (map[string]interface{}, error)
	ClearCache() error
}
