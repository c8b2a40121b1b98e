package contracts

import (
	"context"

	"github.com/sitewright/sitewright/agents/models"
	site_models "github.com/sitewright/sitewright/site_analyzer/models"
)

// ICodingAgent runs the external coding agent once against a discovered file
// set and returns everything it printed. Implementations report timeouts and
// non-zero exits through AgentOutput; an error means the process could not be
// run at all.
type ICodingAgent interface {
	Invoke(ctx context.Context, request *models.InvocationRequest, fileSet *site_models.FileSet) (*models.AgentOutput, error)
}
