package cmd

import (
	"fmt"
	"os"

	"github.com/sitewright/sitewright/agents"
	agent_contracts "github.com/sitewright/sitewright/agents/contracts"
	"github.com/sitewright/sitewright/config"
	"github.com/sitewright/sitewright/constants/lipgloss"
	"github.com/sitewright/sitewright/providers"
	provider_contracts "github.com/sitewright/sitewright/providers/contracts"
	"github.com/sitewright/sitewright/runner"
	"github.com/sitewright/sitewright/site_analyzer"
	site_contracts "github.com/sitewright/sitewright/site_analyzer/contracts"
	"github.com/sitewright/sitewright/token_management"
	token_contracts "github.com/sitewright/sitewright/token_management/contracts"
	"github.com/sitewright/sitewright/utils"
	"github.com/spf13/cobra"
)

// RootDependencies holds the components shared by the subcommands.
type RootDependencies struct {
	Config              *config.Config
	Analyzer            site_contracts.ISiteAnalyzer
	CodingAgent         agent_contracts.ICodingAgent
	Runner              *runner.Runner
	CurrentChatProvider provider_contracts.IChatAIProvider
	TokenManagement     token_contracts.ITokenManagement
	GitOperations       *utils.GitOperations
	Cwd                 string
}

// rootCmd: sitewright
var rootCmd = &cobra.Command{
	Use:   "sitewright",
	Short: "Drive an AI coding agent over a static web site.",
	Long: `Sitewright discovers the HTML, JS and CSS files of a static site, hands them
to an AI coding agent together with your request, and reports back whether the
site's files actually changed.`,
	Run: func(cmd *cobra.Command, args []string) {
		if versionRequested, _ := cmd.Flags().GetBool("version"); versionRequested {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
}

// handleRootCommand wires the shared dependencies for a subcommand run.
// It returns nil after printing the failure, matching how the subcommands
// bail out.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	rootDependencies := &RootDependencies{}
	var err error

	rootDependencies.Cwd, err = os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error getting current directory: %v", err)))
		return nil
	}

	rootDependencies.Config = config.LoadConfigWithCache(cmd.Root(), rootDependencies.Cwd)
	rootDependencies.TokenManagement = token_management.NewTokenManager()
	rootDependencies.Analyzer = site_analyzer.NewSiteAnalyzer(rootDependencies.Config.EnableCache)
	rootDependencies.GitOperations = utils.NewGitOperations()
	rootDependencies.CodingAgent = agents.NewCodingAgent(rootDependencies.Config.Agent, rootDependencies.Config.AIProviderConfig.ApiKey)
	rootDependencies.Runner = runner.NewRunner(rootDependencies.Analyzer, rootDependencies.CodingAgent, rootDependencies.GitOperations, rootDependencies.Config.MaxOutputLength)

	rootDependencies.CurrentChatProvider, err = providers.ChatProviderFactory(rootDependencies.Config.AIProviderConfig, rootDependencies.TokenManagement)
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		return nil
	}

	return rootDependencies
}
