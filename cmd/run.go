package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/sitewright/sitewright/agents/models"
	"github.com/sitewright/sitewright/constants/lipgloss"
	"github.com/spf13/cobra"
)

// runCmd: sitewright run
var runCmd = &cobra.Command{
	Use:   "run [target-directory] [system-message] [user-message]",
	Short: "Apply a change request to a site through the coding agent.",
	Long: `The 'run' subcommand discovers the HTML, JS and CSS files of the target
directory, invokes the coding agent with the combined system and user message,
and prints a single JSON result on stdout reporting the agent's reply and
whether the site's files actually changed. All progress decoration goes to
stderr, so stdout stays machine-readable.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		diffMode, _ := cmd.Flags().GetBool("diff")
		handleRunCommand(rootDependencies, args, diffMode)
	},
}

func init() {
	runCmd.Flags().Bool("diff", false, "Report the raw agent output in the JSON result instead of the change flag.")
	rootCmd.AddCommand(runCmd)
}

func handleRunCommand(rootDependencies *RootDependencies, args []string, diffMode bool) {
	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Without a credential the agent cannot reach its provider, so the
	// request is not attempted at all.
	if rootDependencies.Config.AIProviderConfig.ApiKey == "" {
		fmt.Fprintln(os.Stderr, lipgloss.Yellow.Render("Warning: OPENAI_API_KEY not set. Please set it as an environment variable or use --api_key"))
		fmt.Fprintln(os.Stderr, "You can set it with: export OPENAI_API_KEY='your-api-key-here'")
		return
	}

	request := &models.InvocationRequest{
		RootDirectory:         args[0],
		SystemMessage:         args[1],
		UserMessage:           args[2],
		Model:                 rootDependencies.Config.Agent.Model,
		WeakModel:             rootDependencies.Config.Agent.WeakModel,
		EditorModel:           rootDependencies.Config.Agent.EditorModel,
		CachePrompts:          rootDependencies.Config.Agent.CachePrompts,
		CacheKeepAliveSeconds: rootDependencies.Config.Agent.CacheKeepAliveSeconds,
	}

	// The spinner only runs on an interactive stderr; redirected output
	// gets no decoration at all.
	var spinnerInstance *pterm.SpinnerPrinter
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true).WithWriter(os.Stderr)
		spinnerInstance, _ = spinner.Start("Running aider...")
	}

	result := rootDependencies.Runner.Run(ctx, request)

	if spinnerInstance != nil {
		spinnerInstance.Stop()
	}

	emitResult(result, diffMode)
}

// emitResult prints the single JSON result line on stdout.
func emitResult(result models.InvocationResult, diffMode bool) {
	var payload interface{}
	if diffMode {
		payload = struct {
			UserOutput string `json:"userOutput"`
			CodeDiff   string `json:"codeDiff"`
		}{UserOutput: result.UserOutput, CodeDiff: result.RawOutput}
	} else {
		payload = struct {
			UserOutput  string `json:"userOutput"`
			FileChanged bool   `json:"fileChanged"`
		}{UserOutput: result.UserOutput, FileChanged: result.FileChanged}
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error encoding result: %v", err)))
		os.Exit(1)
	}

	fmt.Println(string(encoded))
}
