package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/sitewright/sitewright/agents/models"
	"github.com/sitewright/sitewright/constants/lipgloss"
	"github.com/sitewright/sitewright/utils"
	"github.com/spf13/cobra"
)

// askCmd: sitewright ask
var askCmd = &cobra.Command{
	Use:   "ask [target-directory] [system-message] [user-message]",
	Short: "Ask a question about a site without letting the agent edit it.",
	Long: `The 'ask' subcommand loads the site's current files as context and streams a
chat completion answering the user's question. Nothing is written to the site:
this is the read-only counterpart of 'run', useful for explaining the current
markup, styles and scripts or for planning a change before applying it.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		jsonMode, _ := cmd.Flags().GetBool("json")
		handleAskCommand(rootDependencies, args, jsonMode)
	},
}

func init() {
	askCmd.Flags().Bool("json", false, "Print the answer as a single JSON result on stdout.")
	rootCmd.AddCommand(askCmd)
}

func handleAskCommand(rootDependencies *RootDependencies, args []string, jsonMode bool) {
	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A local ollama server needs no credential; every other provider does,
	// and without one the request is not attempted.
	if rootDependencies.Config.AIProviderConfig.Provider != "ollama" && rootDependencies.Config.AIProviderConfig.ApiKey == "" {
		fmt.Fprintln(os.Stderr, lipgloss.Yellow.Render("Warning: OPENAI_API_KEY not set. Please set it as an environment variable or use --api_key"))
		return
	}

	failAsk := func(message string) {
		if jsonMode {
			emitResult(models.InvocationResult{UserOutput: message}, false)
			return
		}
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(message))
	}

	var spinnerInstance *pterm.SpinnerPrinter
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").WithDelay(100).WithRemoveWhenDone(true).WithWriter(os.Stderr)
		spinnerInstance, _ = spinner.Start("Loading site context...")
	}

	stopSpinner := func() {
		if spinnerInstance != nil {
			spinnerInstance.Stop()
			spinnerInstance = nil
		}
	}

	fileSet, err := rootDependencies.Analyzer.DiscoverWebFiles(args[0])
	if err != nil {
		stopSpinner()
		failAsk(fmt.Sprintf("Error running AI: %v", err))
		return
	}

	if fileSet.IsEmpty() {
		stopSpinner()
		failAsk(fmt.Sprintf("No HTML, JS, or CSS files found in %s", fileSet.TargetDir))
		return
	}

	siteContext, err := rootDependencies.Analyzer.BuildSiteContext(fileSet, rootDependencies.Config.FileDisplayMode)
	if err != nil {
		stopSpinner()
		failAsk(fmt.Sprintf("Error running AI: %v", err))
		return
	}

	prompt := rootDependencies.Analyzer.GenerateChatPrompt(args[1], siteContext)

	stopSpinner()

	// Stream the completion. On an interactive terminal the chunks render
	// as markdown immediately; in JSON mode they are only accumulated.
	var aiResponseBuilder strings.Builder
	renderLive := !jsonMode && isatty.IsTerminal(os.Stdout.Fd())

	responseChan := rootDependencies.CurrentChatProvider.ChatCompletionRequest(ctx, args[2], prompt)

	for response := range responseChan {
		if response.Err != nil {
			failAsk(fmt.Sprintf("Error running AI: %v", response.Err))
			return
		}

		if response.Done {
			break
		}

		aiResponseBuilder.WriteString(response.Content)

		if renderLive {
			language := utils.DetectLanguageFromCodeBlock(response.Content)
			if err := utils.RenderAndPrintMarkdownWithContext(ctx, response.Content, language, rootDependencies.Config.Theme); err != nil {
				if err == context.Canceled {
					fmt.Fprintln(os.Stderr, lipgloss.Yellow.Render("\nOutput cancelled by user"))
					return
				}
				failAsk(fmt.Sprintf("Error rendering markdown: %v", err))
				return
			}
		}
	}

	answer := strings.TrimSpace(aiResponseBuilder.String())

	if jsonMode {
		emitResult(models.InvocationResult{UserOutput: answer}, false)
		return
	}

	// Redirected stdout gets the plain answer instead of live rendering.
	if !renderLive {
		fmt.Println(answer)
		return
	}

	fmt.Print("\n")
	rootDependencies.TokenManagement.DisplayTokens(rootDependencies.Config.AIProviderConfig.Provider, rootDependencies.Config.AIProviderConfig.Model)
}
