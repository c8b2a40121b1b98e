package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/sitewright/sitewright/agents/aider"
	"github.com/sitewright/sitewright/agents/models"
	"github.com/sitewright/sitewright/constants/lipgloss"
	"github.com/spf13/cobra"
)

// benchTestPage seeds the throwaway site every benchmarked model edits.
const benchTestPage = `<!DOCTYPE html>
<html>
<head>
    <title>Test Site</title>
</head>
<body>
    <h1>Test Site</h1>
    <p>This is a test site for aider analysis.</p>
</body>
</html>`

type benchModelResult struct {
	Model       string `json:"model"`
	Success     bool   `json:"success"`
	ReturnCode  int    `json:"return_code"`
	TimedOut    bool   `json:"timed_out"`
	DurationMs  int64  `json:"duration_ms"`
	OutputChars int    `json:"output_chars"`
}

type benchSummary struct {
	TotalModels     int `json:"total_models"`
	SuccessfulTests int `json:"successful_tests"`
	FailedTests     int `json:"failed_tests"`
}

type benchReport struct {
	RunID        string             `json:"run_id"`
	Timestamp    string             `json:"timestamp"`
	UserMessage  string             `json:"user_message"`
	ModelsTested []string           `json:"models_tested"`
	Results      []benchModelResult `json:"results"`
	Summary      benchSummary       `json:"summary"`
}

// benchCmd: sitewright bench
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Compare coding agent models against a throwaway test site.",
	Long: `The 'bench' subcommand creates a disposable site, runs the same change
request through the coding agent once per model, and writes a comparison
report (summary.json) into the run directory. Use it to pick a model before
pointing sitewright at a real site.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		if rootDependencies == nil {
			return
		}
		modelNames, _ := cmd.Flags().GetStringSlice("models")
		message, _ := cmd.Flags().GetString("message")
		timeoutSeconds, _ := cmd.Flags().GetInt("timeout")
		handleBenchCommand(rootDependencies, modelNames, message, timeoutSeconds)
	},
}

func init() {
	benchCmd.Flags().StringSlice("models", []string{"gpt-4o", "gpt-4o-mini", "gpt-5"}, "The models to compare.")
	benchCmd.Flags().String("message", "Create a simple HTML page with a header and paragraph", "The change request sent to every model.")
	benchCmd.Flags().Int("timeout", 60, "Per-model wall-clock limit in seconds.")
	rootCmd.AddCommand(benchCmd)
}

func handleBenchCommand(rootDependencies *RootDependencies, modelNames []string, message string, timeoutSeconds int) {
	// Create a context with cancel function
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if rootDependencies.Config.AIProviderConfig.ApiKey == "" {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render("Error: OPENAI_API_KEY environment variable not set!"))
		fmt.Fprintln(os.Stderr, "Please set it with: export OPENAI_API_KEY='your-api-key-here'")
		return
	}

	outputDir := filepath.Join(rootDependencies.Cwd, "sitewright_bench_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(filepath.Join(outputDir, "test_site"), 0755); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error setting up test environment: %v", err)))
		return
	}
	if err := os.WriteFile(filepath.Join(outputDir, "test_site", "index.html"), []byte(benchTestPage), 0644); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error setting up test environment: %v", err)))
		return
	}

	fileSet, err := rootDependencies.Analyzer.DiscoverWebFiles(outputDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error setting up test environment: %v", err)))
		return
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Test environment created at %s", outputDir)))
	fmt.Printf("Testing %d models with: %q\n", len(modelNames), message)

	benchAgent := aider.NewAiderAgent(&aider.AiderConfig{
		Command: rootDependencies.Config.Agent.Command,
		Timeout: time.Duration(timeoutSeconds) * time.Second,
		ApiKey:  rootDependencies.Config.AIProviderConfig.ApiKey,
	})

	var results []benchModelResult

	for i, model := range modelNames {
		if ctx.Err() != nil {
			fmt.Println(lipgloss.Yellow.Render("Benchmark cancelled."))
			break
		}

		fmt.Printf("\nTesting model: %s\n", model)

		request := &models.InvocationRequest{
			RootDirectory: outputDir,
			SystemMessage: "You are a web developer.",
			UserMessage:   message,
			Model:         model,
		}

		started := time.Now()
		output, err := benchAgent.Invoke(ctx, request, fileSet)

		result := benchModelResult{Model: model}
		switch {
		case err != nil:
			result.ReturnCode = -1
			result.DurationMs = time.Since(started).Milliseconds()
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✗ %s test error: %v", model, err)))
		case output.TimedOut:
			result.TimedOut = true
			result.ReturnCode = -1
			result.DurationMs = output.Duration.Milliseconds()
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✗ %s test timed out", model)))
		default:
			result.ReturnCode = output.ExitCode
			result.Success = output.ExitCode == 0
			result.DurationMs = output.Duration.Milliseconds()
			result.OutputChars = len(output.Raw)
			if result.Success {
				fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ %s test completed successfully", model)))
			} else {
				fmt.Println(lipgloss.Red.Render(fmt.Sprintf("✗ %s test failed with return code %d", model, output.ExitCode)))
			}
		}

		results = append(results, result)

		// Brief pause between tests
		if i < len(modelNames)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
	}

	report := benchReport{
		RunID:        uuid.NewString(),
		Timestamp:    time.Now().Format(time.RFC3339),
		UserMessage:  message,
		ModelsTested: modelNames,
		Results:      results,
		Summary:      benchSummary{TotalModels: len(modelNames)},
	}
	for _, result := range results {
		if result.Success {
			report.Summary.SuccessfulTests++
		} else {
			report.Summary.FailedTests++
		}
	}

	reportData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error generating report: %v", err)))
		return
	}
	if err := os.WriteFile(filepath.Join(outputDir, "summary.json"), reportData, 0644); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(fmt.Sprintf("Error saving report: %v", err)))
		return
	}

	tableData := pterm.TableData{{"Model", "Status", "Return Code", "Duration"}}
	for _, result := range results {
		status := "FAILED"
		if result.Success {
			status = "SUCCESS"
		} else if result.TimedOut {
			status = "TIMEOUT"
		}
		tableData = append(tableData, []string{
			result.Model,
			status,
			strconv.Itoa(result.ReturnCode),
			fmt.Sprintf("%dms", result.DurationMs),
		})
	}

	fmt.Println()
	_ = pterm.DefaultTable.WithHasHeader().WithData(tableData).Render()

	fmt.Printf("Successful tests: %d\n", report.Summary.SuccessfulTests)
	fmt.Printf("Failed tests: %d\n", report.Summary.FailedTests)
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Report saved to: %s", outputDir)))
}
