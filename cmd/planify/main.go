package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"planify/internal/config"
	"planify/internal/keys"
	"planify/internal/llm/agents"
	"planify/internal/output"
	"planify/internal/planner"
	"planify/internal/utils"
)

const version = "0.1.0"

var (
	flagRepo          string
	flagConfig        string
	flagOutput        string
	flagMaxRounds     int
	flagDryRun        bool
	flagVerbose       bool
	flagResume        string
	flagNoInteractive bool
)

func main() {
	root := &cobra.Command{
		Use:     "planify [task]",
		Short:   "Multi-agent planning orchestrator",
		Long:    "Planify runs structured AI conversations to plan software features before implementation.\n\nAn architect drafts the plan, a critic challenges it, and an integrator produces the final deliverable.",
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runPlan,
	}

	root.Flags().StringVarP(&flagRepo, "repo", "r", ".", "repository path")
	root.Flags().StringVarP(&flagConfig, "config", "c", "", "path to planify.yaml config file")
	root.Flags().StringVarP(&flagOutput, "output", "o", "", "output path for the plan ({slug} expands to the session id)")
	root.Flags().IntVarP(&flagMaxRounds, "max-rounds", "m", 0, "maximum planning rounds (default: from config)")
	root.Flags().BoolVar(&flagDryRun, "dry-run", false, "show what would be done without making API calls")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output (include full transcript)")
	root.Flags().StringVar(&flagResume, "resume", "", "resume a previous planning session from its JSON file")
	root.Flags().BoolVar(&flagNoInteractive, "no-interactive", false, "run without human feedback prompts")

	root.AddCommand(keysCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runPlan(cmd *cobra.Command, args []string) error {
	task := ""
	if len(args) > 0 {
		task = args[0]
	}
	if task == "" && flagResume == "" {
		return fmt.Errorf("either TASK or --resume is required")
	}

	if !utils.DirectoryExists(flagRepo) {
		return fmt.Errorf("repository path does not exist: %s", flagRepo)
	}
	if flagVerbose && !utils.HasGitRepo(flagRepo) {
		fmt.Fprintln(os.Stderr, "Note: no git repository found, branch metadata will be absent")
	}

	if err := utils.LoadEnv(flagRepo); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagMaxRounds > 0 {
		cfg.Limits.MaxRounds = flagMaxRounds
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var session *planner.Session
	if flagResume != "" {
		session, err = planner.LoadSession(flagResume)
		if err != nil {
			return err
		}
		fmt.Printf("Resuming session: %s\n", session.ID)
		task = session.Task
	}

	absRepo, err := filepath.Abs(flagRepo)
	if err != nil {
		return err
	}

	fmt.Printf("Task: %s\n", task)
	fmt.Printf("Repository: %s\n", absRepo)
	fmt.Printf("Max rounds: %d\n\n", cfg.Limits.MaxRounds)

	if flagDryRun {
		fmt.Println("DRY RUN - no API calls will be made")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nPlanning cancelled, saving session...")
		signal.Stop(sigChan)
		cancel()
	}()

	var feedback planner.FeedbackFunc
	if !flagNoInteractive {
		feedback = promptFeedback
	} else {
		feedback = printOnly
	}

	sessionDir := filepath.Join(absRepo, ".planify-session")

	orchestrator := planner.NewOrchestrator(cfg)
	session, runErr := orchestrator.Run(ctx, task, absRepo, feedback, session)

	if session != nil {
		path, saveErr := session.Save(sessionDir)
		if saveErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save session: %v\n", saveErr)
		} else if runErr != nil {
			fmt.Printf("Session saved for resume: %s\n", path)
		} else {
			fmt.Printf("\nSession saved: %s\n", path)
		}
	}
	if runErr != nil {
		return runErr
	}

	generator := output.NewMarkdownGenerator()
	opts := output.GenerateOptions{
		IncludeTranscript:  flagVerbose || cfg.Output.IncludeTranscript,
		IncludeCostSummary: cfg.Output.IncludeCostSummary,
	}

	outputPath := flagOutput
	if outputPath == "" {
		outputPath = cfg.Output.Path
	}
	if outputPath != "" {
		path, err := generator.Save(session, outputPath, opts)
		if err != nil {
			return err
		}
		fmt.Printf("Plan saved: %s\n", path)
	} else {
		fmt.Println("\n" + strings.Repeat("=", 60))
		fmt.Println("FINAL PLAN")
		fmt.Println(strings.Repeat("=", 60) + "\n")
		fmt.Println(generator.Generate(session, output.GenerateOptions{}))
	}

	printSummary(session)

	extractor := output.NewTaskExtractor()
	if tasks := extractor.Extract(session); len(tasks) > 0 {
		fmt.Printf("\nExtracted %d tasks\n", len(tasks))
	}

	return nil
}

func printSummary(session *planner.Session) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("Summary")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Status:       %s\n", session.Status)
	fmt.Printf("Rounds:       %d\n", session.Round)
	fmt.Printf("Total cost:   $%.4f\n", session.TotalCostUSD)
	fmt.Printf("Files loaded: %d\n", len(session.FilesLoaded))
}

func printResponse(phase string, response *agents.AgentResponse) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Printf("%s (%s)\n", strings.ToUpper(phase), response.Model)
	fmt.Printf("Cost: $%.4f | Tokens: %d in / %d out\n", response.CostUSD, response.InputTokens, response.OutputTokens)
	fmt.Println(strings.Repeat("=", 60) + "\n")
	fmt.Println(response.Content)
}

func printOnly(ctx context.Context, phase string, response *agents.AgentResponse) (string, error) {
	printResponse(phase, response)
	return "", nil
}

// promptFeedback reads a feedback line from stdin. The read happens in its
// own goroutine so an interrupt during the wait aborts the run instead of
// blocking until the user presses Enter.
func promptFeedback(ctx context.Context, phase string, response *agents.AgentResponse) (string, error) {
	printResponse(phase, response)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Printf("\nFeedback for %s? (press Enter to continue): ", phase)
	lines := make(chan string, 1)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			lines <- ""
			return
		}
		lines <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line := <-lines:
		return line, nil
	}
}

func keysCommand() *cobra.Command {
	keysCmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage provider API keys in the OS keyring",
	}

	keysCmd.AddCommand(&cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key (read from stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("Enter API key for %s: ", args[0])
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("failed to read key: %w", err)
			}
			service := keys.NewKeyringService()
			if err := service.StoreAPIKey(args[0], []byte(strings.TrimSpace(line))); err != nil {
				return err
			}
			fmt.Printf("API key stored for %s\n", args[0])
			return nil
		},
	})

	keysCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List providers with a stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			service := keys.NewKeyringService()
			providers, err := service.ListAPIKeys()
			if err != nil {
				return err
			}
			if len(providers) == 0 {
				fmt.Println("No API keys stored")
				return nil
			}
			for _, p := range providers {
				fmt.Println(p)
			}
			return nil
		},
	})

	keysCmd.AddCommand(&cobra.Command{
		Use:   "delete <provider>",
		Short: "Delete a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := keys.NewKeyringService()
			if err := service.DeleteAPIKey(args[0]); err != nil {
				return err
			}
			fmt.Printf("API key deleted for %s\n", args[0])
			return nil
		},
	})

	return keysCmd
}
