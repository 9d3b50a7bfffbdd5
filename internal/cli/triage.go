package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/referralab/urgentia/internal/model"
	"github.com/referralab/urgentia/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	outJSON     string
	inputFile   string
	imagePath   string
	modeFlag    string
	contextText string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
	noStore     bool
	storePath   string
	llmProvider string
	llmModel    string
	llmBaseURL  string
)

// triageCmd represents the triage command
var triageCmd = &cobra.Command{
	Use:   "triage [text]",
	Short: "Classify a single referral into an NHS priority tier",
	Long: `Triage sends one free-text referral through the full pipeline:
- Build the NHS triage prompt for the configured model
- Call the chat-completion gateway (with response caching)
- Extract priority, specialty, and patient fields from the answer
- Persist the referral record for later review

The referral text comes from the argument, --file, or stdin.

Example:
  urgentia triage "Patient: John Smith ... crushing chest pain"
  urgentia triage --file referral.txt --json result.json
  cat referral.txt | urgentia triage --provider ollama --model llama3
  urgentia triage "why was this classified urgent?" --mode context_aware`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTriage,
}

func init() {
	rootCmd.AddCommand(triageCmd)

	// Input flags
	triageCmd.Flags().StringVar(&inputFile, "file", "", "read referral text from file")
	triageCmd.Flags().StringVar(&imagePath, "image", "", "attach an image (referral letter scan, ECG photo)")
	triageCmd.Flags().StringVar(&modeFlag, "mode", "referral", "prompt mode (referral, context_aware, general)")
	triageCmd.Flags().StringVar(&contextText, "context", "", "prior classification for context_aware mode (default: latest stored record)")

	// Output flags
	triageCmd.Flags().StringVar(&outJSON, "json", "", "also write the result as JSON to this path")
	triageCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable the disclaimer footer")

	// Pipeline flags
	triageCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall triage timeout")
	triageCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable response cache (force a fresh model call)")
	triageCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the referral record")
	triageCmd.Flags().StringVar(&storePath, "db", "", "referral database path (default: referrals.db)")

	// Provider flags
	triageCmd.Flags().StringVar(&llmProvider, "provider", "azure", "LLM provider (azure, openai, anthropic, ollama)")
	triageCmd.Flags().StringVar(&llmModel, "model", "phi-4", "model name")
	triageCmd.Flags().StringVar(&llmBaseURL, "base-url", "", "override the provider base URL")
}

func runTriage(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	text, err := readCaseText(args)
	if err != nil {
		return err
	}

	mode := model.Mode(modeFlag)
	switch mode {
	case model.ModeReferral, model.ModeContextAware, model.ModeGeneral:
	default:
		return fmt.Errorf("unknown mode: %s (supported: referral, context_aware, general)", modeFlag)
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	input := model.CaseInput{
		Text:    text,
		Mode:    mode,
		Context: contextText,
	}
	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		input.Image = data
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		fmt.Fprintf(os.Stderr, "Mode:     %s\n", mode)
		fmt.Fprintf(os.Stderr, "Cache:    %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg)
	defer func() { _ = p.Close() }()

	result, err := p.Process(ctx, input)
	if err != nil {
		return fmt.Errorf("triage failed: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	renderer.RenderSummary(result)

	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON result: %s\n", outJSON)
		}
	}

	return nil
}

// readCaseText resolves the referral text from the argument, --file, or
// stdin, in that order
func readCaseText(args []string) (string, error) {
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}

	if inputFile != "" {
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("read input file: %w", err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			return "", fmt.Errorf("input file is empty: %s", inputFile)
		}
		return text, nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("no referral text provided (argument, --file, or stdin)")
	}
	return text, nil
}

// buildConfig assembles the runtime configuration from defaults, shared
// flags, and provider environment variables
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = llmProvider
	cfg.LLM.Model = llmModel
	if llmBaseURL != "" {
		cfg.LLM.BaseURL = llmBaseURL
	}
	cfg.Cache.Enabled = !noCache
	cfg.Store.Enabled = !noStore
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if err := applyProviderEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyProviderEnv pulls credentials from the environment and fails
// early when the selected provider has none
func applyProviderEnv(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "azure":
		// GitHub Models authenticates with a GitHub token
		cfg.LLM.APIKey = os.Getenv("GITHUB_TOKEN")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GITHUB_TOKEN environment variable not set")
		}
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	default:
		return fmt.Errorf("unknown LLM provider: %s (supported: azure, openai, anthropic, ollama)", cfg.LLM.Provider)
	}
	return nil
}
