package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ashutoshrp06/sow-assistant/internal/config"
	"github.com/ashutoshrp06/sow-assistant/internal/types"
	"github.com/ashutoshrp06/sow-assistant/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath  string
	verbose     bool
	interactive bool
	modeFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "sowa [question]",
	Short: "Question answering and risk review for SOW documents",
	Long: `sowa answers questions about Statement-of-Work documents.

Two modes are available:
  simple  Retrieve passages and answer with citations (default)
  agent   Let the contract agent search and check clauses for risks

Usage:
  sowa "What are the payment terms?"
  sowa ask --mode agent "Does the Acme SOW carry any contractual risk?"
  sowa --it`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if interactive {
			return runInteractive()
		}
		if len(args) > 0 {
			return runOneShot(cmd.Context(), args)
		}
		return cmd.Help()
	},
	SilenceUsage: true,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), args)
	},
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&interactive, "it", false, "Start interactive mode")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&modeFlag, "mode", "m", "simple", "Answering mode: simple or agent")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(versionCmd)
}

func runInteractive() error {
	mode, err := types.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	a, logger, err := initApp()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	return ui.Run(a.dispatcher, mode, a.registry.ListTools())
}

func runOneShot(ctx context.Context, args []string) error {
	mode, err := types.ParseMode(modeFlag)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a, logger, err := initApp()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	answer, err := a.dispatcher.Handle(ctx, strings.Join(args, " "), mode)
	if err != nil {
		fmt.Println(lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Render(answer))
		return err
	}
	fmt.Println(answer)
	return nil
}

// initApp loads and validates config, then wires every component.
func initApp() (*app, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		printError("Could not load config", err)
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		printError("Invalid config", err)
		return nil, nil, err
	}

	logger := createLogger()

	a, err := buildApp(cfg, logger)
	if err != nil {
		printError("Failed to initialize", err)
		printConnectionHelp(cfg)
		return nil, nil, err
	}
	return a, logger, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.LoadFromPaths(config.DefaultPaths()...)
}

func createLogger() *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func printError(msg string, err error) {
	fmt.Fprintln(os.Stderr, lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).
		Render(fmt.Sprintf("Error: %s: %v", msg, err)))
}

func printConnectionHelp(cfg *config.Config) {
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	cmdStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#0D9488"))

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, helpStyle.Render(fmt.Sprintf("Model provider %q, search index %s at %s:%d.",
		cfg.LLM.Provider, cfg.Search.Collection, cfg.Search.Host, cfg.Search.Port)))
	fmt.Fprintln(os.Stderr, helpStyle.Render("Set credentials through the environment:"))
	fmt.Fprintln(os.Stderr, cmdStyle.Render("  export AZURE_OPENAI_ACCOUNT=https://<account>.openai.azure.com"))
	fmt.Fprintln(os.Stderr, cmdStyle.Render("  export AZURE_OPENAI_KEY=<key>"))
	fmt.Fprintln(os.Stderr, helpStyle.Render("Or run `sowa config --init` and edit config.yaml."))
}
