package main

import (
	"fmt"
	"io"
	"runtime"

	"github.com/ashutoshrp06/sow-assistant/internal/config"
	"github.com/ashutoshrp06/sow-assistant/internal/ui"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	GitCommit = "dev"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and the configured model stack",
	Run: func(cmd *cobra.Command, args []string) {
		// version still prints when no config file is present
		cfg, err := loadConfig()
		if err != nil {
			cfg = nil
		}
		writeVersion(cmd.OutOrStdout(), cfg)
	},
}

type versionRow struct {
	label string
	value string
}

func versionRows(cfg *config.Config) []versionRow {
	rows := []versionRow{
		{"Version", Version},
		{"Commit", GitCommit},
		{"Built", BuildDate},
		{"Go", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
	}
	if cfg == nil {
		return append(rows, versionRow{"Config", "not loaded"})
	}
	return append(rows,
		versionRow{"Provider", cfg.LLM.Provider},
		versionRow{"Chat model", cfg.LLM.Model},
		versionRow{"Embeddings", cfg.LLM.EmbeddingModel},
		versionRow{"Collection", fmt.Sprintf("%s @ %s:%d", cfg.Search.Collection, cfg.Search.Host, cfg.Search.Port)},
		versionRow{"Risk check", cfg.Agent.RiskStrategy},
	)
}

func writeVersion(w io.Writer, cfg *config.Config) {
	theme := ui.DefaultTheme()
	title := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Width(12)
	value := lipgloss.NewStyle().Foreground(theme.Secondary)

	fmt.Fprintln(w, title.Render("sowa"))
	for _, r := range versionRows(cfg) {
		fmt.Fprintf(w, "%s %s\n", label.Render(r.label+":"), value.Render(r.value))
	}
}
