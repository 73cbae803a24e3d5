package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/kingrea/translation-initiation/internal/config"
	"github.com/kingrea/translation-initiation/internal/stages"
)

var stagesCmd = &cobra.Command{
	Use:   "stages",
	Short: "Print the stage table in use (built-in or the configured override)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseDir, err := resolveBaseDir()
		if err != nil {
			return err
		}
		cfg, err := config.NewConfig(baseDir)
		if err != nil {
			return err
		}
		t, err := stages.Load(cfg.StagesPath())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderStageTable(t))
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <table.yaml>",
	Short: "Check a replacement stage table against the factor catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := stages.LoadTableFile(args[0], nil)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d stages, %d windows, %d selectable factors\n",
			args[0], t.Len(), len(t.Windows), t.AllRequired().Len())
		return nil
	},
}

// renderStageTable lists each stage with its entity changes using labels.
func renderStageTable(t stages.Table) string {
	cat := t.Catalog()
	labels := func(ids []string) string {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = cat.Label(id)
		}
		return strings.Join(out, ", ")
	}
	rows := make([][]string, 0, t.Len())
	for _, st := range t.Stages {
		required := labels(st.Required)
		if st.AutoAdvance() {
			required = "(auto)"
		}
		rows = append(rows, []string{
			strconv.Itoa(st.Index),
			st.Title,
			labels(st.Add),
			labels(st.Remove),
			required,
		})
	}
	header := lipgloss.NewStyle().Bold(true)
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderRow(false).
		Headers("#", "Stage", "Adds", "Removes", "Pick").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}
