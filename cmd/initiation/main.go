// cmd/initiation/main.go
//
// This is the entry point for the translation initiation stepper.
//
// Flow:
// 1. Resolve the working directory (--dir or the current one)
// 2. Make sure .initiation/ exists with a default config.yaml
// 3. Launch the TUI, optionally skipping the name screen with --name

package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/translation-initiation/internal/config"
	"github.com/kingrea/translation-initiation/internal/stages/resolver"
	"github.com/kingrea/translation-initiation/internal/tui"
)

var (
	baseDirFlag string
	modeFlag    string
	nameFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "initiation",
	Short: "Step through eukaryotic translation initiation in the terminal",
	Long: `initiation walks through the thirteen stages of eukaryotic translation
initiation. Guided mode lets you move freely between stages; interactive mode
asks you to pick the factors each stage needs before it moves on.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runStepper,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseDirFlag, "dir", "", "directory holding .initiation/ (default: current directory)")
	rootCmd.Flags().StringVar(&modeFlag, "mode", "", "start in guided or interactive mode (default: from config)")
	rootCmd.Flags().StringVar(&nameFlag, "name", "", "gene name; skips the welcome screen")
	rootCmd.AddCommand(stagesCmd, validateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runStepper(cmd *cobra.Command, args []string) error {
	baseDir, err := resolveBaseDir()
	if err != nil {
		return err
	}
	if err := config.InitDir(baseDir); err != nil {
		return fmt.Errorf("initializing .initiation directory: %w", err)
	}

	var opts []tui.AppOption
	if modeFlag != "" {
		mode, err := resolver.ParseMode(modeFlag)
		if err != nil {
			return err
		}
		opts = append(opts, tui.WithMode(mode))
	}
	if nameFlag != "" {
		opts = append(opts, tui.WithSubject(nameFlag))
	}

	app, err := tui.NewApp(baseDir, opts...)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(), // Use alternate screen buffer (like vim does)
	)

	// Run blocks until the user quits
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func resolveBaseDir() (string, error) {
	dir := baseDirFlag
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		dir = cwd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", dir, err)
	}
	return abs, nil
}
