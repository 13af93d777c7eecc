package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/workflow"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one resume against a job description and print the report",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file (pdf, docx or txt)")
	analyzeCmd.Flags().StringP("portfolio", "p", "", "optional portfolio file")
	addJDFlags(analyzeCmd)
	addOutputFlags(analyzeCmd)
}

func addJDFlags(cmd *cobra.Command) {
	cmd.Flags().String("jd-text", "", "job description text")
	cmd.Flags().String("jd-file", "", "job description file")
	cmd.MarkFlagsMutuallyExclusive("jd-text", "jd-file")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "write the report export to this file or directory")
	cmd.Flags().String("format", "", "export format: csv or xlsx (default from export.format)")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()
	l, config := setup(true)
	m := newMachine(mustAnalyzer(ctx, config, l), config, l)
	out := &printer{w: cmd.OutOrStdout()}

	resume, _ := cmd.Flags().GetString("resume")
	portfolio, _ := cmd.Flags().GetString("portfolio")

	steps := []func() error{
		func() error { return m.SelectFlow(workflow.FlowIndividual) },
		func() error { return m.SetResume(localFile(resume)) },
		func() error { return m.SetPortfolio(localFile(portfolio)) },
		func() error { return applyJDFlags(cmd, m) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			l.Fatal("preparing the analysis", zap.Error(err))
		}
	}

	if err := submit(ctx, m, out, m.SubmitIndividual); err != nil {
		l.Fatal("analysis failed", zap.Error(err))
	}

	if err := writeExport(cmd, m, config, l); err != nil {
		l.Fatal("writing the export", zap.Error(err))
	}
}

// submit prints the loading message, runs fn and renders the resulting view.
func submit(ctx context.Context, m *workflow.Machine, out *printer, fn func(context.Context) error) error {
	fmt.Fprintln(out.w, loadingMessage(m.View()))
	err := fn(ctx)
	if renderErr := workflow.Dispatch(m.View(), out); renderErr != nil {
		return renderErr
	}
	return err
}

func loadingMessage(v workflow.View) string {
	switch {
	case v.Phase == workflow.PhaseIndividualInput:
		return workflow.LoadingIndividual
	case v.Phase == workflow.PhaseBulkInput:
		return workflow.LoadingBulk
	default:
		return workflow.LoadingFinal
	}
}

func applyJDFlags(cmd *cobra.Command, m *workflow.Machine) error {
	if path, _ := cmd.Flags().GetString("jd-file"); path != "" {
		return m.SetJDFile(localFile(path))
	}
	text, _ := cmd.Flags().GetString("jd-text")
	return m.SetJDText(text)
}

// localFile returns nil for an empty path so optional inputs stay unset.
func localFile(path string) document.File {
	if path == "" {
		return nil
	}
	return document.NewLocalFile(path)
}

func writeExport(cmd *cobra.Command, m *workflow.Machine, config *Config, l *zap.Logger) error {
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return nil
	}
	flag, _ := cmd.Flags().GetString("format")
	format, err := exportFormat(flag, config)
	if err != nil {
		return err
	}

	data, name, err := m.Export(format)
	if errors.Is(err, workflow.ErrNoReport) {
		l.Info("nothing to export", zap.String("phase", m.Phase().String()))
		return nil
	}
	if err != nil {
		return err
	}

	if info, statErr := os.Stat(output); statErr == nil && info.IsDir() {
		output = filepath.Join(output, name)
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}

	l.Info("report exported", zap.String("file", output), zap.String("format", string(format)))
	return nil
}
