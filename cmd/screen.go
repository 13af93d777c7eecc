package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/workflow"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Rank several resumes against a job description and select the final candidates",
	Run: func(cmd *cobra.Command, _ []string) {
		screen(cmd)
	},
}

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringArrayP("resume", "r", nil, "resume file, repeat for every candidate")
	screenCmd.Flags().StringArrayP("portfolio", "p", nil, "portfolio for a shortlisted candidate as <candidate id>=<path>")
	screenCmd.Flags().Bool("final", false, "run the final selection even without portfolios")
	addJDFlags(screenCmd)
	addOutputFlags(screenCmd)
}

func screen(cmd *cobra.Command) {
	ctx := context.Background()
	l, config := setup(true)
	m := newMachine(mustAnalyzer(ctx, config, l), config, l)
	out := &printer{w: cmd.OutOrStdout()}

	resumes, _ := cmd.Flags().GetStringArray("resume")
	portfolioFlags, _ := cmd.Flags().GetStringArray("portfolio")
	final, _ := cmd.Flags().GetBool("final")

	portfolios, err := parsePortfolios(portfolioFlags)
	if err != nil {
		l.Fatal("parsing portfolios", zap.Error(err))
	}

	files := make([]document.File, 0, len(resumes))
	for _, r := range resumes {
		files = append(files, document.NewLocalFile(r))
	}

	if err := m.SelectFlow(workflow.FlowBulk); err != nil {
		l.Fatal("selecting the flow", zap.Error(err))
	}
	if err := m.AddResumes(files...); err != nil {
		l.Warn("some resumes were skipped", zap.Error(err))
	}
	if err := applyJDFlags(cmd, m); err != nil {
		l.Fatal("preparing the screening", zap.Error(err))
	}

	if err := submit(ctx, m, out, m.SubmitBulk); err != nil {
		l.Fatal("screening failed", zap.Error(err))
	}

	if len(portfolios) > 0 || final {
		for id, path := range portfolios {
			if err := m.SetCandidatePortfolio(id, document.NewLocalFile(path)); err != nil {
				l.Fatal("attaching a portfolio", zap.Int("candidate_id", id), zap.Error(err))
			}
		}
		fmt.Fprintln(out.w)
		if err := submit(ctx, m, out, m.SubmitFinal); err != nil {
			l.Fatal("final selection failed", zap.Error(err))
		}
	}

	if err := writeExport(cmd, m, config, l); err != nil {
		l.Fatal("writing the export", zap.Error(err))
	}
}

func parsePortfolios(flags []string) (map[int]string, error) {
	out := make(map[int]string, len(flags))
	for _, f := range flags {
		idText, path, ok := strings.Cut(f, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("portfolio %q: expected <candidate id>=<path>", f)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idText))
		if err != nil {
			return nil, fmt.Errorf("portfolio %q: candidate id: %w", f, err)
		}
		out[id] = path
	}
	return out, nil
}
