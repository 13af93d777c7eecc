package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/export"
	"github.com/spigell/hr-gpt/internal/report"
	"github.com/spigell/hr-gpt/internal/workflow"
)

const (
	PromptIndividual      = "개별 분석 (이력서 1건)"
	PromptBulk            = "여러 이력서 동시 분석"
	PromptExit            = "Exit"
	PromptSetResume       = "Set resume"
	PromptSetPortfolio    = "Set portfolio"
	PromptAddResume       = "Add resume"
	PromptRemoveResume    = "Remove resume"
	PromptJDText          = "Enter JD text"
	PromptJDFile          = "Choose JD file"
	PromptAnalyze         = "Analyze"
	PromptAttachPortfolio = "Attach portfolio to a candidate"
	PromptSelectFinal     = "Select final candidates"
	PromptExportCSV       = "Export CSV"
	PromptExportXLSX      = "Export XLSX"
	PromptStartOver       = "Start over"
)

var errExit = errors.New("exit requested")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the interactive screening session",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// interactive drives the machine from terminal menus, one menu per phase.
type interactive struct {
	ctx     context.Context
	m       *workflow.Machine
	out     *printer
	logger  *zap.Logger
	exports string
}

var _ workflow.Renderer = (*interactive)(nil)

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx := context.Background()
	l, config := setup(true)

	ui := &interactive{
		ctx:     ctx,
		m:       newMachine(mustAnalyzer(ctx, config, l), config, l),
		out:     &printer{w: cmd.OutOrStdout()},
		logger:  l,
		exports: ".",
	}

	for {
		if err := workflow.Dispatch(ui.m.View(), ui); err != nil {
			if errors.Is(err, errExit) || errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				l.Info("exiting", zap.String("reason", "requested by user"))
				return
			}
			l.Fatal("exiting", zap.Error(err))
		}
	}
}

func (ui *interactive) FlowSelection(workflow.View) error {
	action, err := choose("분석 방식을 선택하세요", PromptIndividual, PromptBulk, PromptExit)
	if err != nil {
		return err
	}

	switch action {
	case PromptIndividual:
		return ui.m.SelectFlow(workflow.FlowIndividual)
	case PromptBulk:
		return ui.m.SelectFlow(workflow.FlowBulk)
	}
	return errExit
}

func (ui *interactive) IndividualInput(v workflow.View) error {
	ui.showInputs(v)

	action, err := choose("개별 분석", PromptSetResume, PromptSetPortfolio, PromptJDText, PromptJDFile, PromptAnalyze, PromptStartOver)
	if err != nil {
		return err
	}

	switch action {
	case PromptSetResume:
		return ui.withFile("이력서 파일", ui.m.SetResume)
	case PromptSetPortfolio:
		return ui.withFile("포트폴리오 파일", ui.m.SetPortfolio)
	case PromptJDText:
		return ui.jdText()
	case PromptJDFile:
		return ui.withFile("JD 파일", ui.m.SetJDFile)
	case PromptAnalyze:
		return ui.submit(ui.m.SubmitIndividual)
	}
	ui.m.Reset()
	return nil
}

func (ui *interactive) BulkInput(v workflow.View) error {
	ui.showInputs(v)

	action, err := choose("여러 이력서 동시 분석", PromptAddResume, PromptRemoveResume, PromptJDText, PromptJDFile, PromptAnalyze, PromptStartOver)
	if err != nil {
		return err
	}

	switch action {
	case PromptAddResume:
		return ui.withFile("이력서 파일", func(f document.File) error {
			err := ui.m.AddResumes(f)
			if errors.Is(err, workflow.ErrTooManyResumes) {
				return nil
			}
			return err
		})
	case PromptRemoveResume:
		return ui.removeResume(v)
	case PromptJDText:
		return ui.jdText()
	case PromptJDFile:
		return ui.withFile("JD 파일", ui.m.SetJDFile)
	case PromptAnalyze:
		if !ui.m.CanSubmitBulk() {
			fmt.Fprintln(ui.out.w, workflow.MsgBulkRequired)
			return nil
		}
		return ui.submit(ui.m.SubmitBulk)
	}
	ui.m.Reset()
	return nil
}

// Loading is only visible if another goroutine holds the machine; the menu loop submits synchronously.
func (ui *interactive) Loading(v workflow.View) error {
	return ui.out.Loading(v)
}

func (ui *interactive) ReportIndividual(v workflow.View) error {
	if err := ui.out.ReportIndividual(v); err != nil {
		return err
	}
	return ui.reportMenu()
}

func (ui *interactive) ReportBulk(v workflow.View) error {
	if err := ui.out.ReportBulk(v); err != nil {
		return err
	}
	if v.FinalSelected() {
		return ui.reportMenu()
	}

	action, err := choose("1차 선별 결과", PromptAttachPortfolio, PromptSelectFinal, PromptStartOver, PromptExit)
	if err != nil {
		return err
	}

	switch action {
	case PromptAttachPortfolio:
		return ui.attachPortfolio(v)
	case PromptSelectFinal:
		return ui.submit(ui.m.SubmitFinal)
	case PromptStartOver:
		ui.m.Reset()
		return nil
	}
	return errExit
}

func (ui *interactive) reportMenu() error {
	action, err := choose("리포트", PromptExportCSV, PromptExportXLSX, PromptStartOver, PromptExit)
	if err != nil {
		return err
	}

	switch action {
	case PromptExportCSV:
		return ui.export(export.FormatCSV)
	case PromptExportXLSX:
		return ui.export(export.FormatXLSX)
	case PromptStartOver:
		ui.m.Reset()
		return nil
	}
	return errExit
}

func (ui *interactive) submit(fn func(context.Context) error) error {
	fmt.Fprintln(ui.out.w, loadingMessage(ui.m.View()))
	err := fn(ui.ctx)
	if err != nil {
		// Failures are shown through the view on the next screen.
		ui.logger.Debug("submission failed", zap.Error(err))
	}
	return nil
}

func (ui *interactive) export(format export.Format) error {
	data, name, err := ui.m.Export(format)
	if errors.Is(err, report.ErrUnparsable) {
		fmt.Fprintln(ui.out.w, workflow.MsgReportUnparsable)
		return nil
	}
	if err != nil {
		return err
	}

	path := filepath.Join(ui.exports, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		ui.logger.Warn("export failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(ui.out.w, "저장 실패: %s (%v)\n", path, err)
		return nil
	}
	fmt.Fprintf(ui.out.w, "저장됨: %s\n", path)
	return nil
}

func (ui *interactive) showInputs(v workflow.View) {
	w := ui.out.w
	fmt.Fprintln(w)
	if v.Flow == workflow.FlowIndividual {
		fmt.Fprintf(w, "이력서: %s\n포트폴리오: %s\n", orDash(v.ResumeName), orDash(v.PortfolioName))
	} else {
		fmt.Fprintf(w, "이력서 (%d/%d):\n", len(v.ResumeNames), v.MaxResumes)
		for i, name := range v.ResumeNames {
			fmt.Fprintf(w, "  %d. %s\n", i+1, name)
		}
	}
	if v.JDMode == workflow.JDModeFile {
		fmt.Fprintf(w, "JD 파일: %s\n", orDash(v.JDFileName))
	} else {
		fmt.Fprintf(w, "JD 텍스트: %s\n", orDash(firstLine(v.JDText)))
	}
	ui.out.inputError(v)
}

func (ui *interactive) withFile(label string, set func(document.File) error) error {
	path, err := (&promptui.Prompt{Label: label, Validate: fileExists}).Run()
	if err != nil {
		return err
	}
	return set(document.NewLocalFile(strings.TrimSpace(path)))
}

func (ui *interactive) jdText() error {
	fmt.Fprintln(ui.out.w, "JD 텍스트를 입력하세요. 빈 줄로 끝냅니다.")
	text, err := readParagraph(os.Stdin)
	if err != nil {
		return err
	}
	return ui.m.SetJDText(text)
}

func (ui *interactive) removeResume(v workflow.View) error {
	if len(v.ResumeNames) == 0 {
		return nil
	}
	sel := promptui.Select{Label: "삭제할 이력서", Items: v.ResumeNames}
	index, _, err := sel.Run()
	if err != nil {
		return err
	}
	return ui.m.RemoveResume(index)
}

func (ui *interactive) attachPortfolio(v workflow.View) error {
	items := make([]string, 0, len(v.Initial))
	for _, c := range v.Initial {
		items = append(items, strconv.Itoa(c.CandidateID)+" "+c.FileName)
	}
	sel := promptui.Select{Label: "후보자", Items: items}
	index, _, err := sel.Run()
	if err != nil {
		return err
	}

	id := v.Initial[index].CandidateID
	return ui.withFile("포트폴리오 파일", func(f document.File) error {
		return ui.m.SetCandidatePortfolio(id, f)
	})
}

func choose(label string, items ...string) (string, error) {
	sel := promptui.Select{Label: label, Items: items, Size: len(items)}
	_, action, err := sel.Run()
	return action, err
}

func fileExists(input string) error {
	info, err := os.Stat(strings.TrimSpace(input))
	if err != nil {
		return errors.New("file not found")
	}
	if info.IsDir() {
		return errors.New("path is a directory")
	}
	return nil
}

// readParagraph reads byte by byte so the menus keep any input after the blank line.
func readParagraph(r io.Reader) (string, error) {
	var (
		lines []string
		buf   = make([]byte, 1)
		line  strings.Builder
	)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] != '\n' {
				line.WriteByte(buf[0])
				continue
			}
			if strings.TrimSpace(line.String()) == "" {
				return strings.Join(lines, "\n"), nil
			}
			lines = append(lines, line.String())
			line.Reset()
		}
		if errors.Is(err, io.EOF) {
			if line.Len() > 0 {
				lines = append(lines, line.String())
			}
			return strings.Join(lines, "\n"), nil
		}
		if err != nil {
			return "", err
		}
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
