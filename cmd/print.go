package cmd

import (
	"fmt"
	"io"

	"github.com/spigell/hr-gpt/internal/report"
	"github.com/spigell/hr-gpt/internal/workflow"
)

// printer renders views as plain text; input screens only surface their error message.
type printer struct {
	w io.Writer
}

var _ workflow.Renderer = (*printer)(nil)

func (p *printer) FlowSelection(workflow.View) error { return nil }

func (p *printer) IndividualInput(v workflow.View) error { return p.inputError(v) }

func (p *printer) BulkInput(v workflow.View) error { return p.inputError(v) }

func (p *printer) Loading(v workflow.View) error {
	fmt.Fprintf(p.w, "%s\n", v.Loading)
	return nil
}

func (p *printer) ReportIndividual(v workflow.View) error {
	if v.ReportError != nil || v.Report == nil {
		fmt.Fprintf(p.w, "%s\n\n%s\n", workflow.MsgReportUnparsable, v.ReportText)
		return nil
	}

	r := v.Report
	fmt.Fprintf(p.w, "== 인재 분석 리포트: %s ==\n", v.ResumeName)
	fmt.Fprintf(p.w, "점수: %s / 평가: %s [%s]\n", r.Summary.Score, r.Summary.Rating, report.RatingTier(r.Summary.Rating))
	p.list("Green flags", "+", r.Summary.GreenFlags)
	p.list("Red flags", "!", r.Summary.RedFlags)
	p.list("핵심 역량", "*", r.Summary.CoreCompetencies)

	fmt.Fprintf(p.w, "\n-- 상세 분석 --\n%s\n", r.Details)

	fmt.Fprintf(p.w, "\n-- 면접 질문 리스트 --\n")
	p.numbered("기술 역량", r.Questions.Technical)
	p.numbered("경험 기반", r.Questions.Behavioral)
	p.numbered("문화 적합성", r.Questions.Cultural)

	fmt.Fprintf(p.w, "\n-- 검증 체크리스트 --\n")
	for _, item := range r.Checklist {
		fmt.Fprintf(p.w, "  [ ] %s\n", item)
	}
	return nil
}

func (p *printer) ReportBulk(v workflow.View) error {
	if v.Error != "" {
		fmt.Fprintf(p.w, "%s\n", v.Error)
	}

	if !v.FinalSelected() {
		fmt.Fprintf(p.w, "== 1차 선별 결과 (상위 %d명) ==\n", len(v.Initial))
		for _, c := range v.Initial {
			fmt.Fprintf(p.w, "\n#%d %s  %d점 [%s]\n  %s\n", c.CandidateID, c.FileName, c.Score, report.ScoreTier(c.Score), c.Summary)
			p.list("  Green flags", "  +", c.GreenFlags)
			p.list("  Red flags", "  !", c.RedFlags)
			if name, ok := v.Portfolios[c.CandidateID]; ok {
				fmt.Fprintf(p.w, "  포트폴리오: %s\n", name)
			}
		}
		return nil
	}

	fmt.Fprintf(p.w, "== 최종 후보자 (%d명) ==\n", len(v.Final))
	for _, c := range v.Final {
		fmt.Fprintf(p.w, "\n#%d %s  %d점 [%s]\n  %s\n", c.CandidateID, c.FileName, c.FinalScore, report.ScoreTier(c.FinalScore), c.FinalSummary)
		p.numbered("  기술 역량", c.InterviewQuestions.Technical)
		p.numbered("  경험 기반", c.InterviewQuestions.Behavioral)
		p.numbered("  문화 적합성", c.InterviewQuestions.Cultural)
		p.list("  검증 체크리스트", "  [ ]", c.VerificationChecklist)
	}
	return nil
}

func (p *printer) inputError(v workflow.View) error {
	if v.Error != "" {
		fmt.Fprintf(p.w, "%s\n", v.Error)
	}
	return nil
}

func (p *printer) list(title, bullet string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(p.w, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(p.w, "  %s %s\n", bullet, item)
	}
}

func (p *printer) numbered(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(p.w, "%s:\n", title)
	for i, item := range items {
		fmt.Fprintf(p.w, "  %d. %s\n", i+1, item)
	}
}
