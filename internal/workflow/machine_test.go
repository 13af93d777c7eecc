package workflow

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/spigell/hr-gpt/internal/ai"
	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/export"
	"github.com/spigell/hr-gpt/internal/report"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const sampleReport = `---
[핵심 요약]
SCORE: 85
RATING: 적합
GREEN_FLAGS:
- Python 5년 경력
- 대규모 트래픽 경험
RED_FLAGS:
- 잦은 이직
CORE_COMPETENCIES:
- Django
- AWS
- 팀 리딩
[핵심 요약 끝]
---
[상세 분석]
기술 스택이 JD와 대부분 일치합니다.
[상세 분석 끝]
---
[면접 질문 리스트]
# 기술 역량
- Django ORM 최적화 경험은?
# 경험 기반
- 장애 대응 사례는?
# 문화 적합성
- 선호하는 협업 방식은?
[면접 질문 리스트 끝]
---
[검증 체크리스트]
- 트래픽 수치 확인
[검증 체크리스트 끝]
---`

type fakeAnalyzer struct {
	mu      sync.Mutex
	text    string
	initial []candidates.Initial
	final   []candidates.Final
	err     error

	// gate, when set, blocks every call until it is closed.
	gate    chan struct{}
	started chan struct{}

	individual []ai.IndividualInput
	bulk       []ai.BulkInput
	finals     []ai.FinalInput
}

func (f *fakeAnalyzer) wait(ctx context.Context) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
		}
	}
}

func (f *fakeAnalyzer) Individual(ctx context.Context, in ai.IndividualInput) (string, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.individual = append(f.individual, in)
	return f.text, f.err
}

func (f *fakeAnalyzer) InitialBulk(ctx context.Context, in ai.BulkInput) ([]candidates.Initial, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulk = append(f.bulk, in)
	return f.initial, f.err
}

func (f *fakeAnalyzer) FinalBulk(ctx context.Context, in ai.FinalInput) ([]candidates.Final, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finals = append(f.finals, in)
	return f.final, f.err
}

func file(name string) document.File {
	return &document.Bytes{FileName: name, Content: []byte("content of " + name)}
}

func newMachine(t *testing.T, a Analyzer, opts ...Option) *Machine {
	t.Helper()
	return New(a, zap.NewNop(), opts...)
}

func TestIndividualEndToEnd(t *testing.T) {
	fake := &fakeAnalyzer{text: sampleReport}
	m := newMachine(t, fake)

	if err := m.SelectFlow(FlowIndividual); err != nil {
		t.Fatalf("select flow: %v", err)
	}
	if err := m.SetResume(file("A.pdf")); err != nil {
		t.Fatalf("set resume: %v", err)
	}
	if err := m.SetJDText("Backend engineer, 3+ years, Python"); err != nil {
		t.Fatalf("set jd: %v", err)
	}
	if !m.View().CanSubmit {
		t.Fatalf("expected submit to be enabled")
	}

	if err := m.SubmitIndividual(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	v := m.View()
	if v.Phase != PhaseReportIndividual {
		t.Fatalf("expected report-individual, got %s", v.Phase)
	}
	if v.ReportError != nil {
		t.Fatalf("unexpected parse error: %v", v.ReportError)
	}
	if v.Report.Summary.Score != "85" {
		t.Fatalf("expected score 85, got %q", v.Report.Summary.Score)
	}
	if tier := report.RatingTier(v.Report.Summary.Rating); tier != report.TierGood {
		t.Fatalf("expected good tier, got %s", tier)
	}
	if len(v.Report.Summary.GreenFlags) != 2 || len(v.Report.Summary.RedFlags) != 1 || len(v.Report.Summary.CoreCompetencies) != 3 {
		t.Fatalf("unexpected summary lists %+v", v.Report.Summary)
	}

	if got := fake.individual[0]; got.JDText != "Backend engineer, 3+ years, Python" || got.Resume.Name() != "A.pdf" || got.JDFile != nil {
		t.Fatalf("unexpected analyzer input %+v", got)
	}

	data, name, err := m.Export(export.FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != "HR-GPT_개별리포트_A.csv" {
		t.Fatalf("unexpected file name %q", name)
	}
	lines := strings.Split(string(bytes.TrimPrefix(data, []byte("\ufeff"))), "\r\n")
	if lines[1] != "Summary,Score,85" {
		t.Fatalf("unexpected first data row %q", lines[1])
	}
}

func TestIndividualValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(m *Machine)
	}{
		{name: "nothing selected", setup: func(*Machine) {}},
		{name: "resume without jd", setup: func(m *Machine) { _ = m.SetResume(file("a.pdf")) }},
		{name: "blank jd text", setup: func(m *Machine) {
			_ = m.SetResume(file("a.pdf"))
			_ = m.SetJDText("   ")
		}},
		{name: "jd without resume", setup: func(m *Machine) { _ = m.SetJDText("jd") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAnalyzer{text: sampleReport}
			m := newMachine(t, fake)
			_ = m.SelectFlow(FlowIndividual)
			tt.setup(m)

			err := m.SubmitIndividual(context.Background())
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			v := m.View()
			if v.Phase != PhaseIndividualInput || v.Error != MsgIndividualRequired {
				t.Fatalf("expected input phase with error, got %s %q", v.Phase, v.Error)
			}
			if len(fake.individual) != 0 {
				t.Fatalf("analyzer must not be called")
			}
		})
	}
}

func TestIndividualFailureRollsBack(t *testing.T) {
	fake := &fakeAnalyzer{err: ai.ErrRequest}
	m := newMachine(t, fake)
	_ = m.SelectFlow(FlowIndividual)
	_ = m.SetResume(file("a.pdf"))
	_ = m.SetJDText("jd")

	if err := m.SubmitIndividual(context.Background()); !errors.Is(err, ai.ErrRequest) {
		t.Fatalf("expected request error, got %v", err)
	}
	v := m.View()
	if v.Phase != PhaseIndividualInput || v.Error != MsgRequestFailed {
		t.Fatalf("expected rollback with message, got %s %q", v.Phase, v.Error)
	}
	if v.ResumeName != "a.pdf" || v.JDText != "jd" {
		t.Fatalf("inputs must survive a failed request")
	}
}

func TestUnparsableReport(t *testing.T) {
	m := newMachine(t, &fakeAnalyzer{text: "no sections here"})
	_ = m.SelectFlow(FlowIndividual)
	_ = m.SetResume(file("a.pdf"))
	_ = m.SetJDText("jd")
	if err := m.SubmitIndividual(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	v := m.View()
	if v.ReportError != nil {
		t.Fatalf("missing sections degrade to defaults, got %v", v.ReportError)
	}
	if v.Report.Summary.Score != report.NotAvailable {
		t.Fatalf("expected N/A score, got %q", v.Report.Summary.Score)
	}
}

func TestJDModeSwitchClearsOtherInput(t *testing.T) {
	m := newMachine(t, &fakeAnalyzer{})
	_ = m.SelectFlow(FlowIndividual)

	_ = m.SetJDText("text jd")
	_ = m.SetJDMode(JDModeFile)
	if v := m.View(); v.JDText != "" || v.JDMode != JDModeFile {
		t.Fatalf("switching to file must clear text, got %+v", v)
	}

	_ = m.SetJDFile(file("jd.pdf"))
	_ = m.SetJDMode(JDModeText)
	if v := m.View(); v.JDFileName != "" || v.JDMode != JDModeText {
		t.Fatalf("switching to text must clear file, got %+v", v)
	}
}

func initialList() []candidates.Initial {
	return []candidates.Initial{
		{CandidateID: 2, FileName: "b.pdf", Score: 91, Summary: "strong", GreenFlags: []string{"go"}, RedFlags: []string{}},
		{CandidateID: 1, FileName: "a.pdf", Score: 72, Summary: "ok", GreenFlags: []string{}, RedFlags: []string{"gap"}},
	}
}

func finalList() []candidates.Final {
	return []candidates.Final{{
		CandidateID:  2,
		FileName:     "b.pdf",
		FinalScore:   93,
		FinalSummary: "hire",
		InterviewQuestions: report.InterviewQuestions{
			Technical:  []string{"t1"},
			Behavioral: []string{"b1"},
			Cultural:   []string{"c1"},
		},
		VerificationChecklist: []string{"v1"},
	}}
}

func TestBulkEndToEnd(t *testing.T) {
	fake := &fakeAnalyzer{initial: initialList(), final: finalList()}
	m := newMachine(t, fake)

	_ = m.SelectFlow(FlowBulk)
	if err := m.AddResumes(file("a.pdf"), file("b.pdf")); err != nil {
		t.Fatalf("add resumes: %v", err)
	}
	_ = m.SetJDFile(file("jd.pdf"))

	if err := m.SubmitBulk(context.Background()); err != nil {
		t.Fatalf("submit bulk: %v", err)
	}
	v := m.View()
	if v.Phase != PhaseReportBulk || v.FinalSelected() || len(v.Initial) != 2 {
		t.Fatalf("expected first-pass report, got %+v", v)
	}

	if err := m.SetCandidatePortfolio(1, file("a-portfolio.pdf")); err != nil {
		t.Fatalf("set portfolio: %v", err)
	}
	if err := m.SetCandidatePortfolio(2, file("b-portfolio.pdf")); err != nil {
		t.Fatalf("set portfolio: %v", err)
	}
	if err := m.SetCandidatePortfolio(7, file("x.pdf")); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown candidate, got %v", err)
	}

	if _, _, err := m.Export(export.FormatCSV); !errors.Is(err, ErrNoReport) {
		t.Fatalf("first pass has no export, got %v", err)
	}

	if err := m.SubmitFinal(context.Background()); err != nil {
		t.Fatalf("submit final: %v", err)
	}

	in := fake.finals[0]
	if len(in.Portfolios) != 2 || in.Portfolios[0].CandidateID != 2 || in.Portfolios[1].CandidateID != 1 {
		t.Fatalf("portfolios must follow first-pass order, got %+v", in.Portfolios)
	}
	if in.JDFile == nil || in.JDFile.Name() != "jd.pdf" {
		t.Fatalf("jd file not forwarded")
	}

	v = m.View()
	if v.Phase != PhaseReportBulk || !v.FinalSelected() || v.Final[0].FinalScore != 93 {
		t.Fatalf("expected final report, got %+v", v)
	}
	if err := m.SubmitFinal(context.Background()); !errors.Is(err, ErrPhase) {
		t.Fatalf("second final submit must be rejected, got %v", err)
	}

	data, name, err := m.Export(export.FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if name != export.BulkFileName || !bytes.Contains(data, []byte("ID,File Name,Score,Summary,Type,Question/Checklist Item")) {
		t.Fatalf("unexpected bulk export %q %q", name, data)
	}
}

func TestBulkValidation(t *testing.T) {
	tests := []struct {
		name      string
		resumes   []document.File
		jd        string
		canSubmit bool
		message   string
	}{
		{name: "single resume", resumes: []document.File{file("a.pdf")}, jd: "jd", canSubmit: true, message: MsgBulkMinResumes},
		{name: "no jd", resumes: []document.File{file("a.pdf"), file("b.pdf")}, canSubmit: false, message: MsgBulkRequired},
		{name: "nothing", canSubmit: false, message: MsgBulkRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAnalyzer{initial: initialList()}
			m := newMachine(t, fake)
			_ = m.SelectFlow(FlowBulk)
			_ = m.AddResumes(tt.resumes...)
			if tt.jd != "" {
				_ = m.SetJDText(tt.jd)
			}

			if got := m.CanSubmitBulk(); got != tt.canSubmit {
				t.Fatalf("CanSubmitBulk = %v, want %v", got, tt.canSubmit)
			}
			if err := m.SubmitBulk(context.Background()); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			v := m.View()
			if v.Phase != PhaseBulkInput || v.Error != tt.message {
				t.Fatalf("expected bulk-input with %q, got %s %q", tt.message, v.Phase, v.Error)
			}
			if len(fake.bulk) != 0 {
				t.Fatalf("analyzer must not be called")
			}
		})
	}
}

func TestResumeCap(t *testing.T) {
	m := newMachine(t, &fakeAnalyzer{}, WithMaxResumes(3))
	_ = m.SelectFlow(FlowBulk)

	_ = m.AddResumes(file("1.pdf"), file("2.pdf"))
	err := m.AddResumes(file("3.pdf"), file("4.pdf"))
	if !errors.Is(err, ErrTooManyResumes) {
		t.Fatalf("expected cap error, got %v", err)
	}

	v := m.View()
	if strings.Join(v.ResumeNames, ",") != "1.pdf,2.pdf,3.pdf" {
		t.Fatalf("expected first slots kept, got %v", v.ResumeNames)
	}
	if !strings.Contains(v.Error, "3개") {
		t.Fatalf("expected cap message, got %q", v.Error)
	}

	if err := m.RemoveResume(0); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.RemoveResume(5); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for bad index, got %v", err)
	}
	if got := m.View().ResumeNames; strings.Join(got, ",") != "2.pdf,3.pdf" {
		t.Fatalf("unexpected resumes after removal %v", got)
	}
}

func TestFinalFailureKeepsFirstPass(t *testing.T) {
	fake := &fakeAnalyzer{initial: initialList()}
	m := newMachine(t, fake)
	_ = m.SelectFlow(FlowBulk)
	_ = m.AddResumes(file("a.pdf"), file("b.pdf"))
	_ = m.SetJDText("jd")
	if err := m.SubmitBulk(context.Background()); err != nil {
		t.Fatalf("submit bulk: %v", err)
	}

	fake.err = ai.ErrRequest
	if err := m.SubmitFinal(context.Background()); !errors.Is(err, ai.ErrRequest) {
		t.Fatalf("expected request error, got %v", err)
	}

	v := m.View()
	if v.Phase != PhaseReportBulk || v.FinalSelected() || len(v.Initial) != 2 {
		t.Fatalf("expected first pass kept, got %+v", v)
	}
	if v.Error != MsgFinalFailed {
		t.Fatalf("expected final failure message, got %q", v.Error)
	}
}

func TestBusyWhileLoading(t *testing.T) {
	fake := &fakeAnalyzer{text: sampleReport, gate: make(chan struct{}), started: make(chan struct{}, 1)}
	m := newMachine(t, fake)
	_ = m.SelectFlow(FlowIndividual)
	_ = m.SetResume(file("a.pdf"))
	_ = m.SetJDText("jd")

	done := make(chan error, 1)
	go func() { done <- m.SubmitIndividual(context.Background()) }()
	<-fake.started

	if v := m.View(); v.Phase != PhaseLoading || v.Loading != LoadingIndividual {
		t.Fatalf("expected loading view, got %s %q", v.Phase, v.Loading)
	}
	if err := m.SubmitIndividual(context.Background()); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy, got %v", err)
	}
	if err := m.SetResume(file("b.pdf")); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected busy for edits, got %v", err)
	}

	close(fake.gate)
	if err := <-done; err != nil {
		t.Fatalf("submit: %v", err)
	}
	if m.Phase() != PhaseReportIndividual {
		t.Fatalf("expected report, got %s", m.Phase())
	}
}

func TestResetDiscardsInFlightResult(t *testing.T) {
	fake := &fakeAnalyzer{text: sampleReport, gate: make(chan struct{}), started: make(chan struct{}, 1)}
	m := newMachine(t, fake)
	_ = m.SelectFlow(FlowIndividual)
	_ = m.SetResume(file("a.pdf"))
	_ = m.SetJDText("jd")

	done := make(chan error, 1)
	go func() { done <- m.SubmitIndividual(context.Background()) }()
	<-fake.started

	m.Reset()
	close(fake.gate)

	if err := <-done; !errors.Is(err, ErrStale) {
		t.Fatalf("expected stale result, got %v", err)
	}
	v := m.View()
	if v.Phase != PhaseFlowSelection || v.ReportText != "" {
		t.Fatalf("late result must not leak into the view, got %+v", v)
	}
}

func TestResetClearsEverything(t *testing.T) {
	fake := &fakeAnalyzer{initial: initialList()}
	m := newMachine(t, fake)
	_ = m.SelectFlow(FlowBulk)
	_ = m.AddResumes(file("a.pdf"), file("b.pdf"))
	_ = m.SetJDText("jd")
	_ = m.SubmitBulk(context.Background())
	_ = m.SetCandidatePortfolio(1, file("p.pdf"))

	m.Reset()

	v := m.View()
	if v.Phase != PhaseFlowSelection || v.Flow != "" || v.RunID != "" {
		t.Fatalf("expected clean flow selection, got %+v", v)
	}
	if v.JDText != "" || len(v.ResumeNames) != 0 || v.Initial != nil || v.Portfolios != nil || v.Final != nil || v.Error != "" {
		t.Fatalf("reset left state behind: %+v", v)
	}

	if err := m.SelectFlow(FlowIndividual); err != nil {
		t.Fatalf("select after reset: %v", err)
	}
}

func TestPhaseGuards(t *testing.T) {
	m := newMachine(t, &fakeAnalyzer{})

	if err := m.SetResume(file("a.pdf")); !errors.Is(err, ErrPhase) {
		t.Fatalf("expected phase error, got %v", err)
	}
	if err := m.SubmitBulk(context.Background()); !errors.Is(err, ErrPhase) {
		t.Fatalf("expected phase error, got %v", err)
	}
	if err := m.SelectFlow("other"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for unknown flow, got %v", err)
	}

	_ = m.SelectFlow(FlowIndividual)
	if err := m.AddResumes(file("a.pdf")); !errors.Is(err, ErrPhase) {
		t.Fatalf("individual flow has no resume list, got %v", err)
	}
	if err := m.SelectFlow(FlowBulk); !errors.Is(err, ErrPhase) {
		t.Fatalf("flow can only be chosen once per run, got %v", err)
	}
}

func TestTransitionsAreObservedAndLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	var seen []Transition
	m := New(&fakeAnalyzer{text: sampleReport}, zap.New(core), WithObserver(func(tr Transition) {
		seen = append(seen, tr)
	}))

	_ = m.SelectFlow(FlowIndividual)
	_ = m.SetResume(file("a.pdf"))
	_ = m.SetJDText("jd")
	_ = m.SubmitIndividual(context.Background())

	want := []Phase{PhaseIndividualInput, PhaseLoading, PhaseReportIndividual}
	if len(seen) != len(want) {
		t.Fatalf("expected %d transitions, got %+v", len(want), seen)
	}
	for i, p := range want {
		if seen[i].To != p {
			t.Fatalf("transition %d: want %s, got %s", i, p, seen[i].To)
		}
		if seen[i].RunID == "" || seen[i].RunID != seen[0].RunID {
			t.Fatalf("transitions must share one run id")
		}
	}

	entries := logs.FilterMessage("phase transition").All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 transition logs, got %d", len(entries))
	}
	fields := entries[2].ContextMap()
	if fields["from"] != "loading" || fields["to"] != "report-individual" || fields["run_id"] != seen[0].RunID || fields["flow"] != "individual" {
		t.Fatalf("unexpected log fields %v", fields)
	}
}
