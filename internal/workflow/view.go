package workflow

import (
	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/report"
)

// View is a read-only snapshot of the machine for renderers.
type View struct {
	Phase   Phase
	Flow    Flow
	RunID   string
	Error   string
	Loading string

	ResumeName    string
	PortfolioName string
	JDMode        JDMode
	JDText        string
	JDFileName    string
	ResumeNames   []string
	MaxResumes    int
	CanSubmit     bool

	// Report is parsed from ReportText on every snapshot; ReportError is report.ErrUnparsable
	// when that fails.
	ReportText  string
	Report      *report.Report
	ReportError error

	Initial []candidates.Initial
	// Portfolios maps candidate id to the attached file name.
	Portfolios map[int]string
	Final      []candidates.Final
}

// FinalSelected reports whether the bulk report shows the second pass.
func (v View) FinalSelected() bool {
	return v.Final != nil
}

func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := View{
		Phase:      m.phase,
		Flow:       m.flow,
		RunID:      m.runID,
		Error:      m.err,
		Loading:    m.loading,
		JDMode:     m.jdMode,
		JDText:     m.jdText,
		MaxResumes: m.maxResumes,
		ReportText: m.reportText,
	}

	if m.resume != nil {
		v.ResumeName = m.resume.Name()
	}
	if m.portfolio != nil {
		v.PortfolioName = m.portfolio.Name()
	}
	if m.jdFile != nil {
		v.JDFileName = m.jdFile.Name()
	}
	for _, f := range m.resumes {
		v.ResumeNames = append(v.ResumeNames, f.Name())
	}

	switch m.flow {
	case FlowIndividual:
		v.CanSubmit = m.resume != nil && m.hasJD()
	case FlowBulk:
		v.CanSubmit = m.canSubmitBulk()
	}

	if m.phase == PhaseReportIndividual {
		v.Report, v.ReportError = report.Parse(m.reportText)
	}

	if m.initial != nil {
		v.Initial = append([]candidates.Initial{}, m.initial...)
		v.Portfolios = make(map[int]string, len(m.portfolios))
		for id, f := range m.portfolios {
			v.Portfolios[id] = f.Name()
		}
	}
	if m.final != nil {
		v.Final = append([]candidates.Final{}, m.final...)
	}

	return v
}
