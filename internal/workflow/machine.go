package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spigell/hr-gpt/internal/ai"
	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/export"
	"github.com/spigell/hr-gpt/internal/logger"
	"github.com/spigell/hr-gpt/internal/report"
	"go.uber.org/zap"
)

const DefaultMaxResumes = 10

var (
	ErrValidation     = errors.New("invalid input")
	ErrBusy           = errors.New("analysis already in progress")
	ErrPhase          = errors.New("action not available in current phase")
	ErrTooManyResumes = errors.New("too many resumes")
	ErrStale          = errors.New("result discarded after reset")
	ErrNoReport       = errors.New("no report to export")
)

// Analyzer performs the three completion calls of the workflow.
type Analyzer interface {
	Individual(ctx context.Context, in ai.IndividualInput) (string, error)
	InitialBulk(ctx context.Context, in ai.BulkInput) ([]candidates.Initial, error)
	FinalBulk(ctx context.Context, in ai.FinalInput) ([]candidates.Final, error)
}

// Transition is reported to observers on every phase change.
type Transition struct {
	RunID string
	Flow  Flow
	From  Phase
	To    Phase
}

type Option func(*Machine)

func WithMaxResumes(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxResumes = n
		}
	}
}

// WithObserver registers fn for phase changes. fn runs with the machine locked and must not
// call back into it.
func WithObserver(fn func(Transition)) Option {
	return func(m *Machine) {
		if fn != nil {
			m.observers = append(m.observers, fn)
		}
	}
}

type state struct {
	phase   Phase
	flow    Flow
	runID   string
	err     string
	loading string

	resume    document.File
	portfolio document.File
	jdMode    JDMode
	jdText    string
	jdFile    document.File
	resumes   []document.File

	reportText string
	initial    []candidates.Initial
	portfolios map[int]document.File
	final      []candidates.Final
}

// Machine drives one analysis session. It is safe for concurrent use; at most one completion
// call is in flight at a time.
type Machine struct {
	mu         sync.Mutex
	analyzer   Analyzer
	logger     *zap.Logger
	maxResumes int
	observers  []func(Transition)

	// generation changes on every submit and reset so late results can be recognised.
	generation uint64
	state
}

func New(analyzer Analyzer, log *zap.Logger, opts ...Option) *Machine {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Machine{
		analyzer:   analyzer,
		logger:     log,
		maxResumes: DefaultMaxResumes,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) SelectFlow(flow Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseFlowSelection); err != nil {
		return err
	}

	switch flow {
	case FlowIndividual:
		m.start(flow, PhaseIndividualInput)
	case FlowBulk:
		m.start(flow, PhaseBulkInput)
	default:
		return fmt.Errorf("%w: unknown flow %q", ErrValidation, flow)
	}
	return nil
}

func (m *Machine) SetResume(f document.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseIndividualInput); err != nil {
		return err
	}
	m.resume = f
	return nil
}

// SetPortfolio sets the optional portfolio of the individual flow; nil removes it.
func (m *Machine) SetPortfolio(f document.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseIndividualInput); err != nil {
		return err
	}
	m.portfolio = f
	return nil
}

// SetJDMode switches the job description input and clears the inactive one.
func (m *Machine) SetJDMode(mode JDMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireInput(); err != nil {
		return err
	}
	m.setJDMode(mode)
	return nil
}

func (m *Machine) SetJDText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireInput(); err != nil {
		return err
	}
	m.setJDMode(JDModeText)
	m.jdText = text
	return nil
}

func (m *Machine) SetJDFile(f document.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.requireInput(); err != nil {
		return err
	}
	m.setJDMode(JDModeFile)
	m.jdFile = f
	return nil
}

// AddResumes appends files to the bulk selection. Files beyond the cap are dropped and
// ErrTooManyResumes is returned after the free slots are filled.
func (m *Machine) AddResumes(files ...document.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseBulkInput); err != nil {
		return err
	}

	room := m.maxResumes - len(m.resumes)
	if room < 0 {
		room = 0
	}
	if len(files) > room {
		m.resumes = append(m.resumes, files[:room]...)
		m.err = fmt.Sprintf(MsgTooManyResumes, m.maxResumes, m.maxResumes)
		m.logger.Warn("resume cap reached", zap.Int("max", m.maxResumes), zap.Int("dropped", len(files)-room))
		return fmt.Errorf("%w: at most %d resumes", ErrTooManyResumes, m.maxResumes)
	}

	m.resumes = append(m.resumes, files...)
	return nil
}

// ClearResumes empties the bulk selection.
func (m *Machine) ClearResumes() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseBulkInput); err != nil {
		return err
	}
	m.resumes = nil
	return nil
}

func (m *Machine) RemoveResume(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseBulkInput); err != nil {
		return err
	}
	if index < 0 || index >= len(m.resumes) {
		return fmt.Errorf("%w: no resume at index %d", ErrValidation, index)
	}
	m.resumes = append(m.resumes[:index], m.resumes[index+1:]...)
	return nil
}

// CanSubmitBulk reports whether the bulk submit control is enabled: at least one resume and a
// job description. Submitting still requires two resumes.
func (m *Machine) CanSubmitBulk() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canSubmitBulk()
}

// SetCandidatePortfolio attaches a portfolio to a first-pass candidate; nil removes it.
func (m *Machine) SetCandidatePortfolio(candidateID int, f document.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.require(PhaseReportBulk); err != nil {
		return err
	}
	if m.final != nil {
		return fmt.Errorf("%w: final candidates already selected", ErrPhase)
	}
	if _, ok := candidates.Find(m.initial, candidateID); !ok {
		return fmt.Errorf("%w: unknown candidate %d", ErrValidation, candidateID)
	}

	if f == nil {
		delete(m.portfolios, candidateID)
		return nil
	}
	m.portfolios[candidateID] = f
	return nil
}

// SubmitIndividual requests the single-candidate report.
func (m *Machine) SubmitIndividual(ctx context.Context) error {
	m.mu.Lock()
	if err := m.require(PhaseIndividualInput); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.resume == nil || !m.hasJD() {
		m.err = MsgIndividualRequired
		m.mu.Unlock()
		return fmt.Errorf("%w: resume and job description are required", ErrValidation)
	}

	in := ai.IndividualInput{Resume: m.resume, Portfolio: m.portfolio, JDText: m.jdText, JDFile: m.jdFile}
	gen, log := m.begin(LoadingIndividual)
	m.mu.Unlock()

	text, err := m.analyzer.Individual(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()

	if stale := m.current(gen, log); stale != nil {
		return stale
	}
	if err != nil {
		m.fail(log, err, MsgRequestFailed, PhaseIndividualInput)
		return err
	}

	m.reportText = text
	if _, perr := report.Parse(text); perr != nil {
		log.Warn("report text could not be parsed", zap.Error(perr))
	}
	m.transition(PhaseReportIndividual)
	return nil
}

// SubmitBulk runs the first bulk pass over all selected resumes.
func (m *Machine) SubmitBulk(ctx context.Context) error {
	m.mu.Lock()
	if err := m.require(PhaseBulkInput); err != nil {
		m.mu.Unlock()
		return err
	}
	if !m.canSubmitBulk() {
		m.err = MsgBulkRequired
		m.mu.Unlock()
		return fmt.Errorf("%w: resumes and job description are required", ErrValidation)
	}
	if len(m.resumes) < 2 {
		m.err = MsgBulkMinResumes
		m.mu.Unlock()
		return fmt.Errorf("%w: need at least 2 resumes, got %d", ErrValidation, len(m.resumes))
	}

	in := ai.BulkInput{Resumes: append([]document.File{}, m.resumes...), JDText: m.jdText, JDFile: m.jdFile}
	gen, log := m.begin(LoadingBulk)
	m.mu.Unlock()

	list, err := m.analyzer.InitialBulk(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()

	if stale := m.current(gen, log); stale != nil {
		return stale
	}
	if err != nil {
		m.fail(log, err, MsgRequestFailed, PhaseBulkInput)
		return err
	}

	m.initial = list
	m.portfolios = map[int]document.File{}
	m.final = nil
	log.Info("initial candidates selected", zap.Int("resumes", len(in.Resumes)), zap.Int("candidates", len(list)))
	m.transition(PhaseReportBulk)
	return nil
}

// SubmitFinal runs the second bulk pass with the attached portfolios. A failure keeps the
// first-pass result on screen.
func (m *Machine) SubmitFinal(ctx context.Context) error {
	m.mu.Lock()
	if err := m.require(PhaseReportBulk); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.final != nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: final candidates already selected", ErrPhase)
	}

	in := ai.FinalInput{Initial: m.initial, JDText: m.jdText, JDFile: m.jdFile}
	for _, c := range m.initial {
		if f, ok := m.portfolios[c.CandidateID]; ok {
			in.Portfolios = append(in.Portfolios, ai.Portfolio{CandidateID: c.CandidateID, File: f})
		}
	}
	gen, log := m.begin(LoadingFinal)
	m.mu.Unlock()

	list, err := m.analyzer.FinalBulk(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()

	if stale := m.current(gen, log); stale != nil {
		return stale
	}
	if err != nil {
		m.fail(log, err, MsgFinalFailed, PhaseReportBulk)
		return err
	}

	m.final = list
	log.Info("final candidates selected", zap.Int("portfolios", len(in.Portfolios)), zap.Int("candidates", len(list)))
	m.transition(PhaseReportBulk)
	return nil
}

// Reset returns to flow selection from any phase and drops all inputs and results. A response
// still in flight is discarded when it arrives.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	from, runID, flow := m.phase, m.runID, m.flow
	m.state = state{phase: from, runID: runID, flow: flow}
	m.transition(PhaseFlowSelection)
	m.runID, m.flow = "", ""
}

// Export renders the current report. Individual reports that cannot be parsed return
// report.ErrUnparsable.
func (m *Machine) Export(format export.Format) ([]byte, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.phase == PhaseReportIndividual:
		rep, err := report.Parse(m.reportText)
		if err != nil {
			return nil, "", err
		}
		data, err := export.Individual(rep, format)
		if err != nil {
			return nil, "", err
		}
		return data, export.IndividualFileName(m.resume.Name(), format), nil
	case m.phase == PhaseReportBulk && m.final != nil:
		data, err := export.Bulk(m.final, format)
		if err != nil {
			return nil, "", err
		}
		return data, export.BulkFileNameFor(format), nil
	}
	return nil, "", ErrNoReport
}

func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

func (m *Machine) require(phase Phase) error {
	if m.phase == PhaseLoading {
		return ErrBusy
	}
	if m.phase != phase {
		return fmt.Errorf("%w: in %s, want %s", ErrPhase, m.phase, phase)
	}
	return nil
}

func (m *Machine) requireInput() error {
	if m.phase == PhaseBulkInput {
		return nil
	}
	return m.require(PhaseIndividualInput)
}

func (m *Machine) setJDMode(mode JDMode) {
	m.jdMode = mode
	if mode == JDModeFile {
		m.jdText = ""
	} else {
		m.jdFile = nil
	}
}

func (m *Machine) hasJD() bool {
	return m.jdFile != nil || strings.TrimSpace(m.jdText) != ""
}

func (m *Machine) canSubmitBulk() bool {
	return len(m.resumes) > 0 && m.hasJD()
}

func (m *Machine) start(flow Flow, to Phase) {
	m.flow = flow
	m.runID = uuid.NewString()
	m.transition(to)
}

// begin enters loading and returns the generation the caller's result belongs to.
func (m *Machine) begin(message string) (uint64, *zap.Logger) {
	m.generation++
	m.err = ""
	m.loading = message
	m.transition(PhaseLoading)
	return m.generation, m.runLogger()
}

func (m *Machine) current(gen uint64, log *zap.Logger) error {
	if gen == m.generation {
		return nil
	}
	log.Info("discarding result of a reset run")
	return ErrStale
}

func (m *Machine) fail(log *zap.Logger, err error, message string, back Phase) {
	log.Error("analysis failed", zap.Error(err))
	m.err = message
	m.transition(back)
}

func (m *Machine) transition(to Phase) {
	from := m.phase
	m.phase = to
	if to != PhaseLoading {
		m.loading = ""
	}

	m.runLogger().Info("phase transition", zap.Stringer("from", from), zap.Stringer("to", to))
	t := Transition{RunID: m.runID, Flow: m.flow, From: from, To: to}
	for _, fn := range m.observers {
		fn(t)
	}
}

func (m *Machine) runLogger() *zap.Logger {
	return logger.WithRun(m.logger, m.runID, string(m.flow))
}
