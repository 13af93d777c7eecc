package workflow

import "fmt"

// Phase is the screen the workflow is currently on.
type Phase int

const (
	PhaseFlowSelection Phase = iota
	PhaseIndividualInput
	PhaseBulkInput
	PhaseLoading
	PhaseReportIndividual
	PhaseReportBulk
)

var phaseNames = map[Phase]string{
	PhaseFlowSelection:    "flow-selection",
	PhaseIndividualInput:  "individual-input",
	PhaseBulkInput:        "bulk-input",
	PhaseLoading:          "loading",
	PhaseReportIndividual: "report-individual",
	PhaseReportBulk:       "report-bulk",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Flow is the analysis mode chosen on the flow-selection screen.
type Flow string

const (
	FlowIndividual Flow = "individual"
	FlowBulk       Flow = "bulk"
)

func ParseFlow(s string) (Flow, error) {
	switch Flow(s) {
	case FlowIndividual, FlowBulk:
		return Flow(s), nil
	}
	return "", fmt.Errorf("%w: unknown flow %q", ErrValidation, s)
}

// JDMode selects which job description input is active.
type JDMode int

const (
	JDModeText JDMode = iota
	JDModeFile
)

func (m JDMode) String() string {
	if m == JDModeFile {
		return "file"
	}
	return "text"
}
