package workflow

import "fmt"

// Renderer draws one screen per phase.
type Renderer interface {
	FlowSelection(v View) error
	IndividualInput(v View) error
	BulkInput(v View) error
	Loading(v View) error
	ReportIndividual(v View) error
	ReportBulk(v View) error
}

// Dispatch calls the renderer method matching v.Phase.
func Dispatch(v View, r Renderer) error {
	switch v.Phase {
	case PhaseFlowSelection:
		return r.FlowSelection(v)
	case PhaseIndividualInput:
		return r.IndividualInput(v)
	case PhaseBulkInput:
		return r.BulkInput(v)
	case PhaseLoading:
		return r.Loading(v)
	case PhaseReportIndividual:
		return r.ReportIndividual(v)
	case PhaseReportBulk:
		return r.ReportBulk(v)
	}
	return fmt.Errorf("no renderer for %s", v.Phase)
}
