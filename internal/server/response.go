package server

import (
	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/report"
	"github.com/spigell/hr-gpt/internal/workflow"
)

type sessionResponse struct {
	ID      string `json:"id"`
	Phase   string `json:"phase"`
	Flow    string `json:"flow,omitempty"`
	RunID   string `json:"runId,omitempty"`
	Error   string `json:"error,omitempty"`
	Loading string `json:"loading,omitempty"`

	Inputs     inputsResponse      `json:"inputs"`
	Report     *individualResponse `json:"report,omitempty"`
	Candidates *bulkResponse       `json:"candidates,omitempty"`
}

type inputsResponse struct {
	Resume     string   `json:"resume,omitempty"`
	Portfolio  string   `json:"portfolio,omitempty"`
	JDMode     string   `json:"jdMode"`
	JDText     string   `json:"jdText,omitempty"`
	JDFile     string   `json:"jdFile,omitempty"`
	Resumes    []string `json:"resumes,omitempty"`
	MaxResumes int      `json:"maxResumes"`
	CanSubmit  bool     `json:"canSubmit"`
}

type individualResponse struct {
	Parsed bool           `json:"parsed"`
	Tier   string         `json:"tier,omitempty"`
	Report *report.Report `json:"report,omitempty"`
	Raw    string         `json:"raw"`
}

type candidateResponse struct {
	candidates.Initial
	Tier      string `json:"tier"`
	Portfolio string `json:"portfolio,omitempty"`
}

type finalResponse struct {
	candidates.Final
	Tier string `json:"tier"`
}

type bulkResponse struct {
	Stage   string              `json:"stage"`
	Initial []candidateResponse `json:"initial"`
	Final   []finalResponse     `json:"final,omitempty"`
}

func newSessionResponse(id string, v workflow.View) sessionResponse {
	resp := sessionResponse{
		ID:      id,
		Phase:   v.Phase.String(),
		Flow:    string(v.Flow),
		RunID:   v.RunID,
		Error:   v.Error,
		Loading: v.Loading,
		Inputs: inputsResponse{
			Resume:     v.ResumeName,
			Portfolio:  v.PortfolioName,
			JDMode:     v.JDMode.String(),
			JDText:     v.JDText,
			JDFile:     v.JDFileName,
			Resumes:    v.ResumeNames,
			MaxResumes: v.MaxResumes,
			CanSubmit:  v.CanSubmit,
		},
	}

	if v.Phase == workflow.PhaseReportIndividual {
		ir := &individualResponse{Raw: v.ReportText}
		if v.ReportError == nil && v.Report != nil {
			ir.Parsed = true
			ir.Report = v.Report
			ir.Tier = report.RatingTier(v.Report.Summary.Rating).String()
		}
		resp.Report = ir
	}

	if v.Initial != nil {
		br := &bulkResponse{Stage: "initial", Initial: make([]candidateResponse, 0, len(v.Initial))}
		for _, c := range v.Initial {
			br.Initial = append(br.Initial, candidateResponse{
				Initial:   c,
				Tier:      report.ScoreTier(c.Score).String(),
				Portfolio: v.Portfolios[c.CandidateID],
			})
		}
		if v.FinalSelected() {
			br.Stage = "final"
			br.Final = make([]finalResponse, 0, len(v.Final))
			for _, c := range v.Final {
				br.Final = append(br.Final, finalResponse{Final: c, Tier: report.ScoreTier(c.FinalScore).String()})
			}
		}
		resp.Candidates = br
	}

	return resp
}
