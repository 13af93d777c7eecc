// Package candidates decodes the structured bulk screening responses.
package candidates

import (
	"errors"

	"github.com/spigell/hr-gpt/internal/report"
)

const (
	// MaxInitial is the size of the first-pass shortlist.
	MaxInitial = 5
	// MaxFinal is the size of the final shortlist.
	MaxFinal = 3
)

// ErrSchemaViolation is returned when a response is not shaped like the declared schema
// or breaks the shortlist contract (size, ordering, ids).
var ErrSchemaViolation = errors.New("response violates schema")

// Initial is one entry of the first-pass shortlist, ranked on resumes alone.
type Initial struct {
	CandidateID int      `json:"candidateId" mapstructure:"candidateId"`
	FileName    string   `json:"fileName" mapstructure:"fileName"`
	Score       int      `json:"score" mapstructure:"score"`
	Summary     string   `json:"summary" mapstructure:"summary"`
	GreenFlags  []string `json:"greenFlags" mapstructure:"greenFlags"`
	RedFlags    []string `json:"redFlags" mapstructure:"redFlags"`
}

// Final is one entry of the final shortlist, re-ranked after portfolios.
type Final struct {
	CandidateID           int                       `json:"candidateId" mapstructure:"candidateId"`
	FileName              string                    `json:"fileName" mapstructure:"fileName"`
	FinalScore            int                       `json:"finalScore" mapstructure:"finalScore"`
	FinalSummary          string                    `json:"finalSummary" mapstructure:"finalSummary"`
	InterviewQuestions    report.InterviewQuestions `json:"interviewQuestions" mapstructure:"interviewQuestions"`
	VerificationChecklist []string                  `json:"verificationChecklist" mapstructure:"verificationChecklist"`
}

var (
	initialRequired   = []string{"candidateId", "fileName", "score", "summary", "greenFlags", "redFlags"}
	finalRequired     = []string{"candidateId", "fileName", "finalScore", "finalSummary", "interviewQuestions", "verificationChecklist"}
	questionsRequired = []string{"technical", "behavioral", "cultural"}
)

// Find returns the candidate with the given id.
func Find(list []Initial, id int) (Initial, bool) {
	for _, c := range list {
		if c.CandidateID == id {
			return c, true
		}
	}
	return Initial{}, false
}
