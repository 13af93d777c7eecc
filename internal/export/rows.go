// Package export flattens analysis results into spreadsheet rows and writes
// them as CSV (UTF-8 with BOM) or XLSX.
package export

import (
	"regexp"
	"strconv"

	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/report"
)

// Cell is one spreadsheet value. Labels are fixed column names and tags that
// are written as-is; everything else is content and gets quoted in CSV.
type Cell struct {
	Value string
	Label bool
}

type Row []Cell

func label(v string) Cell   { return Cell{Value: v, Label: true} }
func content(v string) Cell { return Cell{Value: v} }

var bareNumber = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Numeric reports whether the cell holds a bare number.
func (c Cell) Numeric() bool { return bareNumber.MatchString(c.Value) }

// IndividualRows lists one (category, sub-category, content) row per report item.
func IndividualRows(r *report.Report) []Row {
	rows := []Row{
		{label("Category"), label("Sub-Category"), label("Content")},
		{label("Summary"), label("Score"), content(r.Summary.Score)},
		{label("Summary"), label("Rating"), content(r.Summary.Rating)},
	}

	add := func(category, sub string, items []string) {
		for _, item := range items {
			rows = append(rows, Row{label(category), label(sub), content(item)})
		}
	}

	add("Summary", "Green Flag", r.Summary.GreenFlags)
	add("Summary", "Red Flag", r.Summary.RedFlags)
	add("Summary", "Core Competency", r.Summary.CoreCompetencies)
	rows = append(rows, Row{label("Detailed Analysis"), label(""), content(r.Details)})
	add("Interview Question", "Technical", r.Questions.Technical)
	add("Interview Question", "Behavioral", r.Questions.Behavioral)
	add("Interview Question", "Cultural", r.Questions.Cultural)
	add("Verification Checklist", "Item", r.Checklist)

	return rows
}

// BulkRows lists one row per (candidate, question or checklist item).
func BulkRows(final []candidates.Final) []Row {
	rows := []Row{
		{label("ID"), label("File Name"), label("Score"), label("Summary"), label("Type"), label("Question/Checklist Item")},
	}

	for _, c := range final {
		add := func(kind string, items []string) {
			for _, item := range items {
				rows = append(rows, Row{
					content(strconv.Itoa(c.CandidateID)),
					content(c.FileName),
					content(strconv.Itoa(c.FinalScore)),
					content(c.FinalSummary),
					label(kind),
					content(item),
				})
			}
		}

		add("Technical", c.InterviewQuestions.Technical)
		add("Behavioral", c.InterviewQuestions.Behavioral)
		add("Cultural", c.InterviewQuestions.Cultural)
		add("Checklist", c.VerificationChecklist)
	}

	return rows
}
