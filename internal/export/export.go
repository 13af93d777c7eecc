package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/report"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	individualPrefix  = "HR-GPT_개별리포트_"
	bulkBaseName      = "HR-GPT_Final_Report"
	defaultCandidate  = "candidate"
	individualSheet   = "Report"
	bulkSheet         = "Final Candidates"
	ContentTypeCSV    = "text/csv; charset=utf-8"
	ContentTypeXLSX   = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// BulkFileName is the fixed name of the bulk CSV export.
const BulkFileName = bulkBaseName + ".csv"

var (
	pdfSuffix   = regexp.MustCompile(`(?i)\.pdf$`)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9ㄱ-힣]`)
)

// ParseFormat accepts "csv" or "xlsx" in any case; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// IndividualFileName derives the export name from the resume file name.
func IndividualFileName(resumeName string, format Format) string {
	name := defaultCandidate
	if resumeName != "" {
		name = unsafeChars.ReplaceAllString(pdfSuffix.ReplaceAllString(resumeName, ""), "_")
	}
	return individualPrefix + name + "." + string(format)
}

func BulkFileNameFor(format Format) string {
	return bulkBaseName + "." + string(format)
}

// IndividualCSV is the CSV export of one candidate report.
func IndividualCSV(r *report.Report) []byte {
	return CSV(IndividualRows(r))
}

// BulkCSV is the CSV export of the final shortlist.
func BulkCSV(final []candidates.Final) []byte {
	return CSV(BulkRows(final))
}

// Individual renders a report in the requested format.
func Individual(r *report.Report, format Format) ([]byte, error) {
	if format == FormatXLSX {
		return XLSX(individualSheet, IndividualRows(r))
	}
	return IndividualCSV(r), nil
}

// Bulk renders the final shortlist in the requested format.
func Bulk(final []candidates.Final, format Format) ([]byte, error) {
	if format == FormatXLSX {
		return XLSX(bulkSheet, BulkRows(final))
	}
	return BulkCSV(final), nil
}
