package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/report"
	"github.com/xuri/excelize/v2"
)

func sampleReport() *report.Report {
	return &report.Report{
		Summary: report.Summary{
			Score:            "85",
			Rating:           "적합",
			GreenFlags:       []string{"Python 3년", `"Django" 운영`},
			RedFlags:         []string{"트래픽 경험 불명확"},
			CoreCompetencies: []string{"Python", "PostgreSQL", "AWS"},
		},
		Details: "상세, 분석\n두 번째 줄",
		Questions: report.InterviewQuestions{
			Technical:  []string{"ORM?"},
			Behavioral: []string{"장애 대응?"},
			Cultural:   []string{"협업?"},
		},
		Checklist: []string{"수치 검증"},
	}
}

func sampleFinal() []candidates.Final {
	return []candidates.Final{
		{
			CandidateID:  2,
			FileName:     `kim "jr".pdf`,
			FinalScore:   92,
			FinalSummary: "포트폴리오 우수",
			InterviewQuestions: report.InterviewQuestions{
				Technical: []string{"t1"},
				Cultural:  []string{"c1"},
			},
			VerificationChecklist: []string{"v1", "v2"},
		},
		{
			CandidateID:           5,
			FileName:              "lee.pdf",
			FinalScore:            80,
			FinalSummary:          "적합",
			InterviewQuestions:    report.InterviewQuestions{Behavioral: []string{"b1"}},
			VerificationChecklist: nil,
		},
	}
}

func TestIndividualCSV(t *testing.T) {
	out := IndividualCSV(sampleReport())

	if !bytes.HasPrefix(out, []byte("\xef\xbb\xbf")) {
		t.Fatalf("expected UTF-8 BOM prefix")
	}

	body := strings.TrimPrefix(string(out), bom)
	if !strings.HasSuffix(body, "\r\n") {
		t.Fatalf("expected CRLF terminated rows")
	}

	lines := strings.Split(strings.TrimSuffix(body, "\r\n"), "\r\n")
	want := []string{
		"Category,Sub-Category,Content",
		"Summary,Score,85",
		`Summary,Rating,"적합"`,
		`Summary,Green Flag,"Python 3년"`,
		`Summary,Green Flag,"""Django"" 운영"`,
		`Summary,Red Flag,"트래픽 경험 불명확"`,
		`Summary,Core Competency,"Python"`,
		`Summary,Core Competency,"PostgreSQL"`,
		`Summary,Core Competency,"AWS"`,
		"Detailed Analysis,,\"상세, 분석\n두 번째 줄\"",
		`Interview Question,Technical,"ORM?"`,
		`Interview Question,Behavioral,"장애 대응?"`,
		`Interview Question,Cultural,"협업?"`,
		`Verification Checklist,Item,"수치 검증"`,
	}

	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), body)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestIndividualCSVDefaults(t *testing.T) {
	r, err := report.Parse("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	body := strings.TrimPrefix(string(IndividualCSV(r)), bom)
	want := "Category,Sub-Category,Content\r\n" +
		"Summary,Score,\"N/A\"\r\n" +
		"Summary,Rating,\"N/A\"\r\n" +
		"Detailed Analysis,,\"\"\r\n"
	if body != want {
		t.Fatalf("unexpected csv:\n%q\nwant:\n%q", body, want)
	}
}

func TestCSVQuotingIsReversible(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`"`,
		`""`,
		`say "hi"`,
		`"leading and trailing"`,
		`comma, "quote", newline` + "\n" + `end`,
		`12 "inches"`,
	}

	for _, in := range inputs {
		field := csvField(content(in))
		if !strings.HasPrefix(field, `"`) || !strings.HasSuffix(field, `"`) {
			t.Fatalf("field %q must be quoted, got %q", in, field)
		}

		inner := field[1 : len(field)-1]
		if got := strings.ReplaceAll(inner, `""`, `"`); got != in {
			t.Fatalf("round trip of %q gave %q", in, got)
		}
	}
}

func TestCSVBareNumbers(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"85":    "85",
		"-3":    "-3",
		"4.5":   "4.5",
		"85점":   `"85점"`,
		"1e5":   `"1e5"`,
		"":      `""`,
		" 85":   `" 85"`,
		"0x1F":  `"0x1F"`,
		"1,000": `"1,000"`,
	}

	for in, want := range tests {
		if got := csvField(content(in)); got != want {
			t.Fatalf("field %q: expected %s, got %s", in, want, got)
		}
	}
}

func TestCSVIsIdempotent(t *testing.T) {
	first := BulkCSV(sampleFinal())
	second := BulkCSV(sampleFinal())

	if !bytes.Equal(first, second) {
		t.Fatalf("bulk export is not deterministic")
	}
	if !bytes.Equal(IndividualCSV(sampleReport()), IndividualCSV(sampleReport())) {
		t.Fatalf("individual export is not deterministic")
	}
}

func TestBulkCSV(t *testing.T) {
	body := strings.TrimPrefix(string(BulkCSV(sampleFinal())), bom)
	lines := strings.Split(strings.TrimSuffix(body, "\r\n"), "\r\n")

	want := []string{
		"ID,File Name,Score,Summary,Type,Question/Checklist Item",
		`2,"kim ""jr"".pdf",92,"포트폴리오 우수",Technical,"t1"`,
		`2,"kim ""jr"".pdf",92,"포트폴리오 우수",Cultural,"c1"`,
		`2,"kim ""jr"".pdf",92,"포트폴리오 우수",Checklist,"v1"`,
		`2,"kim ""jr"".pdf",92,"포트폴리오 우수",Checklist,"v2"`,
		`5,"lee.pdf",80,"적합",Behavioral,"b1"`,
	}

	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(lines), body)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestIndividualFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in     string
		format Format
		want   string
	}{
		{"A.pdf", FormatCSV, "HR-GPT_개별리포트_A.csv"},
		{"홍길동 이력서.PDF", FormatCSV, "HR-GPT_개별리포트_홍길동_이력서.csv"},
		{"john.doe-cv (1).pdf", FormatCSV, "HR-GPT_개별리포트_john_doe_cv__1_.csv"},
		{"resume.pdf.docx", FormatXLSX, "HR-GPT_개별리포트_resume_pdf_docx.xlsx"},
		{"", FormatCSV, "HR-GPT_개별리포트_candidate.csv"},
	}

	for _, tt := range tests {
		if got := IndividualFileName(tt.in, tt.format); got != tt.want {
			t.Fatalf("name %q: expected %q, got %q", tt.in, tt.want, got)
		}
	}

	if BulkFileName != "HR-GPT_Final_Report.csv" || BulkFileNameFor(FormatCSV) != BulkFileName {
		t.Fatalf("unexpected bulk file name %q", BulkFileName)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatCSV, "CSV": FormatCSV, " xlsx ": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("format %q: expected %s, got %s (%v)", in, want, got, err)
		}
	}

	if _, err := ParseFormat("pdf"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestXLSX(t *testing.T) {
	data, err := Bulk(sampleFinal(), FormatXLSX)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(bulkSheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}

	if len(rows) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(rows))
	}
	if rows[0][5] != "Question/Checklist Item" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][1] != `kim "jr".pdf` || rows[1][2] != "92" {
		t.Fatalf("unexpected first data row %v", rows[1])
	}
}
