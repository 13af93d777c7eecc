package report

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	summaryOpen    = "[핵심 요약]"
	summaryClose   = "[핵심 요약 끝]"
	detailsOpen    = "[상세 분석]"
	detailsClose   = "[상세 분석 끝]"
	questionsOpen  = "[면접 질문 리스트]"
	questionsClose = "[면접 질문 리스트 끝]"
	checklistOpen  = "[검증 체크리스트]"
	checklistClose = "[검증 체크리스트 끝]"

	labelScore       = "SCORE:"
	labelRating      = "RATING:"
	labelGreenFlags  = "GREEN_FLAGS:"
	labelRedFlags    = "RED_FLAGS:"
	labelCompetences = "CORE_COMPETENCIES:"

	headingTechnical  = "# 기술 역량"
	headingBehavioral = "# 경험 기반"
	headingCultural   = "# 문화 적합성"
)

var (
	summaryLabels   = labelPattern(labelScore, labelRating, labelGreenFlags, labelRedFlags, labelCompetences)
	questionHeading = labelPattern(headingTechnical, headingBehavioral, headingCultural)
)

func labelPattern(labels ...string) *regexp.Regexp {
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = regexp.QuoteMeta(l)
	}
	return regexp.MustCompile(strings.Join(quoted, "|"))
}

// Parse extracts the four sections of an individual analysis. Missing
// sections and fields yield "N/A" or empty values; only an internal failure
// produces ErrUnparsable.
func Parse(text string) (rep *Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			rep = nil
			err = fmt.Errorf("%w: %v", ErrUnparsable, r)
		}
	}()

	summary := fields(section(text, summaryOpen, summaryClose), summaryLabels)
	questions := fields(section(text, questionsOpen, questionsClose), questionHeading)

	return &Report{
		Summary: Summary{
			Score:            firstLine(summary, labelScore),
			Rating:           firstLine(summary, labelRating),
			GreenFlags:       splitList(summary[labelGreenFlags]),
			RedFlags:         splitList(summary[labelRedFlags]),
			CoreCompetencies: splitList(summary[labelCompetences]),
		},
		Details: strings.TrimSpace(section(text, detailsOpen, detailsClose)),
		Questions: InterviewQuestions{
			Technical:  splitList(questions[headingTechnical]),
			Behavioral: splitList(questions[headingBehavioral]),
			Cultural:   splitList(questions[headingCultural]),
		},
		Checklist: splitList(section(text, checklistOpen, checklistClose)),
	}, nil
}

// section returns the text between the first open marker and the close marker after it.
func section(text, open, closing string) string {
	start := strings.Index(text, open)
	if start == -1 {
		return ""
	}
	start += len(open)

	end := strings.Index(text[start:], closing)
	if end == -1 {
		return ""
	}
	return text[start : start+end]
}

// fields maps each label to the text following its first occurrence, up to
// the next label occurrence or the end of body.
func fields(body string, labels *regexp.Regexp) map[string]string {
	out := make(map[string]string)
	matches := labels.FindAllStringIndex(body, -1)

	for i, m := range matches {
		label := body[m[0]:m[1]]
		if _, seen := out[label]; seen {
			continue
		}

		end := len(body)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		out[label] = body[m[1]:end]
	}

	return out
}

func firstLine(values map[string]string, label string) string {
	v, ok := values[label]
	if !ok {
		return NotAvailable
	}

	v = strings.TrimLeft(v, " \t\r\n")
	if i := strings.IndexAny(v, "\r\n"); i != -1 {
		v = v[:i]
	}

	v = strings.TrimSpace(v)
	if v == "" {
		return NotAvailable
	}
	return v
}

// splitList splits on line breaks, strips one leading bullet and surrounding
// whitespace from every line and drops blank lines.
func splitList(text string) []string {
	items := []string{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, bullet := range []string{"-", "*", "•"} {
			if strings.HasPrefix(line, bullet) {
				line = strings.TrimSpace(strings.TrimPrefix(line, bullet))
				break
			}
		}
		if line != "" {
			items = append(items, line)
		}
	}
	return items
}
