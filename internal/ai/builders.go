package ai

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/document"
)

//go:embed prompts/rubric.md
var rubricPrompt string

//go:embed prompts/individual.md
var individualPrompt string

//go:embed prompts/bulk_initial.md
var initialPrompt string

//go:embed prompts/bulk_final.md
var finalPrompt string

const (
	RequestIndividual   = "individual"
	RequestInitialBulk  = "bulk-initial"
	RequestFinalBulk    = "bulk-final"
	individualIntro     = "아래 첨부된 이력서, 포트폴리오(선택), JD를 바탕으로 인재 분석 리포트를 생성해주세요."
	resumeLabel         = "이력서:"
	portfolioLabel      = "포트폴리오:"
	jdLabel             = "채용 공고 (JD):"
	noPortfolioNotice   = "추가로 제출된 포트폴리오가 없습니다."
	jdFileSection       = "### 채용 공고 (JD) 파일\n[JD 파일이 여기에 첨부됩니다.]"
	jdTextSectionFormat = "### 채용 공고 (JD) 텍스트\n```\n%s\n```"
)

// JobDescription holds the encoded JD file or, when File is nil, its literal text.
type JobDescription struct {
	Text string
	File *document.Inline
}

func (jd JobDescription) section() string {
	if jd.File != nil {
		return jdFileSection
	}
	return fmt.Sprintf(jdTextSectionFormat, jd.Text)
}

// PortfolioPart is an encoded portfolio attached to a first-pass candidate.
type PortfolioPart struct {
	CandidateID int
	File        document.Inline
}

// BuildIndividual assembles the single-candidate report request. The response is the
// six-section text read by the report parser.
func BuildIndividual(resume document.Inline, portfolio *document.Inline, jd JobDescription) *Request {
	parts := []Part{
		TextPart{Text: individualIntro},
		TextPart{Text: resumeLabel},
		FilePart{File: resume},
	}
	if portfolio != nil {
		parts = append(parts, TextPart{Text: portfolioLabel}, FilePart{File: *portfolio})
	}
	if jd.File != nil {
		parts = append(parts, TextPart{Text: jdLabel}, FilePart{File: *jd.File})
	} else {
		parts = append(parts, TextPart{Text: jdLabel + "\n" + jd.Text})
	}

	return &Request{
		Name:              RequestIndividual,
		SystemInstruction: strings.ReplaceAll(individualPrompt, "{{RUBRIC}}", rubricPrompt),
		Parts:             parts,
	}
}

// BuildInitialBulk assembles the first bulk pass: score every resume and keep the top candidates.
// Resume i (zero based) is announced to the model as candidate i+1, in the prompt and as the
// label part in front of the file.
func BuildInitialBulk(resumes []document.Inline, jd JobDescription) *Request {
	lines := make([]string, 0, len(resumes))
	for i, r := range resumes {
		lines = append(lines, resumeLine(i+1, r.Name))
	}

	prompt := strings.NewReplacer(
		"{{LIMIT}}", strconv.Itoa(candidates.MaxInitial),
		"{{RUBRIC}}", rubricPrompt,
		"{{JD_SECTION}}", jd.section(),
		"{{RESUME_LIST}}", strings.Join(lines, "\n"),
	).Replace(initialPrompt)

	parts := []Part{TextPart{Text: prompt}}
	if jd.File != nil {
		parts = append(parts, FilePart{File: *jd.File})
	}
	for i, r := range resumes {
		parts = append(parts, TextPart{Text: lines[i]}, FilePart{File: r})
	}

	return &Request{Name: RequestInitialBulk, Parts: parts, Schema: InitialSchema()}
}

// BuildFinalBulk assembles the second bulk pass from the first-pass result and any portfolios.
func BuildFinalBulk(initial []candidates.Initial, portfolios []PortfolioPart, jd JobDescription) (*Request, error) {
	if initial == nil {
		initial = []candidates.Initial{}
	}
	payload, err := json.MarshalIndent(initial, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal initial candidates: %w", err)
	}

	list := noPortfolioNotice
	if len(portfolios) > 0 {
		lines := make([]string, 0, len(portfolios))
		for _, p := range portfolios {
			lines = append(lines, portfolioLine(initial, p))
		}
		list = strings.Join(lines, "\n")
	}

	prompt := strings.NewReplacer(
		"{{LIMIT}}", strconv.Itoa(candidates.MaxFinal),
		"{{INITIAL_JSON}}", string(payload),
		"{{JD_SECTION}}", jd.section(),
		"{{PORTFOLIO_LIST}}", list,
	).Replace(finalPrompt)

	parts := []Part{TextPart{Text: prompt}}
	if jd.File != nil {
		parts = append(parts, FilePart{File: *jd.File})
	}
	for _, p := range portfolios {
		parts = append(parts, TextPart{Text: portfolioLine(initial, p)}, FilePart{File: p.File})
	}

	return &Request{Name: RequestFinalBulk, Parts: parts, Schema: FinalSchema()}, nil
}

func resumeLine(n int, name string) string {
	return fmt.Sprintf("- 지원자 %d: %s", n, name)
}

// portfolioLine names the portfolio after the candidate's resume so the model can match the two.
func portfolioLine(initial []candidates.Initial, p PortfolioPart) string {
	name := p.File.Name
	if c, ok := candidates.Find(initial, p.CandidateID); ok && c.FileName != "" {
		name = c.FileName
	}
	return fmt.Sprintf("- 후보자 ID %d (%s)의 포트폴리오", p.CandidateID, name)
}
