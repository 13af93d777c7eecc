package ai

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spigell/hr-gpt/internal/candidates"
	"github.com/spigell/hr-gpt/internal/document"
	"github.com/spigell/hr-gpt/internal/utils"
	"go.uber.org/zap"
)

const defaultMaxLogLength = 200

// IndividualInput is one resume with an optional portfolio. JDFile takes precedence over JDText.
type IndividualInput struct {
	Resume    document.File
	Portfolio document.File
	JDText    string
	JDFile    document.File
}

type BulkInput struct {
	Resumes []document.File
	JDText  string
	JDFile  document.File
}

type Portfolio struct {
	CandidateID int
	File        document.File
}

type FinalInput struct {
	Initial    []candidates.Initial
	Portfolios []Portfolio
	JDText     string
	JDFile     document.File
}

// Analyzer encodes documents, builds requests, sends them and decodes structured results.
type Analyzer struct {
	encoder   *document.Encoder
	generator Generator
	logger    *zap.Logger
	maxLogLen int
}

func NewAnalyzer(encoder *document.Encoder, generator Generator, logger *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if encoder == nil {
		encoder = document.NewEncoder(document.DefaultMaxSize, logger)
	}

	return &Analyzer{
		encoder:   encoder,
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Individual returns the raw six-section report text for one candidate.
func (a *Analyzer) Individual(ctx context.Context, in IndividualInput) (string, error) {
	files := []document.File{in.Resume}
	if in.Portfolio != nil {
		files = append(files, in.Portfolio)
	}
	if in.JDFile != nil {
		files = append(files, in.JDFile)
	}

	encoded, err := a.encoder.EncodeAll(ctx, files)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}

	resume, rest := encoded[0], encoded[1:]
	var portfolio *document.Inline
	if in.Portfolio != nil {
		portfolio = &rest[0]
		rest = rest[1:]
	}
	jd := JobDescription{Text: in.JDText}
	if in.JDFile != nil {
		jd.File = &rest[0]
	}

	return a.send(ctx, BuildIndividual(resume, portfolio, jd))
}

// InitialBulk scores all resumes and returns at most candidates.MaxInitial of them.
func (a *Analyzer) InitialBulk(ctx context.Context, in BulkInput) ([]candidates.Initial, error) {
	files := append([]document.File{}, in.Resumes...)
	if in.JDFile != nil {
		files = append(files, in.JDFile)
	}

	encoded, err := a.encoder.EncodeAll(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	jd := JobDescription{Text: in.JDText}
	if in.JDFile != nil {
		jd.File = &encoded[len(encoded)-1]
		encoded = encoded[:len(encoded)-1]
	}

	raw, err := a.send(ctx, BuildInitialBulk(encoded, jd))
	if err != nil {
		return nil, err
	}

	list, err := candidates.ToInitial(raw)
	if err != nil {
		a.logger.Warn("initial candidates rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return list, nil
}

// FinalBulk re-ranks the first-pass candidates with their portfolios and returns at most
// candidates.MaxFinal of them.
func (a *Analyzer) FinalBulk(ctx context.Context, in FinalInput) ([]candidates.Final, error) {
	files := make([]document.File, 0, len(in.Portfolios)+1)
	for _, p := range in.Portfolios {
		files = append(files, p.File)
	}
	if in.JDFile != nil {
		files = append(files, in.JDFile)
	}

	encoded, err := a.encoder.EncodeAll(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	jd := JobDescription{Text: in.JDText}
	if in.JDFile != nil {
		jd.File = &encoded[len(encoded)-1]
	}

	portfolios := make([]PortfolioPart, 0, len(in.Portfolios))
	for i, p := range in.Portfolios {
		portfolios = append(portfolios, PortfolioPart{CandidateID: p.CandidateID, File: encoded[i]})
	}

	req, err := BuildFinalBulk(in.Initial, portfolios, jd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}

	raw, err := a.send(ctx, req)
	if err != nil {
		return nil, err
	}

	list, err := candidates.ToFinal(raw, in.Initial)
	if err != nil {
		a.logger.Warn("final candidates rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRequest, err)
	}
	return list, nil
}

func (a *Analyzer) send(ctx context.Context, req *Request) (string, error) {
	if a.generator == nil {
		return "", fmt.Errorf("%w: no generator configured", ErrRequest)
	}

	prompt := firstText(req)
	a.logger.Debug("generate content request",
		zap.String("request", req.Name),
		zap.Int("parts", len(req.Parts)),
		zap.Bool("structured", req.Schema != nil),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.Generate(ctx, req)
	if err != nil {
		a.logger.Warn("generate content failed", zap.String("request", req.Name), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrRequest, err)
	}

	a.logger.Debug("generate content response",
		zap.String("request", req.Name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, a.maxLogLen)),
	)

	return raw, nil
}

func firstText(req *Request) string {
	for _, p := range req.Parts {
		if t, ok := p.(TextPart); ok {
			return t.Text
		}
	}
	return ""
}
