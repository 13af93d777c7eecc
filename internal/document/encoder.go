package document

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxSize caps a single document at 10 MiB.
const DefaultMaxSize int64 = 10 << 20

// ErrRead is returned when a document cannot be read or its content is empty or unparsable.
var ErrRead = errors.New("read document")

// Inline is a transport-safe document: mime type plus base64 payload.
type Inline struct {
	Name     string
	MimeType string
	Data     string
}

// Bytes decodes the base64 payload.
func (i Inline) Bytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(i.Data)
}

type Encoder struct {
	maxSize int64
	logger  *zap.Logger
}

func NewEncoder(maxSize int64, logger *zap.Logger) *Encoder {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{maxSize: maxSize, logger: logger}
}

// Encode reads f once and returns its inline representation.
func (e *Encoder) Encode(ctx context.Context, f File) (Inline, error) {
	if f == nil {
		return Inline{}, fmt.Errorf("%w: no file", ErrRead)
	}
	if err := ctx.Err(); err != nil {
		return Inline{}, fmt.Errorf("%w %q: %w", ErrRead, f.Name(), err)
	}

	data, err := e.read(f)
	if err != nil {
		return Inline{}, err
	}

	mimeType := f.MimeType()

	switch mimeType {
	case MimePDF:
		pages, err := countPDFPages(data)
		if err != nil {
			return Inline{}, fmt.Errorf("%w %q: %w", ErrRead, f.Name(), err)
		}
		e.logger.Debug("encoded pdf", zap.String("file", f.Name()), zap.Int("pages", pages), zap.Int("bytes", len(data)))
	case MimeDOCX:
		text, err := docxText(data)
		if err != nil {
			return Inline{}, fmt.Errorf("%w %q: %w", ErrRead, f.Name(), err)
		}
		e.logger.Debug("converted docx to text", zap.String("file", f.Name()), zap.Int("chars", len(text)))
		data = []byte(text)
		mimeType = MimeText
	default:
		e.logger.Debug("encoded document", zap.String("file", f.Name()), zap.String("mime", mimeType), zap.Int("bytes", len(data)))
	}

	return Inline{
		Name:     f.Name(),
		MimeType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// EncodeAll encodes files concurrently and returns them in input order.
func (e *Encoder) EncodeAll(ctx context.Context, files []File) ([]Inline, error) {
	out := make([]Inline, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			encoded, err := e.Encode(gCtx, f)
			if err != nil {
				return err
			}
			out[i] = encoded
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Encoder) read(f File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrRead, f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, e.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrRead, f.Name(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w %q: file is empty", ErrRead, f.Name())
	}
	if int64(len(data)) > e.maxSize {
		return nil, fmt.Errorf("%w %q: file exceeds %d bytes", ErrRead, f.Name(), e.maxSize)
	}
	return data, nil
}

// countPDFPages opens the document structure only; page text is left to the model.
func countPDFPages(data []byte) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}

	pages = reader.NumPage()
	if pages == 0 {
		return 0, errors.New("pdf has no pages")
	}
	return pages, nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer doc.Close()

	text, err := xmlText(doc.Editable().GetContent())
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.New("docx has no text")
	}
	return text, nil
}

// xmlText flattens WordprocessingML into plain text, one paragraph per line.
func xmlText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = false

	var b strings.Builder
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == "p" {
				b.WriteString("\n")
			}
		case xml.StartElement:
			if t.Name.Local == "tab" {
				b.WriteString("\t")
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}
