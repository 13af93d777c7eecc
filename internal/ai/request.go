package ai

import (
	"context"
	"errors"

	"github.com/spigell/hr-gpt/internal/document"
)

// ErrRequest marks any failure of a completion call: transport, empty output or a result that
// does not decode into the expected shape.
var ErrRequest = errors.New("completion request failed")

// Part is one element of a multi-part request. Only TextPart and FilePart implement it.
type Part interface {
	isPart()
}

type TextPart struct {
	Text string
}

type FilePart struct {
	File document.Inline
}

func (TextPart) isPart() {}
func (FilePart) isPart() {}

type SchemaType string

const (
	TypeArray   SchemaType = "ARRAY"
	TypeObject  SchemaType = "OBJECT"
	TypeInteger SchemaType = "INTEGER"
	TypeString  SchemaType = "STRING"
)

// Schema describes the JSON shape a structured response must follow.
type Schema struct {
	Type        SchemaType
	Description string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
	// Ordering keeps generated objects in a stable key order.
	Ordering []string
}

type Request struct {
	// Name identifies the call shape in logs.
	Name              string
	SystemInstruction string
	Parts             []Part
	// Schema is nil for free-text responses.
	Schema *Schema
}

// Generator sends a request to a completion service and returns its text output.
type Generator interface {
	Generate(ctx context.Context, req *Request) (string, error)
	Model() string
}
