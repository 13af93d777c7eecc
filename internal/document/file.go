package document

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

const (
	MimePDF    = "application/pdf"
	MimeDOCX   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText   = "text/plain"
	MimeBinary = "application/octet-stream"

	// sniffLen covers the zip entries filetype inspects to tell DOCX from a plain archive.
	sniffLen = 8192
)

// File is a user-supplied document: a name, a declared mime type and a byte stream.
type File interface {
	Name() string
	MimeType() string
	Open() (io.ReadCloser, error)
}

// LocalFile is a document picked from the local file system.
type LocalFile struct {
	Path string
	Type string
}

// NewLocalFile guesses the mime type from the file extension, falling back to
// content sniffing when the extension is unknown.
func NewLocalFile(path string) *LocalFile {
	return &LocalFile{Path: path, Type: detectByName(path)}
}

func (f *LocalFile) Name() string { return filepath.Base(f.Path) }

func (f *LocalFile) MimeType() string {
	if f.Type != "" {
		return f.Type
	}

	fh, err := os.Open(f.Path)
	if err != nil {
		return MimeBinary
	}
	defer fh.Close()

	return sniffReader(fh)
}

func (f *LocalFile) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// MultipartFile is a document uploaded through an HTTP form.
type MultipartFile struct {
	Header *multipart.FileHeader
}

func (f *MultipartFile) Name() string { return f.Header.Filename }

// MimeType trusts a specific Content-Type header, then the file name, then the content.
func (f *MultipartFile) MimeType() string {
	if ct := f.Header.Header.Get("Content-Type"); ct != "" && ct != MimeBinary {
		if parsed, _, err := mime.ParseMediaType(ct); err == nil {
			return parsed
		}
	}
	if t := detectByName(f.Header.Filename); t != "" {
		return t
	}

	rc, err := f.Header.Open()
	if err != nil {
		return MimeBinary
	}
	defer rc.Close()

	return sniffReader(rc)
}

func (f *MultipartFile) Open() (io.ReadCloser, error) { return f.Header.Open() }

// Bytes is an in-memory document.
type Bytes struct {
	FileName string
	Type     string
	Content  []byte
}

func (b *Bytes) Name() string { return b.FileName }

func (b *Bytes) MimeType() string {
	if b.Type != "" {
		return b.Type
	}
	if t := detectByName(b.FileName); t != "" {
		return t
	}
	return sniff(b.Content)
}

func (b *Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Content)), nil
}

func detectByName(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch ext {
	case "pdf":
		return MimePDF
	case "docx":
		return MimeDOCX
	case "txt", "md":
		return MimeText
	case "":
		return ""
	}

	if kind := filetype.GetType(ext); kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return ""
}

func sniffReader(r io.Reader) string {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(r, head)
	return sniff(head[:n])
}

// sniff matches magic numbers first and falls back to a control-character scan for plain text.
func sniff(head []byte) string {
	if kind, err := filetype.Match(head); err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if isText(head) {
		return MimeText
	}
	return MimeBinary
}

func isText(head []byte) bool {
	if len(head) == 0 {
		return false
	}
	for _, b := range head {
		if b == 0 || (b < 32 && b != '\t' && b != '\n' && b != '\r') {
			return false
		}
	}
	return true
}
