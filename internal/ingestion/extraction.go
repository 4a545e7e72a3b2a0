package ingestion

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/resume-screener/internal/fetch"
	"github.com/ledongthuc/pdf"
)

// MaxDocumentBytes is the largest document ExtractText accepts.
const MaxDocumentBytes = 10 << 20

// SupportedExtensions lists the document types ExtractText understands.
var SupportedExtensions = []string{".txt", ".md", ".html", ".htm", ".docx", ".pdf"}

// UnsupportedTypeError is returned for documents ExtractText cannot read.
type UnsupportedTypeError struct {
	Name string
	Ext  string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type %q for %s (supported: %s)",
		e.Ext, e.Name, strings.Join(SupportedExtensions, ", "))
}

// ParseError is returned when a supported document cannot be parsed.
type ParseError struct {
	Name  string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Name, e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ErrEmptyDocument is returned when a document contains no text.
var ErrEmptyDocument = errors.New("document contains no text")

// ExtractText returns the cleaned plain text of a document. The type is
// chosen from the file name extension.
func ExtractText(name string, data []byte) (string, error) {
	if len(data) > MaxDocumentBytes {
		return "", &ParseError{Name: name, Cause: fmt.Errorf("document is larger than %d bytes", MaxDocumentBytes)}
	}

	ext := strings.ToLower(filepath.Ext(name))
	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".md":
		text = string(data)
	case ".html", ".htm":
		text, err = htmlText(data)
	case ".docx":
		text, err = docxText(data)
	case ".pdf":
		text, err = pdfText(data)
	default:
		return "", &UnsupportedTypeError{Name: name, Ext: ext}
	}
	if err != nil {
		return "", &ParseError{Name: name, Cause: err}
	}

	text = CleanText(text)
	if text == "" {
		return "", &ParseError{Name: name, Cause: ErrEmptyDocument}
	}
	return text, nil
}

// ReadFile reads a document from disk and extracts its text.
func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return ExtractText(filepath.Base(path), data)
}

func htmlText(data []byte) (string, error) {
	return fetch.ExtractMainText(string(data), []string{"main", "article"})
}

// docxText reads word/document.xml and emits one line per paragraph.
func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("word/document.xml not found")
	}

	rc, err := body.Open()
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	var sb strings.Builder
	dec := xml.NewDecoder(io.LimitReader(rc, MaxDocumentBytes*4))
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteString("\t")
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}

// pdfText concatenates the text of every page. The pdf package panics on some
// malformed inputs, so panics are turned into errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("not a readable PDF: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(plain, MaxDocumentBytes*4)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
