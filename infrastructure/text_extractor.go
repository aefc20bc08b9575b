package infrastructure

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"

	"job-assistant/pipeline"
)

const (
	PDFEngineUniPDF     = "unipdf"
	PDFEngineLedongthuc = "ledongthuc"
)

// ConfigurePDFLicense registers a metered unidoc key. unipdf refuses to
// extract text without one, which is why ledongthuc is the default engine.
func ConfigurePDFLicense(key string) error {
	if key == "" {
		return nil
	}
	if err := license.SetMeteredKey(key); err != nil {
		return fmt.Errorf("set unidoc license: %w", err)
	}
	return nil
}

// DocumentOpener reads stored documents by reference.
type DocumentOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// DocumentTextExtractor converts stored pdf, docx and txt files to text.
type DocumentTextExtractor struct {
	store     DocumentOpener
	pdfEngine string
	logger    *zap.Logger
}

func NewDocumentTextExtractor(store DocumentOpener, pdfEngine string, logger *zap.Logger) *DocumentTextExtractor {
	if pdfEngine == "" {
		pdfEngine = PDFEngineLedongthuc
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentTextExtractor{store: store, pdfEngine: pdfEngine, logger: logger}
}

func (e *DocumentTextExtractor) ExtractText(ctx context.Context, ref, format string) (string, error) {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch format {
	case "pdf", "docx", "txt":
	default:
		return "", fmt.Errorf("%w: %q", pipeline.ErrUnsupportedFormat, format)
	}

	rc, err := e.store.Open(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", ref, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", ref, err)
	}

	var text string
	switch format {
	case "txt":
		text = string(data)
	case "docx":
		text, err = extractDocxText(data)
	case "pdf":
		if e.pdfEngine == PDFEngineUniPDF {
			text, err = extractPDFTextUniPDF(data)
		} else {
			text, err = extractPDFTextLedongthuc(data)
		}
	}
	if err != nil {
		return "", fmt.Errorf("extract %s text: %w", format, err)
	}

	e.logger.Debug("extracted document text",
		zap.String("ref", ref),
		zap.String("format", format),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

func extractPDFTextUniPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("get page count: %w", err)
	}

	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("get page %d: %w", i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("create extractor for page %d: %w", i, err)
		}

		text, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func extractPDFTextLedongthuc(data []byte) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent())
}

// paragraphText walks a WordprocessingML body and returns one line per paragraph.
func paragraphText(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteString("\t")
			case "br", "cr":
				current.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return strings.Join(paragraphs, "\n"), nil
}
