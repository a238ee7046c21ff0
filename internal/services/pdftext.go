package services

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// StructuralPDFReader counts pages with pdfcpu and reads each page's text layer
// with ledongthuc/pdf.
type StructuralPDFReader struct{}

// NewStructuralPDFReader returns the default PDFReader.
func NewStructuralPDFReader() *StructuralPDFReader {
	return &StructuralPDFReader{}
}

// PageCount validates the document in relaxed mode and returns its page count.
func (r *StructuralPDFReader) PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), relaxedConfig())
	if err != nil {
		return 0, fmt.Errorf("pdfcpu page count: %w", err)
	}
	return count, nil
}

// PageTexts returns the plain text of each page. Pages without content yield "".
func (r *StructuralPDFReader) PageTexts(data []byte) (texts []string, err error) {
	// The parser panics on some malformed streams.
	defer func() {
		if p := recover(); p != nil {
			texts, err = nil, fmt.Errorf("pdf text extraction panicked: %v", p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	numPages := reader.NumPage()
	fonts := make(map[string]*pdf.Font)
	texts = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			texts = append(texts, "")
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}

func relaxedConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
