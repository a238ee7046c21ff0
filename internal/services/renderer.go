package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/Lllllllleong/documenttranslator/internal/models"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/font"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageLayout is the fixed geometry of every output page, in PDF points.
type PageLayout struct {
	Paper        string
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	LinePitch    float64
	FontName     string
	FontSize     int
}

// A4Layout is the default page geometry.
var A4Layout = PageLayout{
	Paper:        "A4",
	Width:        595,
	Height:       842,
	MarginTop:    50,
	MarginBottom: 50,
	MarginLeft:   50,
	LinePitch:    14,
	FontName:     "Helvetica",
	FontSize:     12,
}

// top is the cursor position of the first line on a page.
func (l PageLayout) top() float64 { return l.Height - l.MarginTop }

// Capacity is the number of lines that fit on one page.
func (l PageLayout) Capacity() int {
	if l.LinePitch <= 0 || l.top() < l.MarginBottom {
		return 1
	}
	return int(math.Floor((l.top()-l.MarginBottom)/l.LinePitch)) + 1
}

// Paginate lays lines onto pages without lookahead: a new page is opened only
// when the cursor has dropped below the bottom margin.
func (l PageLayout) Paginate(text string) []models.Page {
	var pages []models.Page
	current := models.Page{Number: 1}
	y := l.top()

	for _, line := range strings.Split(text, "\n") {
		if y < l.MarginBottom {
			pages = append(pages, current)
			current = models.Page{Number: len(pages) + 1}
			y = l.top()
		}
		current.Lines = append(current.Lines, models.PlacedLine{
			Text: strings.TrimSuffix(line, "\r"),
			X:    l.MarginLeft,
			Y:    y,
		})
		y -= l.LinePitch
	}
	return append(pages, current)
}

// PageWriter serializes laid-out pages into a single document.
type PageWriter interface {
	WritePages(ctx context.Context, pages []models.Page, layout PageLayout, w io.Writer) error
}

// PageRenderer paginates translated text and serializes it to PDF.
type PageRenderer struct {
	layout PageLayout
	writer PageWriter
}

// NewPageRenderer creates a renderer. A nil writer selects the pdfcpu writer.
func NewPageRenderer(layout PageLayout, writer PageWriter) *PageRenderer {
	if writer == nil {
		writer = NewPDFCPUWriter()
	}
	return &PageRenderer{layout: layout, writer: writer}
}

// Layout returns the renderer's page geometry.
func (r *PageRenderer) Layout() PageLayout { return r.layout }

// Render lays out text and returns the pages together with their PDF bytes.
func (r *PageRenderer) Render(ctx context.Context, text string) (*models.RenderedDocument, error) {
	pages := r.layout.Paginate(text)

	var buf bytes.Buffer
	if err := r.writer.WritePages(ctx, pages, r.layout, &buf); err != nil {
		return nil, fmt.Errorf("failed to write %d pages: %w", len(pages), err)
	}
	return &models.RenderedDocument{Pages: pages, Data: buf.Bytes()}, nil
}

// ConfigureFonts prepares pdfcpu's font set and checks that fontName can be
// drawn. With no font file the config directory is disabled and fontName must
// be one of the 14 core fonts, none of which carry CJK glyphs.
//
// A font file is installed into configDir, which must be writable (on Cloud
// Functions only the temp dir is). fontName is then the font's PostScript
// name, e.g. "NotoSansJP-Regular", not its file name.
func ConfigureFonts(configDir, fontFile, fontName string) error {
	if fontFile == "" {
		if !font.IsCoreFont(fontName) {
			return fmt.Errorf("font %q is not a core font and no font file is configured", fontName)
		}
		api.DisableConfigDir()
		return nil
	}

	// InstallFonts writes to the user font dir, which is unset until a config dir exists.
	if err := api.EnsureDefaultConfigAt(configDir); err != nil {
		return fmt.Errorf("failed to create pdfcpu config in %s: %w", configDir, err)
	}
	if err := api.InstallFonts([]string{fontFile}); err != nil {
		return fmt.Errorf("failed to install font %s: %w", fontFile, err)
	}
	// InstallFonts only reports load errors, so check the result.
	if !font.IsUserFont(fontName) {
		return fmt.Errorf("font %q not available after installing %s (installed: %s)",
			fontName, fontFile, strings.Join(font.UserFontNames(), ", "))
	}
	return nil
}

// PDFCPUWriter renders pages through pdfcpu's JSON page description.
type PDFCPUWriter struct {
	conf *model.Configuration
}

// NewPDFCPUWriter returns a writer using pdfcpu's relaxed default configuration.
func NewPDFCPUWriter() *PDFCPUWriter {
	return &PDFCPUWriter{conf: relaxedConfig()}
}

type pdfcpuFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type pdfcpuText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  pdfcpuFont `json:"font"`
}

type pdfcpuContent struct {
	Text []pdfcpuText `json:"text,omitempty"`
}

type pdfcpuPage struct {
	Content pdfcpuContent `json:"content"`
}

type pdfcpuDocument struct {
	Paper string                `json:"paper"`
	Pages map[string]pdfcpuPage `json:"pages"`
}

// WritePages writes one PDF page per layout page. Blank lines keep their slot
// but draw nothing.
func (w *PDFCPUWriter) WritePages(ctx context.Context, pages []models.Page, layout PageLayout, out io.Writer) error {
	desc := pdfcpuDocument{
		Paper: layout.Paper,
		Pages: make(map[string]pdfcpuPage, len(pages)),
	}
	textFont := pdfcpuFont{Name: layout.FontName, Size: layout.FontSize}
	for _, page := range pages {
		var content pdfcpuContent
		for _, line := range page.Lines {
			if strings.TrimSpace(line.Text) == "" {
				continue
			}
			content.Text = append(content.Text, pdfcpuText{
				Value: line.Text,
				Pos:   [2]float64{line.X, line.Y},
				Font:  textFont,
			})
		}
		desc.Pages[strconv.Itoa(page.Number)] = pdfcpuPage{Content: content}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(desc)
	if err != nil {
		return fmt.Errorf("failed to marshal page description: %w", err)
	}
	if err := api.Create(nil, bytes.NewReader(payload), out, w.conf); err != nil {
		return fmt.Errorf("pdfcpu create: %w", err)
	}
	return nil
}
