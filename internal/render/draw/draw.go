// Package draw renders study sheets by rasterizing pages and assembling them
// into a PDF. It needs no external runtime, only bundled Go fonts.
package draw

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/fichemax/fichemax/internal/studysheet"
)

// A4 at 150 DPI.
const (
	pageWidth  = 1240
	pageHeight = 1754
	margin     = 110.0
	textWidth  = float64(pageWidth) - 2*margin
)

var (
	accentColor = color.RGBA{R: 0x00, G: 0x71, B: 0x79, A: 0xff}
	inkColor    = color.RGBA{R: 0x22, G: 0x28, B: 0x2b, A: 0xff}
	mutedColor  = color.RGBA{R: 0x5a, G: 0x64, B: 0x68, A: 0xff}
	okColor     = color.RGBA{R: 0x1d, G: 0x7a, B: 0x3e, A: 0xff}
	sepColor    = color.RGBA{R: 0xd4, G: 0xdb, B: 0xdd, A: 0xff}
)

// Renderer rasterizes sheet pages with bundled Go fonts.
type Renderer struct {
	title   font.Face
	heading font.Face
	body    font.Face
	bold    font.Face
	small   font.Face
}

// New creates a draw renderer.
func New() (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	boldFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}

	face := func(f *truetype.Font, size float64) font.Face {
		return truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
	}

	return &Renderer{
		title:   face(boldFont, 44),
		heading: face(boldFont, 28),
		body:    face(regular, 21),
		bold:    face(boldFont, 21),
		small:   face(regular, 17),
	}, nil
}

// Name returns the strategy identifier.
func (r *Renderer) Name() string { return "draw" }

// RenderStudySheet draws the sheet onto one or more pages and assembles them
// into a single PDF.
func (r *Renderer) RenderStudySheet(ctx context.Context, sheet *studysheet.StudySheet) ([]byte, error) {
	if sheet == nil {
		return nil, fmt.Errorf("sheet is required")
	}

	pages := r.renderPages(sheet)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return assemblePDF(pages)
}

// renderPages rasterizes the sheet into page canvases. Pure drawing, no IO:
// the same sheet always yields identical pixels.
func (r *Renderer) renderPages(sheet *studysheet.StudySheet) []*gg.Context {
	p := newPager()
	r.drawSheet(p, sheet)
	return p.pages
}

func (r *Renderer) drawSheet(p *pager, sheet *studysheet.StudySheet) {
	// Header band with the course title.
	title := sheet.Course.Title
	if title == "" {
		title = sheet.Question
	}
	p.headerBand(r.title, title)

	if sheet.Course.Description != "" {
		p.section(r.heading, "Description")
		p.paragraph(r.body, inkColor, sheet.Course.Description)
	}

	if len(sheet.Course.KeyConcepts) > 0 {
		p.section(r.heading, "Concepts clés")
		for _, item := range sheet.Course.KeyConcepts {
			p.bullet(r.body, inkColor, item)
		}
	}

	if len(sheet.Course.DefinitionsAndFormulas) > 0 {
		p.section(r.heading, "Définitions et formules")
		for _, item := range sheet.Course.DefinitionsAndFormulas {
			p.bullet(r.body, inkColor, item)
		}
	}

	if sheet.Course.WorkedExample != "" {
		p.section(r.heading, "Exemple concret")
		p.paragraph(r.body, inkColor, sheet.Course.WorkedExample)
	}

	if len(sheet.Course.KeyBulletPoints) > 0 {
		p.section(r.heading, "Points clés")
		for _, item := range sheet.Course.KeyBulletPoints {
			p.bullet(r.body, inkColor, item)
		}
	}

	if len(sheet.Quiz.Questions) > 0 {
		p.section(r.heading, "QCM pour tester vos connaissances")
		for i, q := range sheet.Quiz.Questions {
			if i > 0 {
				p.rule()
			}
			p.spacing(12)
			p.paragraph(r.bold, inkColor, fmt.Sprintf("Question %d : %s", q.Number, q.Prompt))
			for i, choice := range q.Choices {
				label := fmt.Sprintf("%d. %s", i+1, choice)
				if i+1 == q.CorrectChoice {
					p.bullet(r.body, okColor, label+"  ✓")
				} else {
					p.bullet(r.body, inkColor, label)
				}
			}
			if q.Explanation != "" {
				p.paragraph(r.small, mutedColor, "Explication : "+q.Explanation)
			}
		}
	}
}

// assemblePDF writes each page as PNG and lets pdfcpu import them into one
// document.
func assemblePDF(pages []*gg.Context) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to assemble")
	}

	tmpDir, err := os.MkdirTemp("", "fichemax-render-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	imgFiles := make([]string, 0, len(pages))
	for i, page := range pages {
		var buf bytes.Buffer
		if err := page.EncodePNG(&buf); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", i+1, err)
		}
		path := filepath.Join(tmpDir, "page-"+strconv.Itoa(i+1)+".png")
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write page %d: %w", i+1, err)
		}
		imgFiles = append(imgFiles, path)
	}

	outPath := filepath.Join(tmpDir, "sheet.pdf")
	if err := api.ImportImagesFile(imgFiles, outPath, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to assemble PDF: %w", err)
	}

	pdf, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assembled PDF: %w", err)
	}
	return pdf, nil
}

// pager flows text blocks down a page and starts a new page when the bottom
// margin is reached.
type pager struct {
	pages []*gg.Context
	dc    *gg.Context
	y     float64
}

func newPager() *pager {
	p := &pager{}
	p.newPage()
	return p
}

func (p *pager) newPage() {
	dc := gg.NewContext(pageWidth, pageHeight)
	dc.SetColor(color.White)
	dc.Clear()
	p.pages = append(p.pages, dc)
	p.dc = dc
	p.y = margin
}

// ensure starts a new page unless h more vertical space fits.
func (p *pager) ensure(h float64) {
	if p.y+h > pageHeight-margin {
		p.newPage()
	}
}

func (p *pager) spacing(h float64) {
	p.y += h
}

// headerBand draws the accent-colored title band at the top of the first page.
func (p *pager) headerBand(face font.Face, title string) {
	p.dc.SetFontFace(face)
	lines := p.dc.WordWrap(title, textWidth)
	lineHeight := p.dc.FontHeight() * 1.3
	bandHeight := margin/2 + float64(len(lines))*lineHeight + margin/2

	p.dc.SetColor(accentColor)
	p.dc.DrawRectangle(0, 0, pageWidth, bandHeight)
	p.dc.Fill()

	p.dc.SetColor(color.White)
	y := margin/2 + lineHeight*0.8
	for _, line := range lines {
		p.dc.DrawString(line, margin, y)
		y += lineHeight
	}

	p.y = bandHeight + 40
}

// section draws a heading with an accent underline.
func (p *pager) section(face font.Face, title string) {
	p.dc.SetFontFace(face)
	lineHeight := p.dc.FontHeight() * 1.4
	p.ensure(lineHeight + 30)
	p.dc.SetFontFace(face)

	p.dc.SetColor(accentColor)
	p.dc.DrawString(title, margin, p.y+lineHeight*0.8)
	p.dc.SetLineWidth(3)
	p.dc.DrawLine(margin, p.y+lineHeight+4, margin+textWidth, p.y+lineHeight+4)
	p.dc.Stroke()

	p.y += lineHeight + 22
}

// rule draws a full-width horizontal separator between quiz questions.
func (p *pager) rule() {
	const height = 2.0
	p.ensure(height + 24)
	p.spacing(12)

	p.dc.SetColor(sepColor)
	p.dc.DrawRectangle(margin, p.y, textWidth, height)
	p.dc.Fill()

	p.y += height + 10
}

// paragraph draws wrapped text.
func (p *pager) paragraph(face font.Face, col color.Color, text string) {
	p.writeWrapped(face, col, text, margin, textWidth)
	p.y += 10
}

// bullet draws a wrapped list item with a leading dot.
func (p *pager) bullet(face font.Face, col color.Color, text string) {
	const indent = 28.0
	p.dc.SetFontFace(face)
	lineHeight := p.dc.FontHeight() * 1.45
	p.ensure(lineHeight)
	p.dc.SetFontFace(face)

	p.dc.SetColor(col)
	p.dc.DrawString("•", margin, p.y+lineHeight*0.8)
	p.writeWrapped(face, col, text, margin+indent, textWidth-indent)
	p.y += 4
}

// writeWrapped flows wrapped lines at x, breaking pages as needed.
func (p *pager) writeWrapped(face font.Face, col color.Color, text string, x, width float64) {
	p.dc.SetFontFace(face)
	lines := p.dc.WordWrap(text, width)
	lineHeight := p.dc.FontHeight() * 1.45

	for _, line := range lines {
		p.ensure(lineHeight)
		p.dc.SetFontFace(face)
		p.dc.SetColor(col)
		p.dc.DrawString(line, x, p.y+lineHeight*0.8)
		p.y += lineHeight
	}
}
