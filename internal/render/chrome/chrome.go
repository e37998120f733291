// Package chrome renders study sheets by printing an HTML template to PDF
// through a headless Chrome instance. Requires a Chrome/Chromium binary on
// the host; use the draw strategy where that is not acceptable.
package chrome

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/fichemax/fichemax/internal/studysheet"
)

// RenderTimeout bounds a single print run, browser startup included.
const RenderTimeout = 60 * time.Second

// Renderer prints sheets through headless Chrome.
type Renderer struct{}

// New creates a chrome renderer.
func New() *Renderer {
	return &Renderer{}
}

// Name returns the strategy identifier.
func (r *Renderer) Name() string { return "chrome" }

// RenderStudySheet renders the sheet template and prints it to PDF.
func (r *Renderer) RenderStudySheet(ctx context.Context, sheet *studysheet.StudySheet) ([]byte, error) {
	if sheet == nil {
		return nil, fmt.Errorf("sheet is required")
	}

	html, err := renderHTML(sheet)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, RenderTimeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("headless print failed: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("headless print produced no output")
	}
	return pdf, nil
}
