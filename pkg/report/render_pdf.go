package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// pdfRenderTimeout bounds how long a single headless-browser render is
// allowed to take before falling back to HTML.
const pdfRenderTimeout = 20 * time.Second

// renderPDFWithFallback renders the HTML document through a headless Chrome
// instance. If Chrome is unreachable or rendering fails, it falls back to
// the raw HTML bytes with a non-empty note, per spec §4.H "PDF": "If
// unavailable, fall back to HTML with a note field; the returned artifact
// still declares format=pdf for the caller's bookkeeping."
func (g *Generator) renderPDFWithFallback(ctx context.Context, in renderInput) ([]byte, string, error) {
	htmlDoc := renderHTML(in)

	pdfBytes, err := g.renderPDF(ctx, htmlDoc)
	if err != nil {
		g.log.Warn("pdf rendering unavailable, falling back to html", "assessmentId", in.assessment.ID, "err", err)
		return []byte(htmlDoc), "pdf rendering unavailable: " + err.Error(), nil
	}
	return pdfBytes, "", nil
}

func (g *Generator) renderPDF(ctx context.Context, htmlDoc string) ([]byte, error) {
	allocCtx, cancelAlloc := g.allocatorContext(ctx)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, pdfRenderTimeout)
	defer cancelTimeout()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(htmlDoc))

	var pdfBuf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(dataURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering pdf via headless chrome: %w", err)
	}
	return pdfBuf, nil
}

// allocatorContext connects to a remote Chrome instance when configured,
// otherwise lets chromedp spawn a local headless binary.
func (g *Generator) allocatorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.chromeURL != "" {
		return chromedp.NewRemoteAllocator(ctx, g.chromeURL)
	}
	return chromedp.NewExecAllocator(ctx, chromedp.DefaultExecAllocatorOptions[:]...)
}
