package printing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/png"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout  = 30 * time.Second
	defaultViewportWidth  = 1200
	defaultViewportHeight = 900
)

// ChromedpConfig contains configuration for the chromedp rasterizer
type ChromedpConfig struct {
	// Timeout bounds one capture target from Open to Close
	Timeout time.Duration
	// RemoteURL is the websocket URL of a running Chrome (optional).
	// If empty, chromedp launches a new browser instance.
	RemoteURL string
	// Headless mode (default: true)
	Headless bool
	// DisableGPU disables GPU hardware acceleration (default: true for server environments)
	DisableGPU bool
	// NoSandbox runs Chrome without sandbox (required for Docker/root)
	NoSandbox bool
	// ViewportWidth and ViewportHeight size the page in CSS pixels
	ViewportWidth  int64
	ViewportHeight int64
	// Logger for debug output
	Logger *zap.Logger
}

// ChromedpRasterizer opens certificate pages in headless Chrome
type ChromedpRasterizer struct {
	config      *ChromedpConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromedpRasterizer creates a chromedp-based rasterizer
func NewChromedpRasterizer(config *ChromedpConfig) (*ChromedpRasterizer, error) {
	if config == nil {
		config = &ChromedpConfig{}
	}
	applyChromedpDefaults(config)

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &ChromedpRasterizer{
		config: config,
		logger: logger,
	}
	r.initAllocator()

	return r, nil
}

func applyChromedpDefaults(config *ChromedpConfig) {
	if config.Timeout <= 0 {
		config.Timeout = defaultChromeTimeout
	}
	if config.ViewportWidth <= 0 {
		config.ViewportWidth = defaultViewportWidth
	}
	if config.ViewportHeight <= 0 {
		config.ViewportHeight = defaultViewportHeight
	}
	// Always headless without GPU on servers
	config.Headless = true
	config.DisableGPU = true
}

func (r *ChromedpRasterizer) initAllocator() {
	if r.config.RemoteURL != "" {
		r.allocCtx, r.allocCancel = chromedp.NewRemoteAllocator(context.Background(), r.config.RemoteURL)
		return
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", r.config.Headless),
		chromedp.Flag("disable-gpu", r.config.DisableGPU),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Docker
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if r.config.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	r.allocCtx, r.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
}

// Open loads the document into a new tab and checks the selector matches
func (r *ChromedpRasterizer) Open(ctx context.Context, html, selector string) (CaptureTarget, error) {
	if strings.TrimSpace(html) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	}
	if strings.TrimSpace(selector) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "capture selector is empty", nil)
	}

	tabCtx, tabCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	runCtx, runCancel := context.WithTimeout(tabCtx, r.config.Timeout)

	t := &chromedpTarget{
		ctx:      runCtx,
		selector: selector,
		timeout:  r.config.Timeout,
		logger:   r.logger,
		cancel: func() {
			runCancel()
			tabCancel()
		},
	}

	var exists bool
	err := t.run(ctx,
		chromedp.EmulateViewport(r.config.ViewportWidth, r.config.ViewportHeight),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.Evaluate(existsScript(selector), &exists),
	)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	if !exists {
		_ = t.Close()
		return nil, ErrTargetMissing
	}
	return t, nil
}

// Close releases the browser allocator
func (r *ChromedpRasterizer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

// chromedpTarget is one browser tab holding a loaded certificate page
type chromedpTarget struct {
	ctx      context.Context
	cancel   context.CancelFunc
	selector string
	timeout  time.Duration
	logger   *zap.Logger
}

// WaitUntilReady swaps canvases for images and waits on every image load or error
func (t *chromedpTarget) WaitUntilReady(ctx context.Context) error {
	var found bool
	err := t.run(ctx, chromedp.Evaluate(readinessScript(t.selector), &found, awaitPromise))
	if err != nil {
		return err
	}
	if !found {
		return ErrTargetMissing
	}
	return nil
}

// Rasterize captures the element box at the given device scale
func (t *chromedpTarget) Rasterize(ctx context.Context, scale float64) (*Bitmap, error) {
	if scale <= 0 {
		scale = 1
	}

	var buf []byte
	if err := t.run(ctx, chromedp.ScreenshotScale(t.selector, scale, &buf, chromedp.ByQuery)); err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, NewRenderError(ErrCodeCaptureFailed, "screenshot is empty", nil)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		return nil, NewRenderError(ErrCodeCaptureFailed, "screenshot is not a valid image", err)
	}

	t.logger.Debug("certificate element captured",
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
		zap.Float64("scale", scale))

	return &Bitmap{PNG: buf, Width: cfg.Width, Height: cfg.Height, Scale: scale}, nil
}

// Close closes the tab
func (t *chromedpTarget) Close() error {
	t.cancel()
	return nil
}

// run executes actions on the tab, closing it if the caller's ctx ends first
func (t *chromedpTarget) run(ctx context.Context, actions ...chromedp.Action) error {
	stop := context.AfterFunc(ctx, t.cancel)
	defer stop()

	err := chromedp.Run(t.ctx, actions...)
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(t.ctx.Err(), context.DeadlineExceeded):
		return NewRenderError(ErrCodeRenderTimeout,
			fmt.Sprintf("certificate rendering timed out after %v", t.timeout), err)
	case ctx.Err() != nil:
		return NewRenderError(ErrCodeRenderTimeout, "certificate rendering was cancelled", ctx.Err())
	}

	t.logger.Error("chromedp rendering failed", zap.Error(err))
	return NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

// selectorLiteral renders selector as a JavaScript string literal
func selectorLiteral(selector string) string {
	b, _ := json.Marshal(selector)
	return string(b)
}

func existsScript(selector string) string {
	return fmt.Sprintf("document.querySelector(%s) !== null", selectorLiteral(selector))
}

// readinessScript replaces canvases under the target with static images and
// resolves once every image has loaded or failed
func readinessScript(selector string) string {
	return fmt.Sprintf(`(async (sel) => {
  const root = document.querySelector(sel);
  if (!root) return false;
  for (const canvas of Array.from(root.querySelectorAll('canvas'))) {
    try {
      const img = document.createElement('img');
      img.src = canvas.toDataURL('image/png');
      img.width = canvas.width;
      img.height = canvas.height;
      img.className = canvas.className;
      img.style.cssText = canvas.style.cssText;
      canvas.replaceWith(img);
    } catch (e) {}
  }
  await Promise.all(Array.from(root.querySelectorAll('img')).map((img) =>
    img.complete ? Promise.resolve() : new Promise((resolve) => {
      img.addEventListener('load', resolve, { once: true });
      img.addEventListener('error', resolve, { once: true });
    })));
  if (document.fonts && document.fonts.ready) {
    await document.fonts.ready;
  }
  return true;
})(%s)`, selectorLiteral(selector))
}

var _ Rasterizer = (*ChromedpRasterizer)(nil)
var _ CaptureTarget = (*chromedpTarget)(nil)
