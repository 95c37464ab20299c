package printing

import (
	"context"
	"errors"
)

// Bitmap is a captured raster of the certificate element
type Bitmap struct {
	// PNG holds the encoded capture
	PNG []byte
	// Width and Height are the pixel dimensions of PNG
	Width  int
	Height int
	// Scale is the device pixel multiplier used for the capture
	Scale float64
}

// AspectRatio returns width over height, or 0 for an empty bitmap
func (b *Bitmap) AspectRatio() float64 {
	if b == nil || b.Height == 0 {
		return 0
	}
	return float64(b.Width) / float64(b.Height)
}

// CaptureTarget is a rendered element that can be snapshotted
type CaptureTarget interface {
	// WaitUntilReady normalizes canvases to images and waits for every image
	// to either load or fail. It never blocks on a failing image.
	WaitUntilReady(ctx context.Context) error
	// Rasterize captures the element at the given pixel density, anchored to
	// the element's own bounding box
	Rasterize(ctx context.Context, scale float64) (*Bitmap, error)
	// Close releases the rendering surface
	Close() error
}

// Rasterizer opens capture targets from a complete HTML document
type Rasterizer interface {
	// Open loads html and locates the element matching selector.
	// Returns ErrTargetMissing when the selector matches nothing.
	Open(ctx context.Context, html, selector string) (CaptureTarget, error)
	// Close releases any resources held by the rasterizer
	Close() error
}

// ErrTargetMissing is returned when the capture element is absent
var ErrTargetMissing = errors.New("capture target not found")

// RenderError represents an error during certificate rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeCaptureFailed  = "CAPTURE_FAILED"
	ErrCodeEncodeFailed   = "ENCODE_FAILED"
	ErrCodeStorageFailed  = "STORAGE_FAILED"
	ErrCodeTemplateFailed = "TEMPLATE_FAILED"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
