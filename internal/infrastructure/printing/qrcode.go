package printing

import (
	"encoding/base64"
	"image/color"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const defaultQRSize = 256

// QRGenerator encodes verification URLs as PNG data URIs
type QRGenerator struct {
	size   int
	level  qrcode.RecoveryLevel
	logger *zap.Logger
}

// QROption configures a QRGenerator
type QROption func(*QRGenerator)

// WithQRSize sets the square image edge in pixels
func WithQRSize(size int) QROption {
	return func(g *QRGenerator) {
		if size > 0 {
			g.size = size
		}
	}
}

// WithQRLogger sets the logger
func WithQRLogger(logger *zap.Logger) QROption {
	return func(g *QRGenerator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewQRGenerator creates a generator with medium error correction
func NewQRGenerator(opts ...QROption) *QRGenerator {
	g := &QRGenerator{
		size:   defaultQRSize,
		level:  qrcode.Medium,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// PNG encodes payload with the given foreground color on white.
// The standard four-module quiet zone is kept.
func (g *QRGenerator) PNG(payload, foreground string) ([]byte, error) {
	q, err := qrcode.New(payload, g.level)
	if err != nil {
		return nil, err
	}
	q.ForegroundColor = parseHexColor(foreground)
	q.BackgroundColor = color.White
	return q.PNG(g.size)
}

// DataURI returns the QR image as a data URI.
// Encoding failures are logged and yield an empty string so the rest of the
// certificate still renders.
func (g *QRGenerator) DataURI(payload, foreground string) string {
	png, err := g.PNG(payload, foreground)
	if err != nil {
		g.logger.Warn("QR encoding failed, leaving slot empty",
			zap.Int("payload_length", len(payload)),
			zap.Error(err))
		return ""
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}

// parseHexColor parses #rgb or #rrggbb, falling back to black
func parseHexColor(s string) color.Color {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.Black
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}
