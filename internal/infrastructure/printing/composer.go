package printing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
)

// Letter landscape page in millimeters
const (
	PageWidthMM  = 279.4
	PageHeightMM = 215.9
)

const (
	defaultJPEGQuality   = 92
	aspectWarnTolerance  = 0.05
	certificateImageName = "certificate"
)

// PageMeta is the document metadata written into the PDF
type PageMeta struct {
	Title   string
	Subject string
	Author  string
	Created time.Time
}

// ComposeResult is a finished single-page document
type ComposeResult struct {
	PDF   []byte
	Pages int
}

// PageComposer embeds a captured bitmap into one letter landscape page.
// Content larger than one page is scaled to fit; there is no tiling.
type PageComposer struct {
	quality int
	logger  *zap.Logger
}

// NewPageComposer creates a composer. quality is the JPEG quality (1-100).
func NewPageComposer(quality int, logger *zap.Logger) *PageComposer {
	if quality <= 0 || quality > 100 {
		quality = defaultJPEGQuality
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageComposer{quality: quality, logger: logger}
}

// Compose writes bitmap as a compressed raster image filling the page
func (c *PageComposer) Compose(bitmap *Bitmap, meta PageMeta) (*ComposeResult, error) {
	if bitmap == nil || len(bitmap.PNG) == 0 {
		return nil, NewRenderError(ErrCodeEncodeFailed, "bitmap is empty", nil)
	}

	jpg, bounds, err := c.toJPEG(bitmap.PNG)
	if err != nil {
		return nil, err
	}

	pageRatio := PageWidthMM / PageHeightMM
	if ratio := float64(bounds.Dx()) / float64(bounds.Dy()); math.Abs(ratio-pageRatio)/pageRatio > aspectWarnTolerance {
		c.logger.Warn("capture aspect ratio differs from page, image will be stretched",
			zap.Float64("capture_ratio", ratio),
			zap.Float64("page_ratio", pageRatio))
	}

	// fpdf swaps width and height for landscape, so the size is given portrait
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "L",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: PageHeightMM, Ht: PageWidthMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(true)
	if meta.Title != "" {
		pdf.SetTitle(meta.Title, true)
	}
	if meta.Subject != "" {
		pdf.SetSubject(meta.Subject, true)
	}
	if meta.Author != "" {
		pdf.SetAuthor(meta.Author, true)
	}
	if !meta.Created.IsZero() {
		pdf.SetCreationDate(meta.Created)
	}

	pdf.AddPage()
	opts := fpdf.ImageOptions{ImageType: "JPG", ReadDpi: false}
	pdf.RegisterImageOptionsReader(certificateImageName, opts, bytes.NewReader(jpg))
	pdf.ImageOptions(certificateImageName, 0, 0, PageWidthMM, PageHeightMM, false, opts, 0, "")

	if err := pdf.Error(); err != nil {
		return nil, NewRenderError(ErrCodeEncodeFailed, "failed to build PDF page", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, NewRenderError(ErrCodeEncodeFailed, "failed to write PDF", err)
	}

	return &ComposeResult{PDF: buf.Bytes(), Pages: pdf.PageCount()}, nil
}

// toJPEG flattens the capture onto white and re-encodes it
func (c *PageComposer) toJPEG(pngData []byte) ([]byte, image.Rectangle, error) {
	src, _, err := image.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, image.Rectangle{}, NewRenderError(ErrCodeEncodeFailed, "failed to decode capture", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, bounds, NewRenderError(ErrCodeEncodeFailed, "capture has no pixels", nil)
	}

	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, src, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, bounds, NewRenderError(ErrCodeEncodeFailed, fmt.Sprintf("failed to encode JPEG at quality %d", c.quality), err)
	}
	return buf.Bytes(), bounds, nil
}
