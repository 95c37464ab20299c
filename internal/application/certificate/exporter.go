package certificate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/udes/eexchange/internal/domain/shared"
	"github.com/udes/eexchange/internal/infrastructure/cache"
	"github.com/udes/eexchange/internal/infrastructure/logger"
	infra "github.com/udes/eexchange/internal/infrastructure/printing"
	"github.com/udes/eexchange/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrNothingToExport is returned when the rendered page has no certificate element
var ErrNothingToExport = errors.New("certificate element not present, nothing to export")

// AssetInliner embeds remote images into the page before capture
type AssetInliner interface {
	Inline(ctx context.Context, doc string) (string, infra.InlineReport, error)
}

// DocumentComposer turns a captured bitmap into a PDF
type DocumentComposer interface {
	Compose(bitmap *infra.Bitmap, meta infra.PageMeta) (*infra.ComposeResult, error)
}

// DocumentArchive keeps a copy of every rendered PDF
type DocumentArchive interface {
	Archive(ctx context.Context, name string, pdf []byte) (string, error)
}

// ExportObserver records export outcomes
type ExportObserver interface {
	ObserveExport(ctx context.Context, outcome string, d time.Duration)
}

// ExporterConfig tunes the capture pipeline
type ExporterConfig struct {
	Scale       float64
	SettleDelay time.Duration
	Timeout     time.Duration
	CacheTTL    time.Duration
}

// Document is an exported certificate PDF
type Document struct {
	Filename string
	PDF      []byte
	Pages    int
	Cached   bool
}

// Exporter runs the capture pipeline: inline assets, load the page, wait for
// images, settle, rasterize the certificate element and compose the PDF.
// Concurrent exports of the same document share one run. Failures are never cached.
type Exporter struct {
	builder    *PageBuilder
	assets     AssetInliner
	rasterizer infra.Rasterizer
	composer   DocumentComposer
	cache      cache.DocumentCache
	archive    DocumentArchive
	metrics    ExportObserver
	cfg        ExporterConfig
	group      singleflight.Group
	logger     *zap.Logger
}

// ExporterOption configures optional Exporter collaborators
type ExporterOption func(*Exporter)

// WithAssetInliner sets the asset barrier run before capture
func WithAssetInliner(a AssetInliner) ExporterOption {
	return func(e *Exporter) { e.assets = a }
}

// WithDocumentCache sets the rendered document cache
func WithDocumentCache(c cache.DocumentCache) ExporterOption {
	return func(e *Exporter) {
		if c != nil {
			e.cache = c
		}
	}
}

// WithDocumentArchive sets where rendered PDFs are archived
func WithDocumentArchive(a DocumentArchive) ExporterOption {
	return func(e *Exporter) { e.archive = a }
}

// WithExportObserver sets the export metrics sink
func WithExportObserver(o ExportObserver) ExporterOption {
	return func(e *Exporter) { e.metrics = o }
}

// NewExporter creates an Exporter
func NewExporter(
	builder *PageBuilder,
	rasterizer infra.Rasterizer,
	composer DocumentComposer,
	cfg ExporterConfig,
	logger *zap.Logger,
	opts ...ExporterOption,
) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Scale <= 0 {
		cfg.Scale = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	e := &Exporter{
		builder:    builder,
		rasterizer: rasterizer,
		composer:   composer,
		cache:      cache.NoopDocumentCache{},
		cfg:        cfg,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export renders rc to a PDF.
// Every pipeline failure surfaces as shared.ErrExportFailed; a page without the
// certificate element yields ErrNothingToExport.
func (e *Exporter) Export(ctx context.Context, rc *RenderContext) (*Document, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "Exporter", "Export",
		attribute.String(telemetry.SpanAttrCertificateID, rc.Certificate.ID.String()),
		attribute.Int(telemetry.SpanAttrTemplateVersion, rc.TemplateVersion()),
	)
	defer span.End()

	start := time.Now()
	log := logger.Enrich(ctx, e.logger).With(zap.String("certificate_id", rc.Certificate.ID.String()))
	key := cache.DocumentKey(rc.Certificate.ID, rc.Fingerprint(), rc.TemplateVersion())
	filename := rc.Certificate.DownloadFilename()

	if data, ok := e.cached(ctx, key, log); ok {
		e.observe(ctx, telemetry.OutcomeCached, start)
		span.SetAttributes(attribute.String(telemetry.SpanAttrExportOutcome, telemetry.OutcomeCached))
		return &Document{Filename: filename, PDF: data, Pages: 1, Cached: true}, nil
	}

	// The shared run is detached from any single caller; it is bounded by the export timeout.
	detached := context.WithoutCancel(ctx)
	led := false
	ch := e.group.DoChan(key, func() (any, error) {
		led = true
		result, err := e.render(detached, rc, key, log)
		if err != nil && !errors.Is(err, ErrNothingToExport) {
			log.Error("Certificate export failed", zap.Error(err))
		}
		return result, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		log.Info("Certificate export abandoned by caller", zap.Error(ctx.Err()))
		return nil, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		if errors.Is(res.Err, ErrNothingToExport) {
			log.Warn("Certificate element missing, nothing exported")
			return nil, ErrNothingToExport
		}
		e.observe(ctx, telemetry.OutcomeFailed, start)
		span.RecordError(res.Err)
		telemetry.RecordError(span, shared.ErrExportFailed)
		return nil, errExportFailed()
	}

	result := res.Val.(*infra.ComposeResult)
	outcome := telemetry.OutcomeRendered
	if !led {
		outcome = telemetry.OutcomeCoalesced
	}
	e.observe(ctx, outcome, start)
	span.SetAttributes(
		attribute.String(telemetry.SpanAttrExportOutcome, outcome),
		attribute.Int(telemetry.SpanAttrPDFBytes, len(result.PDF)),
	)
	return &Document{Filename: filename, PDF: result.PDF, Pages: result.Pages}, nil
}

func (e *Exporter) render(ctx context.Context, rc *RenderContext, key string, log *zap.Logger) (*infra.ComposeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	page, err := e.builder.Build(ctx, rc)
	if err != nil {
		return nil, err
	}

	doc := page.HTML
	if e.assets != nil {
		inlined, report, err := e.assets.Inline(ctx, doc)
		if err != nil {
			log.Warn("Asset barrier failed, capturing page as is", zap.Error(err))
		} else {
			doc = inlined
			log.Debug("Assets settled",
				zap.Int("loaded", report.Loaded),
				zap.Int("failed", report.Failed),
				zap.Int("skipped", report.Skipped),
			)
		}
	}

	target, err := e.rasterizer.Open(ctx, doc, infra.CaptureSelector)
	if err != nil {
		if errors.Is(err, infra.ErrTargetMissing) {
			return nil, ErrNothingToExport
		}
		return nil, fmt.Errorf("failed to open capture target: %w", err)
	}
	defer func() {
		if cerr := target.Close(); cerr != nil {
			log.Debug("Failed to close capture target", zap.Error(cerr))
		}
	}()

	if err := target.WaitUntilReady(ctx); err != nil {
		return nil, fmt.Errorf("failed waiting for images: %w", err)
	}
	if err := settle(ctx, e.cfg.SettleDelay); err != nil {
		return nil, err
	}

	bitmap, err := target.Rasterize(ctx, e.cfg.Scale)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize certificate: %w", err)
	}

	result, err := e.composer.Compose(bitmap, infra.PageMeta{
		Title:   strings.TrimSuffix(rc.Certificate.DownloadFilename(), ".pdf"),
		Subject: rc.Certificate.CourseTitle,
		Author:  rc.Signer.Title,
		Created: rc.Certificate.IssuedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compose PDF: %w", err)
	}

	if err := e.cache.Set(ctx, key, result.PDF, e.cfg.CacheTTL); err != nil {
		log.Warn("Failed to cache exported certificate", zap.Error(err))
	}
	if e.archive != nil {
		name := strings.TrimSuffix(rc.Certificate.DownloadFilename(), ".pdf")
		if path, err := e.archive.Archive(ctx, name, result.PDF); err != nil {
			log.Warn("Failed to archive exported certificate", zap.Error(err))
		} else {
			log.Debug("Certificate archived", zap.String("path", path))
		}
	}

	log.Info("Certificate exported",
		zap.String("template", rc.TemplateName()),
		zap.Int("pdf_bytes", len(result.PDF)),
		zap.Int("width", bitmap.Width),
		zap.Int("height", bitmap.Height),
	)
	return result, nil
}

func (e *Exporter) cached(ctx context.Context, key string, log *zap.Logger) ([]byte, bool) {
	data, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		log.Warn("Document cache read failed", zap.Error(err))
		return nil, false
	}
	if !ok || len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (e *Exporter) observe(ctx context.Context, outcome string, start time.Time) {
	if e.metrics != nil {
		e.metrics.ObserveExport(ctx, outcome, time.Since(start))
	}
}

func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func errExportFailed() *shared.DomainError {
	return shared.NewDomainError(shared.ErrExportFailed.Code, shared.ErrExportFailed.Message)
}
