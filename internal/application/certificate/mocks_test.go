package certificate_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domain "github.com/udes/eexchange/internal/domain/certificate"
	"github.com/udes/eexchange/internal/domain/shared"
	infra "github.com/udes/eexchange/internal/infrastructure/printing"
)

// =============================================================================
// Repository mocks
// =============================================================================

type MockCertificateRepository struct {
	mock.Mock
}

func (m *MockCertificateRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certificate), args.Error(1)
}

func (m *MockCertificateRepository) FindByVerificationCode(ctx context.Context, code string) (*domain.Certificate, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Certificate), args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recipient), args.Error(1)
}

type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) FindActive(ctx context.Context) (*domain.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Settings), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, settings *domain.Settings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) FindCandidates(ctx context.Context, courseID uuid.UUID) ([]domain.Template, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) FindAll(ctx context.Context, filter domain.TemplateFilter) ([]domain.Template, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Template), args.Get(1).(int64), args.Error(2)
}

func (m *MockTemplateRepository) FindActiveInScope(ctx context.Context, t *domain.Template) ([]domain.Template, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Template), args.Error(1)
}

func (m *MockTemplateRepository) Save(ctx context.Context, t *domain.Template) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTemplateRepository) SaveAll(ctx context.Context, templates []*domain.Template) error {
	args := m.Called(ctx, templates)
	return args.Error(0)
}

func (m *MockTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockSignatureProfileRepository struct {
	mock.Mock
}

func (m *MockSignatureProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.SignatureProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SignatureProfile), args.Error(1)
}

func (m *MockSignatureProfileRepository) FindAll(ctx context.Context, filter shared.Filter) ([]domain.SignatureProfile, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.SignatureProfile), args.Get(1).(int64), args.Error(2)
}

func (m *MockSignatureProfileRepository) Save(ctx context.Context, p *domain.SignatureProfile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockSignatureURLResolver struct {
	mock.Mock
}

func (m *MockSignatureURLResolver) SignatureURL(ctx context.Context, filename string) (string, error) {
	args := m.Called(ctx, filename)
	return args.String(0), args.Error(1)
}

// =============================================================================
// Capture fakes
// =============================================================================

var errCaptureFailed = errors.New("screenshot failed")

// fakeRasterizer records every opened page and hands out targets that
// return a small real PNG
type fakeRasterizer struct {
	mu        sync.Mutex
	opens     int
	pages     []string
	openErr   error
	failNext  int
	entered   chan struct{}
	gate      chan struct{}
	bitmapPNG []byte
}

func newFakeRasterizer(t *testing.T) *fakeRasterizer {
	t.Helper()
	return &fakeRasterizer{bitmapPNG: testPNG(t, 66, 51)}
}

func (f *fakeRasterizer) Open(_ context.Context, html, selector string) (infra.CaptureTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	f.pages = append(f.pages, html)
	if f.openErr != nil {
		return nil, f.openErr
	}
	return &fakeTarget{r: f}, nil
}

func (f *fakeRasterizer) Close() error { return nil }

func (f *fakeRasterizer) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func (f *fakeRasterizer) LastPage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pages) == 0 {
		return ""
	}
	return f.pages[len(f.pages)-1]
}

type fakeTarget struct {
	r *fakeRasterizer
}

func (t *fakeTarget) WaitUntilReady(ctx context.Context) error { return ctx.Err() }

func (t *fakeTarget) Rasterize(ctx context.Context, scale float64) (*infra.Bitmap, error) {
	if t.r.entered != nil {
		t.r.entered <- struct{}{}
	}
	if t.r.gate != nil {
		<-t.r.gate
	}

	t.r.mu.Lock()
	defer t.r.mu.Unlock()
	if t.r.failNext > 0 {
		t.r.failNext--
		return nil, infra.NewRenderError(infra.ErrCodeCaptureFailed, "capture failed", errCaptureFailed)
	}
	return &infra.Bitmap{PNG: t.r.bitmapPNG, Width: 66, Height: 51, Scale: scale}, nil
}

func (t *fakeTarget) Close() error { return nil }

type recordingObserver struct {
	mu            sync.Mutex
	outcomes      []string
	verifications []bool
}

func (o *recordingObserver) ObserveExport(_ context.Context, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) ObserveVerification(_ context.Context, found bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verifications = append(o.verifications, found)
}

func (o *recordingObserver) Outcomes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.outcomes...)
}

type recordingArchive struct {
	mu    sync.Mutex
	names []string
}

func (a *recordingArchive) Archive(_ context.Context, name string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.names = append(a.names, name)
	return "2026/10/" + name + ".pdf", nil
}

// =============================================================================
// Fixtures
// =============================================================================

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 5, G: 44, B: 78, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleCertificate() *domain.Certificate {
	profileID := uuid.New()
	return &domain.Certificate{
		ID:               uuid.New(),
		ProfileID:        profileID,
		CourseID:         uuid.New(),
		VerificationCode: "CERT-0001",
		IssuedAt:         time.Date(2026, time.October, 18, 15, 0, 0, 0, time.UTC),
		Hours:            40,
		Recipient: domain.Recipient{
			ProfileID: profileID,
			FullName:  "María López",
			Email:     "maria@example.com",
			City:      "Quito",
		},
		CourseTitle: "Gestión Cultural",
	}
}

func globalTemplate(t *testing.T, markup string) *domain.Template {
	t.Helper()
	tmpl, err := domain.NewTemplate("Global", markup, nil, true)
	require.NoError(t, err)
	require.NoError(t, tmpl.Activate())
	return tmpl
}

func courseTemplate(t *testing.T, courseID uuid.UUID, markup string) *domain.Template {
	t.Helper()
	id := courseID
	tmpl, err := domain.NewTemplate("Course", markup, &id, false)
	require.NoError(t, err)
	require.NoError(t, tmpl.Activate())
	return tmpl
}
