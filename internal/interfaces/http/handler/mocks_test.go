package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	certapp "github.com/udes/eexchange/internal/application/certificate"
	"github.com/udes/eexchange/internal/interfaces/http/dto"
	"github.com/udes/eexchange/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type MockCertificateService struct {
	mock.Mock
}

func (m *MockCertificateService) Preview(ctx context.Context, id uuid.UUID) (*certapp.PreviewResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.PreviewResponse), args.Error(1)
}

func (m *MockCertificateService) Download(ctx context.Context, id uuid.UUID) (*certapp.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.Document), args.Error(1)
}

func (m *MockCertificateService) Verify(ctx context.Context, code string) (*certapp.VerificationResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.VerificationResponse), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) template(args mock.Arguments) (*certapp.TemplateResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.TemplateResponse), args.Error(1)
}

func (m *MockAdminService) ListTemplates(ctx context.Context, req certapp.ListTemplatesRequest) (*certapp.ListTemplatesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.ListTemplatesResponse), args.Error(1)
}

func (m *MockAdminService) GetTemplate(ctx context.Context, id uuid.UUID) (*certapp.TemplateResponse, error) {
	return m.template(m.Called(ctx, id))
}

func (m *MockAdminService) CreateTemplate(ctx context.Context, req certapp.CreateTemplateRequest) (*certapp.TemplateResponse, error) {
	return m.template(m.Called(ctx, req))
}

func (m *MockAdminService) UpdateTemplate(ctx context.Context, id uuid.UUID, req certapp.UpdateTemplateRequest) (*certapp.TemplateResponse, error) {
	return m.template(m.Called(ctx, id, req))
}

func (m *MockAdminService) ActivateTemplate(ctx context.Context, id uuid.UUID) (*certapp.TemplateResponse, error) {
	return m.template(m.Called(ctx, id))
}

func (m *MockAdminService) DeactivateTemplate(ctx context.Context, id uuid.UUID) (*certapp.TemplateResponse, error) {
	return m.template(m.Called(ctx, id))
}

func (m *MockAdminService) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) GetSettings(ctx context.Context) (*certapp.SettingsResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.SettingsResponse), args.Error(1)
}

func (m *MockAdminService) UpdateSettings(ctx context.Context, req certapp.UpdateSettingsRequest) (*certapp.SettingsResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.SettingsResponse), args.Error(1)
}

func (m *MockAdminService) ListSignatureProfiles(ctx context.Context, req certapp.ListSignatureProfilesRequest) (*certapp.ListSignatureProfilesResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.ListSignatureProfilesResponse), args.Error(1)
}

func (m *MockAdminService) GetSignatureProfile(ctx context.Context, id uuid.UUID) (*certapp.SignatureProfileResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.SignatureProfileResponse), args.Error(1)
}

func (m *MockAdminService) CreateSignatureProfile(ctx context.Context, req certapp.CreateSignatureProfileRequest) (*certapp.SignatureProfileResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certapp.SignatureProfileResponse), args.Error(1)
}

// decodeResponse unmarshals the envelope and re-decodes Data into out when given
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, out any) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil && resp.Data != nil {
		raw, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out))
	}
	return resp
}
