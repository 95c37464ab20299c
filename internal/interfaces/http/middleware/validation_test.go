package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/udes/eexchange/internal/interfaces/http/dto"
)

type colorRequest struct {
	Name  string `json:"name" binding:"required,max=10"`
	Color string `json:"primary_color" binding:"omitempty,brand_color"`
}

type codeQuery struct {
	Code string `form:"code" binding:"required,verification_code"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/colors", func(c *gin.Context) {
		var req colorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/verify", func(c *gin.Context) {
		var q codeQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/colors", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidation_BrandColor(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		body string
		want int
	}{
		{`{"name":"UDES","primary_color":"#1a2b3c"}`, http.StatusOK},
		{`{"name":"UDES","primary_color":"#abc"}`, http.StatusOK},
		{`{"name":"UDES"}`, http.StatusOK},
		{`{"name":"UDES","primary_color":"navy"}`, http.StatusBadRequest},
		{`{"name":"UDES","primary_color":"#1a2b3c4d"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			assert.Equal(t, tt.want, postJSON(router, tt.body).Code)
		})
	}
}

func TestValidation_DetailsUseJSONNames(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"primary_color":"red"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)

	fields := map[string]string{}
	for _, d := range resp.Error.Details {
		fields[d.Field] = d.Message
	}
	assert.Equal(t, "This field is required", fields["name"])
	assert.Equal(t, "Must be a hex color such as #1a2b3c", fields["primary_color"])
}

func TestValidation_MalformedJSON(t *testing.T) {
	w := postJSON(newValidationRouter(), `{"name":`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}

func TestValidation_VerificationCode(t *testing.T) {
	router := newValidationRouter()

	tests := []struct {
		query string
		want  int
	}{
		{"code=CERT-0001", http.StatusOK},
		{"code=abc_123", http.StatusOK},
		{"code=", http.StatusBadRequest},
		{"code=CERT%200001", http.StatusBadRequest},
		{"code=%3Cscript%3E", http.StatusBadRequest},
		{"code=" + strings.Repeat("A", 65), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/verify?"+tt.query, nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
