package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/udes/eexchange/internal/domain/shared"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "DESC"},
		{"asc", "ASC"},
		{"  ASC  ", "ASC"},
		{"desc", "DESC"},
		{"ASC; DROP TABLE certificates;--", "DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "name", ValidateSortField(" name ", TemplateSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("html_content", TemplateSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", TemplateSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("name; DROP TABLE x", TemplateSortFields, "created_at"))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "name ASC", orderClause(shared.Filter{OrderBy: "name", OrderDir: "asc"}, TemplateSortFields))
	assert.Equal(t, "created_at DESC", orderClause(shared.Filter{OrderBy: "secret"}, SignatureProfileSortFields))
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%diploma%", likePattern(" Diploma "))
	assert.Equal(t, `%100\%\_ok%`, likePattern("100%_ok"))
}
