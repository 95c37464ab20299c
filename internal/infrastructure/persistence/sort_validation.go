package persistence

import (
	"strings"

	"github.com/udes/eexchange/internal/domain/shared"
)

// TemplateSortFields lists the columns templates may be ordered by
var TemplateSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"active":     true,
	"is_global":  true,
}

// SignatureProfileSortFields lists the columns signature profiles may be ordered by
var SignatureProfileSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// ValidateSortOrder normalizes to ASC or DESC, defaulting to DESC
func ValidateSortOrder(orderDir string) string {
	if strings.EqualFold(strings.TrimSpace(orderDir), "ASC") {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField returns sortField when whitelisted, otherwise defaultField
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a safe ORDER BY clause from user input
func orderClause(filter shared.Filter, allowed map[string]bool) string {
	return ValidateSortField(filter.OrderBy, allowed, "created_at") + " " + ValidateSortOrder(filter.OrderDir)
}

// likePattern escapes LIKE wildcards in a user search term
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + strings.ToLower(r.Replace(strings.TrimSpace(search))) + "%"
}
