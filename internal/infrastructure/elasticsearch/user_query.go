package elasticsearch

import (
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
)

var sortableFields = map[string]bool{
	"id":          true,
	"username":    true,
	"email":       true,
	"provider":    true,
	"is_verified": true,
	"created_at":  true,
}

// buildSearchQuery renders a Filter as an Elasticsearch search body. Every
// criterion is a non-scoring filter clause.
func buildSearchQuery(f repository.Filter) map[string]any {
	filters := make([]map[string]any, 0)

	if f.ID != nil {
		filters = append(filters, map[string]any{"term": map[string]any{"id": f.ID.String()}})
	}
	if f.Email != nil {
		filters = append(filters, map[string]any{"term": map[string]any{"email": f.Email.String()}})
	}
	if f.Username != "" {
		filters = append(filters, map[string]any{
			"prefix": map[string]any{"username": map[string]any{"value": f.Username, "case_insensitive": true}},
		})
	}
	if f.IsVerified != nil {
		filters = append(filters, map[string]any{"term": map[string]any{"is_verified": *f.IsVerified}})
	}
	if f.CreatedAt != nil {
		day := f.CreatedAt.Truncate(24 * time.Hour)
		filters = append(filters, map[string]any{"range": map[string]any{"created_at": map[string]any{
			"gte": day.Format(time.RFC3339),
			"lt":  day.Add(24 * time.Hour).Format(time.RFC3339),
		}}})
	}
	if f.CreatedAtStart != nil && f.CreatedAtEnd != nil {
		filters = append(filters, map[string]any{"range": map[string]any{"created_at": map[string]any{
			"gte": f.CreatedAtStart.Format(time.RFC3339),
			"lte": f.CreatedAtEnd.Format(time.RFC3339),
		}}})
	}

	query := map[string]any{"match_all": map[string]any{}}
	if len(filters) > 0 {
		query = map[string]any{"bool": map[string]any{"filter": filters}}
	}

	sortField, sortDir := "created_at", "desc"
	if f.Order != nil && sortableFields[f.Order.Field] {
		sortField, sortDir = f.Order.Field, f.Order.Direction
	}

	return map[string]any{
		"query":            query,
		"from":             f.Offset,
		"size":             f.PageLimit(),
		"track_total_hits": true,
		"sort": []map[string]any{
			{sortField: map[string]any{"order": sortDir, "unmapped_type": "keyword"}},
		},
	}
}
