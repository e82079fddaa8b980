package postgres

import (
	"fmt"
	"strings"
	"time"

	"github.com/oksasatya/go-ddd-user-accounts/internal/domain/repository"
)

var sortableColumns = map[string]string{
	"id":          "u.id",
	"username":    "u.username",
	"email":       "u.email",
	"provider":    "u.provider",
	"is_verified": "u.is_verified",
	"created_at":  "u.created_at",
}

type filterQuery struct {
	where   string
	args    []any
	orderBy string
}

// buildFilterQuery turns a Filter into a WHERE clause with positional
// arguments and an ORDER BY expression restricted to known columns.
func buildFilterQuery(f repository.Filter) filterQuery {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ID != nil {
		add("u.id = $%d", f.ID.UUID())
	}
	if f.Email != nil {
		add("u.email = $%d", f.Email.String())
	}
	if f.Username != "" {
		add("u.username ILIKE $%d", escapeLike(f.Username)+"%")
	}
	if f.IsVerified != nil {
		add("u.is_verified = $%d", *f.IsVerified)
	}
	if f.CreatedAt != nil {
		day := f.CreatedAt.Truncate(24 * time.Hour)
		add("u.created_at >= $%d", day)
		add("u.created_at < $%d", day.Add(24*time.Hour))
	}
	if f.CreatedAtStart != nil && f.CreatedAtEnd != nil {
		add("u.created_at >= $%d", *f.CreatedAtStart)
		add("u.created_at <= $%d", *f.CreatedAtEnd)
	}

	q := filterQuery{args: args, orderBy: "u.created_at DESC"}
	if len(conds) > 0 {
		q.where = "\n\tWHERE " + strings.Join(conds, " AND ")
	}
	if f.Order != nil {
		if col, ok := sortableColumns[f.Order.Field]; ok {
			q.orderBy = col + " " + strings.ToUpper(f.Order.Direction)
		}
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
