// Package query turns an actor and user supplied filters into role-scoped, paginated
// retrieval criteria for the complaint store.
package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/spec-kit/complaint-portal/internal/domain"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter is the raw, optional filter set accepted from callers.
type Filter struct {
	Status   string
	Category string
	Priority string
	Search   string
	Page     int
	Limit    int
}

// Criteria is a validated, scoped query. Scope fields are set only by Build.
type Criteria struct {
	SubmitterID *int64
	AssigneeID  *int64
	Status      *domain.ComplaintStatus
	Category    *domain.ComplaintCategory
	Priority    *domain.ComplaintPriority
	Search      string
	Page        int
	Limit       int
}

// Build applies the actor's visibility scope and validates the optional filters.
func Build(actor *domain.Actor, f Filter) (Criteria, error) {
	if actor == nil {
		return Criteria{}, apperrors.NewUnauthorized("authentication required")
	}

	c := Criteria{
		Page:  ClampPage(f.Page),
		Limit: ClampLimit(f.Limit),
	}

	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleStaff:
		id := actor.ID
		c.AssigneeID = &id
	case domain.RoleUser:
		id := actor.ID
		c.SubmitterID = &id
	default:
		return Criteria{}, apperrors.NewForbidden("unknown role")
	}

	fields := apperrors.FieldErrors{}
	if s := strings.TrimSpace(f.Status); s != "" {
		status := domain.ComplaintStatus(s)
		if !status.Valid() {
			fields.Add("status", "invalid status value")
		}
		c.Status = &status
	}
	if s := strings.TrimSpace(f.Category); s != "" {
		category := domain.ComplaintCategory(s)
		if !category.Valid() {
			fields.Add("category", "invalid category value")
		}
		c.Category = &category
	}
	if s := strings.TrimSpace(f.Priority); s != "" {
		priority := domain.ComplaintPriority(s)
		if !priority.Valid() {
			fields.Add("priority", "invalid priority value")
		}
		c.Priority = &priority
	}
	if err := fields.Err(); err != nil {
		return Criteria{}, err
	}
	c.Search = strings.TrimSpace(f.Search)
	return c, nil
}

// ClampPage forces page into [1, inf), defaulting to 1.
func ClampPage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	return page
}

// ClampLimit forces limit into [1, MaxLimit]. Zero means "not supplied" and yields DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// Offset is the number of rows skipped before the current page.
func (c Criteria) Offset() int {
	return (ClampPage(c.Page) - 1) * ClampLimit(c.Limit)
}

// Where renders the criteria as a parameterized SQL predicate over the complaints table
// aliased as alias. Placeholders start at $1.
func (c Criteria) Where(alias string) (string, []any) {
	col := func(name string) string {
		if alias == "" {
			return name
		}
		return alias + "." + name
	}

	clauses := []string{"1=1"}
	args := []any{}

	if c.SubmitterID != nil {
		args = append(args, *c.SubmitterID)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("user_id"), len(args)))
	}
	if c.AssigneeID != nil {
		args = append(args, *c.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("staff_id"), len(args)))
	}
	if c.Status != nil {
		args = append(args, string(*c.Status))
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("status"), len(args)))
	}
	if c.Category != nil {
		args = append(args, string(*c.Category))
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("category"), len(args)))
	}
	if c.Priority != nil {
		args = append(args, string(*c.Priority))
		clauses = append(clauses, fmt.Sprintf("%s=$%d", col("priority"), len(args)))
	}
	if c.Search != "" {
		args = append(args, "%"+escapeLike(c.Search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(`(%s ILIKE %s ESCAPE '\' OR %s ILIKE %s ESCAPE '\')`,
			col("title"), placeholder, col("description"), placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

// OrderBy is the stable ordering for list queries: newest first, ties broken by id.
func OrderBy(alias string) string {
	if alias == "" {
		return "created_at DESC, id DESC"
	}
	return fmt.Sprintf("%[1]s.created_at DESC, %[1]s.id DESC", alias)
}

// Matches evaluates the criteria against a single complaint in memory.
func (c Criteria) Matches(x *domain.Complaint) bool {
	if c.SubmitterID != nil && x.SubmitterID != *c.SubmitterID {
		return false
	}
	if c.AssigneeID != nil && (x.AssigneeID == nil || *x.AssigneeID != *c.AssigneeID) {
		return false
	}
	if c.Status != nil && x.Status != *c.Status {
		return false
	}
	if c.Category != nil && x.Category != *c.Category {
		return false
	}
	if c.Priority != nil && x.Priority != *c.Priority {
		return false
	}
	if c.Search != "" {
		needle := strings.ToLower(c.Search)
		if !strings.Contains(strings.ToLower(x.Title), needle) &&
			!strings.Contains(strings.ToLower(x.Description), needle) {
			return false
		}
	}
	return true
}

// Less orders complaints the same way OrderBy does.
func Less(a, b *domain.Complaint) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// Page is one page of results with pagination metadata.
type Page struct {
	Items      []domain.Complaint
	Page       int
	Limit      int
	TotalCount int64
	TotalPages int
	HasNext    bool
	HasPrev    bool
}

// NewPage computes pagination metadata for items fetched with c.
func NewPage(items []domain.Complaint, total int64, c Criteria) Page {
	limit := ClampLimit(c.Limit)
	page := ClampPage(c.Page)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	if items == nil {
		items = []domain.Complaint{}
	}
	return Page{
		Items:      items,
		Page:       page,
		Limit:      limit,
		TotalCount: total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}
