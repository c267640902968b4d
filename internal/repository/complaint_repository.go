package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/query"
)

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	// Create inserts the complaint and, when entry is non-nil, its first history row.
	Create(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintHistory) error
	GetByID(ctx context.Context, id int64) (*domain.Complaint, error)
	List(ctx context.Context, criteria query.Criteria) ([]domain.Complaint, error)
	Count(ctx context.Context, criteria query.Criteria) (int64, error)
	// Update writes every patched field and the history row in one transaction.
	Update(ctx context.Context, id int64, patch domain.ComplaintPatch, entry *domain.ComplaintHistory) error
	Stats(ctx context.Context) (*domain.ComplaintStats, error)
}

type complaintRepository struct {
	pool *pgxpool.Pool
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(pool *pgxpool.Pool) ComplaintRepository {
	return &complaintRepository{pool: pool}
}

const complaintColumns = `
        c.id, c.user_id, c.staff_id, c.title, c.description, c.category, c.priority, c.location,
        c.status, c.attachment_url, c.resolution_notes, c.feedback, c.feedback_rating, c.deadline_at,
        c.created_at, c.updated_at, u.name, u.email, s.name`

const complaintFrom = `
        FROM complaints c
        JOIN users u ON c.user_id = u.id
        LEFT JOIN users s ON c.staff_id = s.id`

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint, entry *domain.ComplaintHistory) error {
	const stmt = `
        INSERT INTO complaints (user_id, staff_id, title, description, category, priority, location,
            status, attachment_url, deadline_at, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
        RETURNING id, created_at, updated_at`

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, stmt,
			complaint.SubmitterID,
			complaint.AssigneeID,
			complaint.Title,
			complaint.Description,
			complaint.Category,
			complaint.Priority,
			complaint.Location,
			complaint.Status,
			complaint.AttachmentURL,
			complaint.Deadline,
			complaint.CreatedAt,
		).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt); err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		entry.ComplaintID = complaint.ID
		return insertHistory(ctx, tx, entry)
	})
}

func (r *complaintRepository) GetByID(ctx context.Context, id int64) (*domain.Complaint, error) {
	sql := `SELECT` + complaintColumns + complaintFrom + ` WHERE c.id=$1`
	row := r.pool.QueryRow(ctx, sql, id)
	complaint, err := scanComplaint(row)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (r *complaintRepository) List(ctx context.Context, criteria query.Criteria) ([]domain.Complaint, error) {
	where, args := criteria.Where("c")
	args = append(args, query.ClampLimit(criteria.Limit), criteria.Offset())
	sql := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		complaintColumns, complaintFrom, where, query.OrderBy("c"), len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func (r *complaintRepository) Count(ctx context.Context, criteria query.Criteria) (int64, error) {
	where, args := criteria.Where("c")
	var total int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM complaints c WHERE `+where, args...).Scan(&total)
	return total, err
}

func (r *complaintRepository) Update(ctx context.Context, id int64, patch domain.ComplaintPatch, entry *domain.ComplaintHistory) error {
	if patch.Empty() {
		return nil
	}

	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.AssigneeID != nil {
		set("staff_id", *patch.AssigneeID)
	}
	if patch.ResolutionNotes != nil {
		set("resolution_notes", *patch.ResolutionNotes)
	}
	if patch.Feedback != nil {
		set("feedback", *patch.Feedback)
	}
	if patch.FeedbackRating != nil {
		set("feedback_rating", *patch.FeedbackRating)
	}
	args = append(args, id)
	sql := fmt.Sprintf(`UPDATE complaints SET %s, updated_at=NOW() WHERE id=$%d`, strings.Join(sets, ", "), len(args))

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}
		if entry == nil {
			return nil
		}
		entry.ComplaintID = id
		return insertHistory(ctx, tx, entry)
	})
}

func (r *complaintRepository) Stats(ctx context.Context) (*domain.ComplaintStats, error) {
	stats := &domain.ComplaintStats{ByCategory: []domain.CategoryCount{}}

	const countsQuery = `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status='Open'),
               COUNT(*) FILTER (WHERE status='Assigned'),
               COUNT(*) FILTER (WHERE status='In-progress'),
               COUNT(*) FILTER (WHERE status='Resolved')
        FROM complaints`
	if err := r.pool.QueryRow(ctx, countsQuery).Scan(
		&stats.Total,
		&stats.Open,
		&stats.Assigned,
		&stats.InProgress,
		&stats.Resolved,
	); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT category, COUNT(*) FROM complaints GROUP BY category ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cc domain.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		stats.ByCategory = append(stats.ByCategory, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const avgQuery = `
        SELECT
            COALESCE((SELECT AVG(EXTRACT(EPOCH FROM (updated_at - created_at)) / 3600)
                      FROM complaints WHERE status='Resolved'), 0)::float8,
            COALESCE((SELECT AVG(feedback_rating)
                      FROM complaints WHERE feedback_rating IS NOT NULL), 0)::float8`
	if err := r.pool.QueryRow(ctx, avgQuery).Scan(&stats.AvgResolutionHours, &stats.AvgRating); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var complaint domain.Complaint
	if err := row.Scan(
		&complaint.ID,
		&complaint.SubmitterID,
		&complaint.AssigneeID,
		&complaint.Title,
		&complaint.Description,
		&complaint.Category,
		&complaint.Priority,
		&complaint.Location,
		&complaint.Status,
		&complaint.AttachmentURL,
		&complaint.ResolutionNotes,
		&complaint.Feedback,
		&complaint.FeedbackRating,
		&complaint.Deadline,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.SubmitterName,
		&complaint.SubmitterEmail,
		&complaint.AssigneeName,
	); err != nil {
		return nil, err
	}
	return &complaint, nil
}
