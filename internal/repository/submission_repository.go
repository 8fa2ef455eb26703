package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/sheegull/deephand-forms/internal/db"
	"github.com/sheegull/deephand-forms/internal/models"
)

// SubmissionRepository archives accepted submissions in Postgres.
type SubmissionRepository struct {
	drv db.Execer
}

// NewSubmissionRepository creates a new submission repository
func NewSubmissionRepository(drv db.Execer) *SubmissionRepository {
	return &SubmissionRepository{drv: drv}
}

// Insert stores one submission. payload must be a JSON document.
func (r *SubmissionRepository) Insert(ctx context.Context, form models.FormType, payload []byte, clientIP string, at time.Time) error {
	query, args := entsql.Dialect(dialect.Postgres).
		Insert(db.SubmissionsTable).
		Columns("form_type", "payload", "ip_address", "created_at").
		Values(form.String(), string(payload), clientIP, at.UTC()).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("failed to archive %s submission: %w", form, err)
	}
	return nil
}
