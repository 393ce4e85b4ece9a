package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/e8yes/webchat/internal/identity/entity"
)

// GroupRepo provides data access for the user_group table.
type GroupRepo struct {
	db *sqlx.DB
}

func NewGroupRepo(db *sqlx.DB) *GroupRepo { return &GroupRepo{db: db} }

// Upsert creates the group or replaces its permissions.
func (r *GroupRepo) Upsert(ctx context.Context, g entity.UserGroup) error {
	const q = `INSERT INTO user_group (group_name, permissions) VALUES ($1, $2)
		ON CONFLICT (group_name) DO UPDATE SET permissions = EXCLUDED.permissions`
	if _, err := r.db.ExecContext(ctx, q, g.Name, pq.Array(g.Permissions)); err != nil {
		return fmt.Errorf("upsert user_group %s: %w", g.Name, err)
	}
	return nil
}

// ListByNames returns the named groups ordered by name. Unknown names are skipped.
func (r *GroupRepo) ListByNames(ctx context.Context, names []string) ([]entity.UserGroup, error) {
	const q = `SELECT group_name, permissions FROM user_group WHERE group_name = ANY($1) ORDER BY group_name`
	var rows []struct {
		Name        string         `db:"group_name"`
		Permissions pq.StringArray `db:"permissions"`
	}
	if err := r.db.SelectContext(ctx, &rows, q, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("list user_group: %w", err)
	}
	out := make([]entity.UserGroup, 0, len(rows))
	for _, row := range rows {
		out = append(out, entity.UserGroup{Name: row.Name, Permissions: []string(row.Permissions)})
	}
	return out, nil
}
