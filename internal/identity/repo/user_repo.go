package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/e8yes/webchat/internal/identity/entity"
)

// ErrConflict is returned when a write collides with an existing row.
var ErrConflict = errors.New("row already exists")

// pqUniqueViolation is the SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

// UserRepo provides data access for the app_user table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

type userRow struct {
	ID              int64          `db:"id"`
	SecurityKeyHash string         `db:"security_key_hash"`
	Alias           *string        `db:"alias"`
	AvatarFileID    *int64         `db:"avatar_file_id"`
	Emails          pq.StringArray `db:"emails"`
	GroupNames      pq.StringArray `db:"group_names"`
	ActiveLevel     int            `db:"active_level"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r userRow) toEntity() *entity.User {
	u := &entity.User{
		ID:              r.ID,
		SecurityKeyHash: r.SecurityKeyHash,
		Alias:           r.Alias,
		AvatarFileID:    r.AvatarFileID,
		ActiveLevel:     r.ActiveLevel,
		CreatedAt:       r.CreatedAt,
	}
	// keep SQL NULL distinct from an empty array
	if r.Emails != nil {
		u.Emails = []string(r.Emails)
	}
	if r.GroupNames != nil {
		u.GroupNames = []string(r.GroupNames)
	}
	return u
}

// Create inserts u and fills in the creation timestamp assigned by the
// database. Returns ErrConflict if the id or alias is already taken.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO app_user (id, security_key_hash, alias, avatar_file_id, emails, group_names, active_level)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT DO NOTHING
		RETURNING created_at`
	var createdAt time.Time
	err := r.db.QueryRowxContext(ctx, q,
		u.ID, u.SecurityKeyHash, u.Alias, u.AvatarFileID,
		pq.Array(u.Emails), pq.Array(u.GroupNames), u.ActiveLevel,
	).Scan(&createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrConflict
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert app_user: %w", err)
	}
	u.CreatedAt = createdAt
	return nil
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	const q = `SELECT id, security_key_hash, alias, avatar_file_id, emails, group_names, active_level, created_at
		FROM app_user WHERE id=$1`
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}
