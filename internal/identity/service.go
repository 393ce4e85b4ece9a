package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/bcrypt"

	"github.com/jmoiron/sqlx"

	"github.com/e8yes/webchat/internal/identity/entity"
	identityrepo "github.com/e8yes/webchat/internal/identity/repo"
)

// maxSecurityKeyLen is the longest input bcrypt will hash.
const maxSecurityKeyLen = 72

// KeyHasher hashes security keys (abstract so the algorithm can be swapped later).
type KeyHasher interface {
	Hash(key []byte) (string, error)
	Verify(hash string, key []byte) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) Hash(key []byte) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword(key, cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash string, key []byte) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), key) == nil
}

// IDSource hands out new user ids.
type IDSource interface {
	NextID() int64
}

var (
	ErrResourceConflict   = errors.New("resource conflict")
	ErrInvalidSecurityKey = errors.New("invalid security key")
	ErrUserNotFound       = errors.New("user not found")
	ErrBadCredentials     = errors.New("invalid credentials")
)

// UserService orchestrates user creation and authentication.
type UserService struct {
	users  *identityrepo.UserRepo
	groups *identityrepo.GroupRepo
	ids    IDSource
	hasher KeyHasher
}

func NewUserService(db *sqlx.DB, ids IDSource, hasher KeyHasher) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: bcrypt.DefaultCost}
	}
	return &UserService{
		users:  identityrepo.NewUserRepo(db),
		groups: identityrepo.NewGroupRepo(db),
		ids:    ids,
		hasher: hasher,
	}
}

func validateSecurityKey(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSecurityKey)
	}
	if len(key) > maxSecurityKeyLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidSecurityKey, maxSecurityKeyLen)
	}
	return nil
}

// CreateBaselineUser persists a new user holding only a hashed security key.
// Profile fields stay unset, the account is inactive and it belongs to the
// baseline group alone.
func (s *UserService) CreateBaselineUser(ctx context.Context, securityKey []byte) (*entity.User, error) {
	if err := validateSecurityKey(securityKey); err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(securityKey)
	if err != nil {
		return nil, fmt.Errorf("hash security key: %w", err)
	}
	u := &entity.User{
		ID:              s.ids.NextID(),
		SecurityKeyHash: hash,
		ActiveLevel:     0,
		GroupNames:      []string{entity.BaselineUserGroup.Name()},
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, identityrepo.ErrConflict) {
			return nil, fmt.Errorf("%w: user %d already exists", ErrResourceConflict, u.ID)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetUser loads a user by id.
func (s *UserService) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

// Authenticate checks securityKey against the stored hash of user id.
func (s *UserService) Authenticate(ctx context.Context, id int64, securityKey []byte) (*entity.User, error) {
	if len(securityKey) == 0 {
		return nil, ErrBadCredentials
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBadCredentials // avoid user enumeration
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	if !s.hasher.Verify(u.SecurityKeyHash, securityKey) {
		return nil, ErrBadCredentials
	}
	return u, nil
}

// Permissions returns the union of the permissions of every group u belongs to.
func (s *UserService) Permissions(ctx context.Context, u *entity.User) ([]string, error) {
	if len(u.GroupNames) == 0 {
		return nil, nil
	}
	groups, err := s.groups.ListByNames(ctx, u.GroupNames)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, g := range groups {
		for _, p := range g.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// EnsureSystemGroups writes every system group with its current permissions.
func (s *UserService) EnsureSystemGroups(ctx context.Context) error {
	for _, g := range entity.SystemUserGroups() {
		if err := s.groups.Upsert(ctx, g.UserGroup()); err != nil {
			return err
		}
	}
	return nil
}
