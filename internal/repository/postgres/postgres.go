package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Anveeka07/TaskManager/internal/domain"
	"github.com/Anveeka07/TaskManager/internal/repository"
)

const pgUniqueViolation = "23505"

// DB is the subset of pgxpool.Pool used by the repository.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	db DB
	sb sq.StatementBuilderType
}

// New constructs a Repository.
func New(db DB) *Repository {
	return &Repository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// ensure Repository satisfies interfaces.
var (
	_ repository.UserRepository = (*Repository)(nil)
	_ repository.TaskRepository = (*Repository)(nil)
)

var userColumns = []string{"id", "name", "email", "password_hash", "created_at"}

// CreateUser inserts a user. The unique index on email turns concurrent duplicate
// registrations into repository.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	query, args, err := r.sb.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Name, user.Email, user.PasswordHash, user.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches a user by its normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, sq.Eq{"email": strings.ToLower(strings.TrimSpace(email))})
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, sq.Eq{"id": id})
}

func (r *Repository) getUser(ctx context.Context, where sq.Eq) (*domain.User, error) {
	query, args, err := r.sb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user: %w", err)
	}
	var u domain.User
	if err := pgxscan.Get(ctx, r.db, &u, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
