package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/andresuchdata/erpsync/internal/domain"
	"github.com/andresuchdata/erpsync/internal/repository/sqlstore"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

type userRepository struct {
	db *sqlstore.DB
}

func NewUserRepository(db *sqlstore.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user and sets its ID. A duplicate email yields
// domain.ErrConflict.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	insert := `INSERT INTO users (name, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	args := []any{user.Name, user.Email, user.PasswordHash, user.CreatedAt}

	var err error
	if r.db.Dialect() == sqlstore.DialectMySQL {
		var res sql.Result
		if res, err = r.db.ExecContext(ctx, insert, args...); err == nil {
			user.ID, err = res.LastInsertId()
		}
	} else {
		err = r.db.QueryRowxContext(ctx, r.db.Rebind(insert+" RETURNING id"), args...).Scan(&user.ID)
	}

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, "id", id)
}

func (r *userRepository) findOne(ctx context.Context, column string, value any) (*domain.User, error) {
	var u domain.User
	query := r.db.Rebind(`SELECT id, name, email, password_hash, created_at FROM users WHERE ` + column + ` = ?`)
	if err := r.db.GetContext(ctx, &u, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation recognizes duplicate key errors of every supported driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return false
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
