package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Userride/gmail-var-backend/internal/models"
)

var (
	// ErrNotFound — no row matched the lookup.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail — unique constraint on users.email fired at insert time.
	// Callers must treat this as an expected condition (lookup/insert race),
	// never as a server fault.
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByVerifyToken(token string) (*models.User, error)
	MarkVerified(userID int) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

// isUniqueViolation — lib/pq code 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (name, email, password_hash, is_verified, verify_token)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.DB.QueryRow(q,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.VerifyToken,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, is_verified, verify_token, created_at
		FROM users
		WHERE email = $1
	`
	return r.scanOne(r.DB.QueryRow(q, email))
}

func (r *userRepository) GetByVerifyToken(token string) (*models.User, error) {
	const q = `
		SELECT id, name, email, password_hash, is_verified, verify_token, created_at
		FROM users
		WHERE verify_token = $1
	`
	return r.scanOne(r.DB.QueryRow(q, token))
}

func (r *userRepository) scanOne(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var vt sql.NullString
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.IsVerified, &vt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("user scan: %w", err)
	}
	if vt.Valid {
		s := vt.String
		u.VerifyToken = &s
	}
	return u, nil
}

// MarkVerified — single forward transition: flag set, token cleared in one statement
// so the token can never be replayed.
func (r *userRepository) MarkVerified(userID int) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET is_verified=TRUE, verify_token=NULL
		WHERE id=$1
	`, userID)
	if err != nil {
		return fmt.Errorf("user mark verified: %w", err)
	}
	return nil
}
