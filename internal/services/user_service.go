package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/Userride/gmail-var-backend/internal/models"
	"github.com/Userride/gmail-var-backend/internal/repositories"
	"github.com/Userride/gmail-var-backend/internal/utils"
)

var (
	ErrMissingFields      = errors.New("all fields are required")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidToken       = errors.New("invalid verification token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
)

const verifyTokenBytes = 32

type UserService interface {
	Register(name, email, password string) (*models.User, error)
	Verify(token string) (*models.User, error)
	Login(email, password string) (*models.User, error)
}

type userService struct {
	repo       repositories.UserRepository
	emails     EmailService
	auth       AuthService
	serviceURL string // base URL of this service, for the verification link
}

func NewUserService(repo repositories.UserRepository, emails EmailService, auth AuthService, serviceURL string) UserService {
	return &userService{
		repo:       repo,
		emails:     emails,
		auth:       auth,
		serviceURL: strings.TrimRight(serviceURL, "/"),
	}
}

func (s *userService) Register(name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || strings.TrimSpace(password) == "" {
		// binding catches absent fields; this catches whitespace-only ones
		return nil, ErrMissingFields
	}

	// Existence check first; the unique constraint is the real enforcement point,
	// this lookup only gives the common case a friendlier path.
	existing, err := s.repo.GetByEmail(email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("lookup by email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := utils.NewVerifyToken(verifyTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("generate verify token: %w", err)
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   false,
		VerifyToken:  &token,
	}
	if err := s.repo.Create(user); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			// lost the lookup/insert race, same user-facing answer
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	verifyLink := fmt.Sprintf("%s/verify/%s", s.serviceURL, token)
	if err := s.emails.SendVerificationEmail(user.Email, user.Name, verifyLink); err != nil {
		// The row stays and the request fails. Known gap: the caller cannot tell
		// "user created but mail failed" apart from total failure.
		log.Printf("[user][register] verification email failed for userID=%d: %v", user.ID, err)
		return nil, fmt.Errorf("send verification email: %w", err)
	}

	log.Printf("[user][register] created userID=%d email=%q (unverified)", user.ID, user.Email)
	return user, nil
}

func (s *userService) Verify(token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetByVerifyToken(token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("lookup by token: %w", err)
	}

	if err := s.repo.MarkVerified(user.ID); err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	user.IsVerified = true
	user.VerifyToken = nil

	log.Printf("[user][verify] userID=%d verified", user.ID)
	return user, nil
}

func (s *userService) Login(email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)

	user, err := s.repo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// same answer as a wrong password, so the endpoint does not reveal
			// which emails are registered
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup by email: %w", err)
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	if err := s.auth.CheckPassword(user.PasswordHash, password); err != nil {
		log.Printf("[user][login] bcrypt mismatch for userID=%d", user.ID)
		return nil, ErrInvalidCredentials
	}

	log.Printf("[user][login] success userID=%d", user.ID)
	return user, nil
}
