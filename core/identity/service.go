// Package identity owns accounts: registration, authentication and bearer
// token verification.
package identity

import (
	"errors"

	"Musga/core/auth"
	"Musga/errs"
	"Musga/logger"
	"Musga/model"
	"Musga/repository"
)

// Service implements identity operations.
type Service struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
}

// NewService creates an identity service.
func NewService(users repository.UserRepository, tokens *auth.TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      model.Role `json:"role"`
	Bio       string     `json:"bio"`
}

// AuthResult pairs a sanitized account with a fresh token.
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// Register creates an account, stores a salted hash of the password and
// issues a token. Email and username are each globally unique.
func (s *Service) Register(in RegisterInput) (*AuthResult, error) {
	if in.Email == "" || in.Username == "" || in.Password == "" ||
		in.FirstName == "" || in.LastName == "" || in.Role == "" {
		return nil, errs.E(errs.InvalidArgument, "all required fields must be provided")
	}
	if !in.Role.Valid() {
		return nil, errs.Ef(errs.InvalidArgument, "unknown role %q", in.Role)
	}
	if len(in.Password) < 8 {
		return nil, errs.E(errs.InvalidArgument, "password must be at least 8 characters long")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to process password", err)
	}

	user := &model.User{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		Bio:          in.Bio,
		IsActive:     true,
	}

	id, err := s.users.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, errs.E(errs.Conflict, "email or username already registered")
		}
		return nil, errs.Wrap(errs.Internal, "failed to create user", err)
	}
	user.ID = id

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to generate token", err)
	}

	logger.Info("user registered",
		logger.Int64("userId", id),
		logger.String("username", user.Username),
		logger.String("role", string(user.Role)))

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// Login authenticates by email and password and issues a fresh token.
func (s *Service) Login(email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, errs.E(errs.InvalidArgument, "email and password are required")
	}

	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to look up user", err)
	}
	// A missing account and a wrong password produce the same error.
	if user == nil || !user.IsActive || !auth.VerifyPassword(password, user.PasswordHash) {
		return nil, errs.E(errs.Unauthorized, "invalid credentials")
	}

	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to generate token", err)
	}

	return &AuthResult{User: user.Sanitized(), Token: token}, nil
}

// Verify resolves a bearer token to a live account.
func (s *Service) Verify(token string) (*model.User, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, errs.Wrap(errs.Unauthorized, "invalid token", err)
	}

	user, err := s.users.GetUserByID(claims.UserID)
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "failed to look up user", err)
	}
	if user == nil || !user.IsActive {
		return nil, errs.E(errs.Unauthorized, "account no longer active")
	}
	return user, nil
}
