package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"blog/internal/mail"
	"blog/internal/models"
	"blog/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	resetSentMessage    = "Password reset link sent to email"
	resetGenericMessage = "If the email exists, a reset link has been sent."
	resetDoneMessage    = "Password has been reset successfully"
	minPasswordLength   = 8
)

// AuthOptions configures an AuthService.
type AuthOptions struct {
	JWTSecret   string
	TokenTTL    time.Duration // session token lifetime, 24h if zero
	ResetTTL    time.Duration // reset secret lifetime, 1h if zero
	FrontendURL string        // base of the emailed reset link
	// HideUnknownEmail makes RequestPasswordReset answer identically whether
	// or not the account exists.
	HideUnknownEmail bool
	// Now is the clock used for token and reset expiry; time.Now if nil.
	Now func() time.Time
}

// RegisterRequest is the input of Register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8"`
	Bio      string `json:"bio" validate:"max=1000"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	Token string            `json:"token"`
	User  models.PublicUser `json:"user"`
}

// MessageResult is returned by the password reset operations.
type MessageResult struct {
	Message string `json:"message"`
}

// SessionClaims are the claims carried by a session token.
type SessionClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// AuthService handles account creation, authentication, session tokens and
// password resets.
type AuthService struct {
	users    repositories.UserRepository
	mailer   mail.Sender
	hasher   *PasswordHasher
	validate *validator.Validate
	log      *zap.Logger
	opts     AuthOptions
	parser   *jwt.Parser
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repositories.UserRepository, mailer mail.Sender, hasher *PasswordHasher, opts AuthOptions, log *zap.Logger) *AuthService {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &AuthService{
		users:    users,
		mailer:   mailer,
		hasher:   hasher,
		validate: validator.New(),
		log:      log,
		opts:     opts,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(opts.Now),
		),
	}
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account and signs the new user in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = NormalizeEmail(req.Email)

	if err := s.validate.Struct(req); err != nil {
		return nil, registerValidationError(err)
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrUserExists
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, internalError("lookup email", err)
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, hashFailure(err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Bio:          req.Bio,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, internalError("create user", err)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, internalError("issue token", err)
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords fail with the same error after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Email and password required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			s.hasher.Waste(ctx, password)
			return nil, ErrInvalidCredentials
		}
		return nil, internalError("lookup email", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, internalError("compare password", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, internalError("issue token", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

// VerifyToken checks the signature, algorithm and expiry of a session token.
func (s *AuthService) VerifyToken(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &SessionClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.opts.JWTSecret), nil
	})
	if err != nil {
		return nil, &Error{Kind: KindAuth, Message: ErrInvalidToken.Message, Err: err}
	}
	if claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// CurrentUser resolves a session token to the user's profile.
func (s *AuthService) CurrentUser(ctx context.Context, tokenString string) (*models.PublicUser, error) {
	claims, err := s.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internalError("lookup user", err)
	}

	profile := user.Profile()
	return &profile, nil
}

// RequestPasswordReset stores the hash of a fresh reset secret on the account
// and emails a link carrying the secret itself. A previous pending reset is
// overwritten; no other account field is written. If the email cannot be sent
// the stored secret stays valid.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*MessageResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, validationError("Email is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.unknownResetEmail()
		}
		return nil, internalError("lookup email", err)
	}

	secret, hash, err := newResetSecret()
	if err != nil {
		return nil, internalError("generate reset secret", err)
	}
	expiresAt := s.opts.Now().Add(s.opts.ResetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return s.unknownResetEmail()
		}
		return nil, internalError("store reset token", err)
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Password Reset Request",
		Body:    fmt.Sprintf("You requested a password reset. Reset your password using this link: %s", s.resetURL(secret)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return nil, internalError("send reset email", err)
	}

	s.log.Info("password reset requested", zap.String("user_id", user.ID), zap.Time("expires_at", expiresAt))
	if s.opts.HideUnknownEmail {
		return &MessageResult{Message: resetGenericMessage}, nil
	}
	return &MessageResult{Message: resetSentMessage}, nil
}

// ResetPassword consumes a reset secret and replaces the account password.
// Unknown, already used and expired secrets are indistinguishable.
func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword string) (*MessageResult, error) {
	if len(newPassword) < minPasswordLength {
		return nil, validationError("Password must be at least 8 characters")
	}
	if secret == "" {
		return nil, ErrInvalidToken
	}

	tokenHash := HashResetSecret(secret)
	now := s.opts.Now()
	user, err := s.users.GetByResetToken(ctx, tokenHash, now)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internalError("lookup reset token", err)
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return nil, hashFailure(err)
	}
	// The secret may have been replaced or used while hashing.
	if err := s.users.ConsumeResetToken(ctx, user.ID, tokenHash, hash, now); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, internalError("update password", err)
	}

	s.log.Info("password reset completed", zap.String("user_id", user.ID))
	return &MessageResult{Message: resetDoneMessage}, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.opts.Now()
	claims := SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.opts.JWTSecret))
}

func (s *AuthService) unknownResetEmail() (*MessageResult, error) {
	if s.opts.HideUnknownEmail {
		return &MessageResult{Message: resetGenericMessage}, nil
	}
	return nil, ErrUserNotFound
}

func (s *AuthService) resetURL(secret string) string {
	return strings.TrimRight(s.opts.FrontendURL, "/") + "/reset-password/" + secret
}

func registerValidationError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationError("Invalid request")
	}
	for _, e := range verrs {
		if e.Tag() == "required" {
			return validationError("All fields required")
		}
	}
	e := verrs[0]
	switch {
	case e.Field() == "Password" && e.Tag() == "min":
		return validationError("Password must be at least 8 characters")
	case e.Field() == "Username" && e.Tag() == "min":
		return validationError("Username must be at least 3 characters")
	case e.Field() == "Email" && e.Tag() == "email":
		return validationError("Email is invalid")
	default:
		return validationError(fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
}
