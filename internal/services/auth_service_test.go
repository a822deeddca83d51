package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"blog/internal/mail"
	"blog/internal/models"
	"blog/internal/repositories"
	"blog/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test_jwt_secret"

// MockUserRepository is a testify mock of repositories.UserRepository, used
// where a test needs the store to fail.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	args := m.Called(ctx, tokenHash, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, id, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockUserRepository) ConsumeResetToken(ctx context.Context, id, tokenHash, passwordHash string, now time.Time) error {
	args := m.Called(ctx, id, tokenHash, passwordHash, now)
	return args.Error(0)
}

// hookedUsers runs a one-shot callback right after a lookup returns, to
// interleave a second operation between a service's read and its write.
type hookedUsers struct {
	*repositories.MockUserRepository
	afterGetByEmail      func()
	afterGetByResetToken func()
}

func (r *hookedUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := r.MockUserRepository.GetByEmail(ctx, email)
	if hook := r.afterGetByEmail; hook != nil {
		r.afterGetByEmail = nil
		hook()
	}
	return user, err
}

func (r *hookedUsers) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*models.User, error) {
	user, err := r.MockUserRepository.GetByResetToken(ctx, tokenHash, now)
	if hook := r.afterGetByResetToken; hook != nil {
		r.afterGetByResetToken = nil
		hook()
	}
	return user, err
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// mailbox records every message and optionally fails delivery.
type mailbox struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *mailbox) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *mailbox) last(t *testing.T) mail.Message {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent, "no email was sent")
	return m.sent[len(m.sent)-1]
}

// secret extracts the reset secret from the link in the last email.
func (m *mailbox) secret(t *testing.T) string {
	t.Helper()
	body := m.last(t).Body
	idx := strings.Index(body, "/reset-password/")
	require.NotEqual(t, -1, idx, "email has no reset link: %q", body)
	return strings.TrimSpace(body[idx+len("/reset-password/"):])
}

type authFixture struct {
	svc   *services.AuthService
	users *repositories.MockUserRepository
	clock *fakeClock
	mail  *mailbox
}

func newAuthFixture(t *testing.T, configure ...func(*services.AuthOptions)) *authFixture {
	t.Helper()
	f := &authFixture{
		users: repositories.NewMockUserRepository(),
		clock: &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		mail:  &mailbox{},
	}
	opts := services.AuthOptions{
		JWTSecret:   testSecret,
		FrontendURL: "http://localhost:5173",
		Now:         f.clock.Now,
	}
	for _, c := range configure {
		c(&opts)
	}
	f.svc = services.NewAuthService(f.users, f.mail, services.NewPasswordHasher(bcrypt.MinCost), opts, zap.NewNop())
	return f
}

func (f *authFixture) register(t *testing.T, username, email, password string) *services.AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), services.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return res
}

func assertKind(t *testing.T, err error, kind services.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, services.KindOf(err), "unexpected kind for %v", err)
}

func TestAuthService_Register(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	res, err := f.svc.Register(ctx, services.RegisterRequest{
		Username: "  ana ",
		Email:    " Ana@X.com ",
		Password: "secret123",
		Bio:      "writer",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.NotEmpty(t, res.User.ID)
	assert.Equal(t, "ana", res.User.Username)
	assert.Equal(t, "ana@x.com", res.User.Email)
	assert.Empty(t, res.User.Bio, "register returns identity fields only")

	stored, err := f.users.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")))
	assert.Equal(t, "writer", stored.Bio)

	claims, err := f.svc.VerifyToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, "ana@x.com", claims.Email)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana", "ana@x.com", "secret123")

	_, err := f.svc.Register(context.Background(), services.RegisterRequest{
		Username: "ana2",
		Email:    "ANA@x.com",
		Password: "other-secret",
	})
	assertKind(t, err, services.KindConflict)
	assert.ErrorIs(t, err, services.ErrUserExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name    string
		req     services.RegisterRequest
		message string
	}{
		{
			name:    "missing password",
			req:     services.RegisterRequest{Username: "ana", Email: "ana@x.com"},
			message: "All fields required",
		},
		{
			name:    "blank username",
			req:     services.RegisterRequest{Username: "   ", Email: "ana@x.com", Password: "secret123"},
			message: "All fields required",
		},
		{
			name:    "short password",
			req:     services.RegisterRequest{Username: "ana", Email: "ana@x.com", Password: "short"},
			message: "Password must be at least 8 characters",
		},
		{
			name:    "short username",
			req:     services.RegisterRequest{Username: "an", Email: "ana@x.com", Password: "secret123"},
			message: "Username must be at least 3 characters",
		},
		{
			name:    "malformed email",
			req:     services.RegisterRequest{Username: "ana", Email: "not-an-email", Password: "secret123"},
			message: "Email is invalid",
		},
		{
			name:    "password longer than bcrypt accepts",
			req:     services.RegisterRequest{Username: "ana", Email: "ana@x.com", Password: strings.Repeat("p", 73)},
			message: services.ErrPasswordTooLong.Message,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t)
			_, err := f.svc.Register(context.Background(), tt.req)
			assertKind(t, err, services.KindValidation)

			var svcErr *services.Error
			require.ErrorAs(t, err, &svcErr)
			assert.Equal(t, tt.message, svcErr.Message)

			_, lookupErr := f.users.GetByEmail(context.Background(), "ana@x.com")
			assert.ErrorIs(t, lookupErr, repositories.ErrNotFound, "nothing is stored on validation failure")
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	f := newAuthFixture(t)
	registered := f.register(t, "ana", "ana@x.com", "secret123")
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		res, err := f.svc.Login(ctx, " ANA@x.com", "secret123")
		require.NoError(t, err)
		assert.NotEmpty(t, res.Token)
		assert.Equal(t, registered.User, res.User)
	})

	t.Run("wrong password and unknown email fail alike", func(t *testing.T) {
		_, wrongPw := f.svc.Login(ctx, "ana@x.com", "nope-nope")
		_, unknown := f.svc.Login(ctx, "bob@x.com", "secret123")

		assert.ErrorIs(t, wrongPw, services.ErrInvalidCredentials)
		assert.ErrorIs(t, unknown, services.ErrInvalidCredentials)
		assert.Equal(t, wrongPw.Error(), unknown.Error())
		assertKind(t, unknown, services.KindAuth)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.svc.Login(ctx, "", "secret123")
		assertKind(t, err, services.KindValidation)
		_, err = f.svc.Login(ctx, "ana@x.com", "")
		assertKind(t, err, services.KindValidation)
	})
}

func TestAuthService_VerifyToken(t *testing.T) {
	f := newAuthFixture(t)
	res := f.register(t, "ana", "ana@x.com", "secret123")

	t.Run("valid until expiry", func(t *testing.T) {
		f.clock.Advance(23 * time.Hour)
		_, err := f.svc.VerifyToken(res.Token)
		assert.NoError(t, err)

		f.clock.Advance(2 * time.Hour)
		_, err = f.svc.VerifyToken(res.Token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
		assertKind(t, err, services.KindAuth)
	})

	now := f.clock.Now()
	claims := services.SessionClaims{
		UserID: res.User.ID,
		Email:  res.User.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   res.User.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	t.Run("signed with another secret", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("someone-else"))
		require.NoError(t, err)
		_, err = f.svc.VerifyToken(token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("tampered payload", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = f.svc.VerifyToken(token)
		require.NoError(t, err)

		forged := claims
		forged.Email = "mallory@x.com"
		other, err := jwt.NewWithClaims(jwt.SigningMethodHS256, forged).SignedString([]byte(testSecret))
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		otherParts := strings.Split(other, ".")
		tampered := parts[0] + "." + otherParts[1] + "." + parts[2]
		_, err = f.svc.VerifyToken(tampered)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("alg none", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = f.svc.VerifyToken(token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("subject does not match id", func(t *testing.T) {
		mismatched := claims
		mismatched.Subject = "someone-else"
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mismatched).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = f.svc.VerifyToken(token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		noExp := claims
		noExp.ExpiresAt = nil
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = f.svc.VerifyToken(token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, token := range []string{"", "not.a.jwt", "abc"} {
			_, err := f.svc.VerifyToken(token)
			assert.ErrorIs(t, err, services.ErrInvalidToken, "token %q", token)
		}
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	res, err := f.svc.Register(ctx, services.RegisterRequest{
		Username: "ana",
		Email:    "ana@x.com",
		Password: "secret123",
		Bio:      "writer",
	})
	require.NoError(t, err)

	user, err := f.svc.CurrentUser(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "writer", user.Bio)

	t.Run("user no longer exists", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByID", mock.Anything, res.User.ID).Return(nil, repositories.ErrNotFound)
		svc := services.NewAuthService(repo, &mailbox{}, services.NewPasswordHasher(bcrypt.MinCost), services.AuthOptions{
			JWTSecret: testSecret,
			Now:       f.clock.Now,
		}, zap.NewNop())

		_, err := svc.CurrentUser(ctx, res.Token)
		assert.ErrorIs(t, err, services.ErrInvalidToken)
		repo.AssertExpectations(t)
	})

	t.Run("expired token", func(t *testing.T) {
		f.clock.Advance(25 * time.Hour)
		_, err := f.svc.CurrentUser(ctx, res.Token)
		assertKind(t, err, services.KindAuth)
	})
}

func TestAuthService_RequestPasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana", "ana@x.com", "secret123")
	ctx := context.Background()

	res, err := f.svc.RequestPasswordReset(ctx, "Ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Password reset link sent to email", res.Message)

	msg := f.mail.last(t)
	assert.Equal(t, "ana@x.com", msg.To)
	assert.Equal(t, "Password Reset Request", msg.Subject)
	assert.Contains(t, msg.Body, "http://localhost:5173/reset-password/")

	secret := f.mail.secret(t)
	assert.Len(t, secret, 64)
	assert.NotContains(t, res.Message, secret)

	stored, err := f.users.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, services.HashResetSecret(secret), stored.ResetToken)
	assert.NotEqual(t, secret, stored.ResetToken)
	require.NotNil(t, stored.ResetTokenExpiresAt)
	assert.True(t, stored.ResetTokenExpiresAt.Equal(f.clock.Now().Add(time.Hour)))
}

func TestAuthService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.RequestPasswordReset(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	assertKind(t, err, services.KindNotFound)
	assert.Empty(t, f.mail.sent)

	_, err = f.svc.RequestPasswordReset(context.Background(), "  ")
	assertKind(t, err, services.KindValidation)
}

func TestAuthService_RequestPasswordReset_HideUnknownEmail(t *testing.T) {
	f := newAuthFixture(t, func(o *services.AuthOptions) { o.HideUnknownEmail = true })
	f.register(t, "ana", "ana@x.com", "secret123")
	ctx := context.Background()

	known, err := f.svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	unknown, err := f.svc.RequestPasswordReset(ctx, "nobody@x.com")
	require.NoError(t, err)

	assert.Equal(t, known.Message, unknown.Message)
	assert.Len(t, f.mail.sent, 1)
}

func TestAuthService_ResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana", "ana@x.com", "secret123")
	ctx := context.Background()

	_, err := f.svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	secret := f.mail.secret(t)

	res, err := f.svc.ResetPassword(ctx, secret, "newsecret456")
	require.NoError(t, err)
	assert.Equal(t, "Password has been reset successfully", res.Message)

	stored, err := f.users.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Empty(t, stored.ResetToken)
	assert.Nil(t, stored.ResetTokenExpiresAt)

	_, err = f.svc.Login(ctx, "ana@x.com", "newsecret456")
	assert.NoError(t, err)
	_, err = f.svc.Login(ctx, "ana@x.com", "secret123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = f.svc.ResetPassword(ctx, secret, "another789")
	assert.ErrorIs(t, err, services.ErrInvalidToken, "a secret works only once")
}

func TestAuthService_ResetPassword_Expired(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana", "ana@x.com", "secret123")
	ctx := context.Background()

	_, err := f.svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	secret := f.mail.secret(t)

	f.clock.Advance(time.Hour + time.Second)
	_, err = f.svc.ResetPassword(ctx, secret, "newsecret456")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = f.svc.Login(ctx, "ana@x.com", "secret123")
	assert.NoError(t, err, "password is unchanged")
}

func TestAuthService_ResetPassword_NewRequestReplacesOld(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana", "ana@x.com", "secret123")
	ctx := context.Background()

	_, err := f.svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	first := f.mail.secret(t)

	_, err = f.svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	second := f.mail.secret(t)
	require.NotEqual(t, first, second)

	_, err = f.svc.ResetPassword(ctx, first, "newsecret456")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = f.svc.ResetPassword(ctx, second, "newsecret456")
	assert.NoError(t, err)
}

func TestAuthService_ResetPassword_Validation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResetPassword(ctx, "whatever", "short")
	assertKind(t, err, services.KindValidation)

	_, err = f.svc.ResetPassword(ctx, "", "newsecret456")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = f.svc.ResetPassword(ctx, "deadbeef", "newsecret456")
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_ResetEmailFailureKeepsSecret(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana", "ana@x.com", "secret123")
	f.mail.err = errors.New("smtp: connection refused")
	ctx := context.Background()

	_, err := f.svc.RequestPasswordReset(ctx, "ana@x.com")
	assertKind(t, err, services.KindInternal)
	assert.NotContains(t, err.(*services.Error).Message, "smtp")

	secret := f.mail.secret(t)
	_, err = f.svc.ResetPassword(ctx, secret, "newsecret456")
	assert.NoError(t, err)
}

func TestAuthService_StoreFailures(t *testing.T) {
	dbErr := errors.New("connection reset")
	ctx := context.Background()

	newSvc := func(repo *MockUserRepository) *services.AuthService {
		return services.NewAuthService(repo, &mailbox{}, services.NewPasswordHasher(bcrypt.MinCost), services.AuthOptions{
			JWTSecret: testSecret,
		}, zap.NewNop())
	}

	t.Run("register lookup", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "ana@x.com").Return(nil, dbErr)
		_, err := newSvc(repo).Register(ctx, services.RegisterRequest{Username: "ana", Email: "ana@x.com", Password: "secret123"})
		assertKind(t, err, services.KindInternal)
		assert.ErrorIs(t, err, dbErr)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("register insert race", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "ana@x.com").Return(nil, repositories.ErrNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(repositories.ErrDuplicate)
		_, err := newSvc(repo).Register(ctx, services.RegisterRequest{Username: "ana", Email: "ana@x.com", Password: "secret123"})
		assert.ErrorIs(t, err, services.ErrUserExists)
		repo.AssertExpectations(t)
	})

	t.Run("login lookup", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "ana@x.com").Return(nil, dbErr)
		_, err := newSvc(repo).Login(ctx, "ana@x.com", "secret123")
		assertKind(t, err, services.KindInternal)
	})

	t.Run("reset request update", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByEmail", mock.Anything, "ana@x.com").Return(&models.User{ID: "u1", Email: "ana@x.com"}, nil)
		repo.On("SetResetToken", mock.Anything, "u1", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(dbErr)
		_, err := newSvc(repo).RequestPasswordReset(ctx, "ana@x.com")
		assertKind(t, err, services.KindInternal)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("reset consume", func(t *testing.T) {
		repo := new(MockUserRepository)
		tokenHash := services.HashResetSecret("abc")
		repo.On("GetByResetToken", mock.Anything, tokenHash, mock.Anything).Return(&models.User{ID: "u1"}, nil)
		repo.On("ConsumeResetToken", mock.Anything, "u1", tokenHash, mock.AnythingOfType("string"), mock.Anything).Return(dbErr)
		_, err := newSvc(repo).ResetPassword(ctx, "abc", "newsecret456")
		assertKind(t, err, services.KindInternal)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("reset lookup", func(t *testing.T) {
		repo := new(MockUserRepository)
		repo.On("GetByResetToken", mock.Anything, services.HashResetSecret("abc"), mock.Anything).Return(nil, dbErr)
		_, err := newSvc(repo).ResetPassword(ctx, "abc", "newsecret456")
		assertKind(t, err, services.KindInternal)
	})
}

func TestAuthService_ResetDuringNewRequestKeepsNewPassword(t *testing.T) {
	users := &hookedUsers{MockUserRepository: repositories.NewMockUserRepository()}
	box := &mailbox{}
	svc := services.NewAuthService(users, box, services.NewPasswordHasher(bcrypt.MinCost), services.AuthOptions{
		JWTSecret:   testSecret,
		FrontendURL: "http://localhost:5173",
	}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, services.RegisterRequest{Username: "ana", Email: "ana@x.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	first := box.secret(t)

	// The first link is used after the second request has read the account
	// but before it has stored its own secret.
	users.afterGetByEmail = func() {
		_, err := svc.ResetPassword(ctx, first, "newsecret456")
		require.NoError(t, err)
	}
	_, err = svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	require.Nil(t, users.afterGetByEmail, "hook did not run")

	_, err = svc.Login(ctx, "ana@x.com", "newsecret456")
	assert.NoError(t, err, "the completed reset is not reverted")
	_, err = svc.Login(ctx, "ana@x.com", "secret123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = svc.ResetPassword(ctx, box.secret(t), "third789xyz")
	assert.NoError(t, err, "the second request's secret is pending")
}

func TestAuthService_ResetPassword_SecretReplacedMidway(t *testing.T) {
	users := &hookedUsers{MockUserRepository: repositories.NewMockUserRepository()}
	box := &mailbox{}
	svc := services.NewAuthService(users, box, services.NewPasswordHasher(bcrypt.MinCost), services.AuthOptions{
		JWTSecret:   testSecret,
		FrontendURL: "http://localhost:5173",
	}, zap.NewNop())
	ctx := context.Background()

	_, err := svc.Register(ctx, services.RegisterRequest{Username: "ana", Email: "ana@x.com", Password: "secret123"})
	require.NoError(t, err)
	_, err = svc.RequestPasswordReset(ctx, "ana@x.com")
	require.NoError(t, err)
	first := box.secret(t)

	users.afterGetByResetToken = func() {
		_, err := svc.RequestPasswordReset(ctx, "ana@x.com")
		require.NoError(t, err)
	}
	_, err = svc.ResetPassword(ctx, first, "newsecret456")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = svc.Login(ctx, "ana@x.com", "secret123")
	assert.NoError(t, err, "password is unchanged")

	_, err = svc.ResetPassword(ctx, box.secret(t), "newsecret456")
	assert.NoError(t, err)
}

func TestAuthService_Login_RejectsBytesPastBcryptLimit(t *testing.T) {
	f := newAuthFixture(t)
	password := strings.Repeat("p", 72)
	f.register(t, "ana", "ana@x.com", password)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "ana@x.com", password)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ana@x.com", password+"WRONG-SUFFIX")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@x.com", password+"WRONG-SUFFIX")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
}
