package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"coastalfit/coach-app/internal/domain"
	"coastalfit/coach-app/internal/notify"
	"coastalfit/coach-app/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLen = 8
	// bcrypt rejects input longer than 72 bytes.
	MaxPasswordLen = 72
)

var (
	ErrAuthenticationFailed = domain.Unauthorizedf("invalid email or password")
	ErrInvalidToken         = domain.Unauthorizedf("invalid or expired token")
	ErrInvalidResetCode     = domain.Validationf("invalid or expired code")
)

// ResetCodeStore keeps one live password reset code per email.
type ResetCodeStore interface {
	Issue(ctx context.Context, email string) (string, error)
	Consume(ctx context.Context, email, code string) (bool, error)
}

// AuthService is the credential verifier: it turns credentials or a bearer token into a Principal.
type AuthService interface {
	// Register creates a client account. Other roles are granted by an administrator.
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	VerifyToken(token string) (domain.Principal, error)
	// RequestPasswordReset emails a six digit code. Unknown emails succeed silently.
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	ChangePassword(ctx context.Context, actor domain.Principal, currentPassword, newPassword string) error
}

type authService struct {
	userRepo      repository.UserRepository
	resetCodes    ResetCodeStore
	email         notify.EmailSender
	jwtSecret     []byte
	jwtExpiration time.Duration
	now           func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	resetCodes ResetCodeStore,
	email notify.EmailSender,
	jwtSecret string,
	jwtExpiration time.Duration,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	if email == nil {
		email = notify.LogEmailSender{}
	}
	return &authService{
		userRepo:      userRepo,
		resetCodes:    resetCodes,
		email:         email,
		jwtSecret:     []byte(jwtSecret),
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}
}

func (s *authService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Validationf("name is required")
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Roles:        domain.Roles{domain.RoleClient},
	}
	if _, err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.Conflictf("user with this email already exists")
		}
		return nil, translate(err, "user")
	}
	return user, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", nil, domain.Validationf("email and password are required")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, translate(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}
	token, err := s.generateJWT(user)
	if err != nil {
		return "", nil, fmt.Errorf("generate token: %w", err)
	}
	return token, user, nil
}

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	UserID string   `json:"uid"`
	Roles  []string `json:"roles"`
	jwt.RegisteredClaims
}

const jwtIssuer = "coach-app"

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := s.now()
	claims := &jwtClaims{
		UserID: user.ID.Hex(),
		Roles:  user.Roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    jwtIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *authService) VerifyToken(tokenString string) (domain.Principal, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return domain.Principal{}, ErrInvalidToken
	}
	roles, err := domain.ParseRoles(claims.Roles)
	if err != nil || len(roles) == 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{ID: id, Roles: roles}, nil
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		log.WithField("email", email).Debug("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return translate(err, "user")
	}
	code, err := s.resetCodes.Issue(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("issue reset code: %w", err)
	}
	if err := s.email.SendPasswordResetCode(ctx, user.Email, user.Name, code); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	// validate before burning the code
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.resetCodes.Consume(ctx, email, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("check reset code: %w", err)
	}
	if !ok {
		return ErrInvalidResetCode
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidResetCode
		}
		return translate(err, "user")
	}
	user.PasswordHash = hash
	return translate(s.userRepo.Update(ctx, user), "user")
}

func (s *authService) ChangePassword(ctx context.Context, p domain.Principal, currentPassword, newPassword string) error {
	if p.IsZero() {
		return domain.Unauthorizedf("authentication required")
	}
	user, err := s.userRepo.GetByID(ctx, p.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Unauthorizedf("unknown user")
		}
		return translate(err, "user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return domain.Validationf("current password is incorrect")
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return translate(s.userRepo.Update(ctx, user), "user")
}

func hashPassword(password string) (string, error) {
	if len(password) < MinPasswordLen {
		return "", domain.Validationf("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return "", domain.Validationf("password cannot exceed %d bytes", MaxPasswordLen)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return "", domain.Validationf("a valid email is required")
	}
	return email, nil
}
