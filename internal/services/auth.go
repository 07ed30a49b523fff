package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/yungbote/interview-coach/internal/data/repos"
	types "github.com/yungbote/interview-coach/internal/domain"
	"github.com/yungbote/interview-coach/internal/pkg/apierr"
	"github.com/yungbote/interview-coach/internal/pkg/ctxutil"
	"github.com/yungbote/interview-coach/internal/pkg/dbctx"
	"github.com/yungbote/interview-coach/internal/pkg/logger"
)

const (
	DefaultTokenTTL  = 7 * 24 * time.Hour
	MinPasswordRunes = 6
	// bcrypt ignores everything past 72 bytes.
	MaxPasswordBytes = 72
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type AuthResult struct {
	User      *types.User
	Token     string
	ExpiresAt time.Time
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
	// Now is overridable for token expiry tests.
	Now func() time.Time
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*AuthResult, error)
	LoginUser(ctx context.Context, email, password string) (*AuthResult, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	IssueToken(userID uuid.UUID) (string, time.Time, error)
	VerifyToken(tokenString string) (uuid.UUID, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type authService struct {
	log        *logger.Logger
	userRepo   repos.UserRepo
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

func NewAuthService(log *logger.Logger, userRepo repos.UserRepo, cfg AuthConfig) (AuthService, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, errors.New("jwt secret required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cost)
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &authService{
		log:        log.With("service", "AuthService"),
		userRepo:   userRepo,
		secret:     []byte(cfg.JWTSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
		now:        now,
	}, nil
}

func (as *authService) RegisterUser(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	password := in.Password

	if name == "" || email == "" || password == "" {
		return nil, apierr.Validation("All fields are required")
	}
	if utf8.RuneCountInString(password) < MinPasswordRunes {
		return nil, apierr.Validation("Password must be at least 6 characters long")
	}
	if len(password) > MaxPasswordBytes {
		return nil, apierr.Validation("Password must be at most 72 bytes long")
	}
	if !emailRe.MatchString(email) {
		return nil, apierr.Validation("Invalid email format")
	}

	dbc := dbctx.Context{Ctx: ctx}
	exists, err := as.userRepo.EmailExists(dbc, email)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("check email: %w", err))
	}
	if exists {
		return nil, apierr.DuplicateEmail("Email already exists, please use a different one")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), as.bcryptCost)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("hash password: %w", err))
	}

	user, err := as.userRepo.Create(dbc, &types.User{Name: name, Email: email, Password: string(hash)})
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, repos.ErrDuplicateEmail) {
			return nil, apierr.DuplicateEmail("Email already exists, please use a different one")
		}
		return nil, apierr.Server(fmt.Errorf("create user: %w", err))
	}
	as.log.Info("user registered", "user_id", user.ID)
	return as.authResult(user)
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apierr.Validation("Email and password are required")
	}

	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("load user: %w", err))
	}
	if user == nil || !verifyPassword(user, password) {
		return nil, apierr.InvalidCredentials()
	}
	return as.authResult(user)
}

func (as *authService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := as.userRepo.GetByID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("load user: %w", err))
	}
	if user == nil {
		return nil, apierr.Unauthorized(errors.New("user not found"))
	}
	return user, nil
}

func verifyPassword(user *types.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

func (as *authService) authResult(user *types.User) (*AuthResult, error) {
	token, exp, err := as.IssueToken(user.ID)
	if err != nil {
		return nil, apierr.Server(fmt.Errorf("issue token: %w", err))
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (as *authService) IssueToken(userID uuid.UUID) (string, time.Time, error) {
	if userID == uuid.Nil {
		return "", time.Time{}, errors.New("user id required")
	}
	now := as.now()
	exp := now.Add(as.tokenTTL)
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	// NumericDate has second precision.
	return signed, exp.Truncate(time.Second), nil
}

func (as *authService) VerifyToken(tokenString string) (uuid.UUID, error) {
	if strings.TrimSpace(tokenString) == "" {
		return uuid.Nil, apierr.Unauthorized(errors.New("missing token"))
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return as.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("parse token: %w", err))
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return uuid.Nil, apierr.Unauthorized(errors.New("invalid token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized(fmt.Errorf("invalid subject %q", claims.Subject))
	}
	return userID, nil
}

// SetContextFromToken verifies the token, confirms the user still exists and
// attaches the identity to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	userID, err := as.VerifyToken(tokenString)
	if err != nil {
		return ctx, err
	}
	if _, err := as.GetUser(ctx, userID); err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.tokenTTL
}
