package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	authrepo "github.com/shaderlabs/shaderlab-backend/internal/data/repos/auth"
	"github.com/shaderlabs/shaderlab-backend/internal/domain"
	pkgerrors "github.com/shaderlabs/shaderlab-backend/internal/pkg/errors"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/envutil"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/logger"
	"github.com/shaderlabs/shaderlab-backend/internal/platform/sendgrid"
)

type JWTClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	IsAuthor bool      `json:"is_author"`
	jwt.RegisteredClaims
}

type AuthResult struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
}

type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	ParseToken(tokenString string) (*JWTClaims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  authrepo.UserRepo
	mail      sendgrid.Client
	activity  ActivityService
	secret    []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	appURL    string

	mu          sync.Mutex
	resetTokens map[string]resetEntry
}

type resetEntry struct {
	userID  uuid.UUID
	expires time.Time
}

func NewAuthService(
	db *gorm.DB,
	baseLog *logger.Logger,
	userRepo authrepo.UserRepo,
	mail sendgrid.Client,
	activity ActivityService,
) AuthService {
	return &authService{
		db:          db,
		log:         baseLog.With("service", "AuthService"),
		userRepo:    userRepo,
		mail:        mail,
		activity:    activity,
		secret:      []byte(envutil.Str("JWT_SECRET", "")),
		accessTTL:   envutil.Dur("JWT_ACCESS_TTL", 24*time.Hour),
		resetTTL:    envutil.Dur("PASSWORD_RESET_TTL", time.Hour),
		appURL:      strings.TrimRight(envutil.Str("APP_URL", "http://localhost:3000"), "/"),
		resetTokens: make(map[string]resetEntry),
	}
}

func (s *authService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", pkgerrors.ErrInvalidArgument)
	}

	exists, err := s.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", pkgerrors.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.Create(ctx, nil, &domain.User{
		Email:    email,
		Password: string(hash),
		Name:     name,
	})
	if err != nil {
		return nil, err
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", pkgerrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", pkgerrors.ErrUnauthorized)
	}

	if s.activity != nil {
		if _, err := s.activity.RecordActivity(ctx, user.ID, domain.ActivitySignedIn, time.Now().UTC()); err != nil {
			s.log.Error("sign-in activity dispatch failed", "error", err)
		}
	}

	return s.issue(user)
}

func (s *authService) issue(user *domain.User) (*AuthResult, error) {
	claims := JWTClaims{
		UserID:   user.ID,
		IsAuthor: user.IsAuthor,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, AccessToken: signed}, nil
}

func (s *authService) ParseToken(tokenString string) (*JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrUnauthorized, err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", pkgerrors.ErrUnauthorized)
	}
	return claims, nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, nil, userID)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.userRepo.GetByEmail(ctx, nil, email)
	if errors.Is(err, pkgerrors.ErrNotFound) {
		// Do not leak which addresses exist.
		return nil
	}
	if err != nil {
		return err
	}

	if s.mail == nil {
		return fmt.Errorf("password reset mail is not configured")
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return err
	}
	token := hex.EncodeToString(raw)

	s.mu.Lock()
	s.resetTokens[token] = resetEntry{userID: user.ID, expires: time.Now().Add(s.resetTTL)}
	s.mu.Unlock()

	link := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	_, err = s.mail.Send(ctx, sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: user.Email, Name: user.Name}},
		Subject: "Reset your password",
		Text:    fmt.Sprintf("Follow this link to reset your password: %s\nThe link expires in %s.", link, s.resetTTL),
	})
	if err != nil {
		s.log.Error("failed to send password reset mail", "error", err)
		return fmt.Errorf("send password reset mail: %w", err)
	}
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password required", pkgerrors.ErrInvalidArgument)
	}

	s.mu.Lock()
	entry, ok := s.resetTokens[token]
	if ok {
		delete(s.resetTokens, token)
	}
	s.mu.Unlock()

	if !ok || time.Now().After(entry.expires) {
		return fmt.Errorf("%w: invalid or expired reset token", pkgerrors.ErrUnauthorized)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(ctx, nil, entry.userID, string(hash))
}
