package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"reviewhub/internal/config"
	"reviewhub/internal/httpapi/dto"
	"reviewhub/internal/httpapi/models"
	"reviewhub/internal/httpapi/repository"
	"reviewhub/internal/httpapi/validation"
	"reviewhub/internal/mailer"
	"reviewhub/internal/token"
)

// Claims is the payload of a minted access token.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	// SignUp registers a user or re-sends a confirmation code to an existing
	// exact (username, email) match.
	SignUp(ctx context.Context, req dto.SignUpRequest) error
	// IssueToken exchanges a confirmation code for a bearer token.
	IssueToken(ctx context.Context, req dto.TokenRequest) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type authService struct {
	userRepo       repository.UserRepository
	codes          *token.ConfirmationGenerator
	mail           mailer.Mailer
	jwtSecret      string
	accessTokenTTL time.Duration
	emailSubject   string
	logger         *slog.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	codes *token.ConfirmationGenerator,
	mail mailer.Mailer,
	cfg *config.Config,
	logger *slog.Logger,
) AuthService {
	return &authService{
		userRepo:       userRepo,
		codes:          codes,
		mail:           mail,
		jwtSecret:      cfg.JWTSecret,
		accessTokenTTL: cfg.AccessTokenTTL,
		emailSubject:   cfg.EmailSubject,
		logger:         logger,
	}
}

// SignUp runs the collision checks in a fixed order. The exact-pair check
// must come first: it turns a repeated signup into a code re-send instead of
// a bogus "taken" rejection.
func (s *authService) SignUp(ctx context.Context, req dto.SignUpRequest) error {
	if err := validation.Username(req.Username); err != nil {
		return err
	}
	if err := validation.EmailAddress(req.Email); err != nil {
		return err
	}

	// Case 1: exact pair exists, treat as a re-send request.
	existing, err := s.userRepo.FindByUsernameAndEmail(ctx, req.Username, req.Email)
	if err == nil {
		return s.sendConfirmationCode(ctx, existing)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Case 2: username taken by a different email.
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Case 3: email taken by a different username.
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	// Case 4: brand-new user, no usable password.
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			// Lost a race with a concurrent signup. Re-run the collision
			// logic against the row that won.
			return s.resolveSignupRace(ctx, req)
		}
		return err
	}

	return s.sendConfirmationCode(ctx, user)
}

// resolveSignupRace maps a constraint violation to the same outcome the
// application-level checks would have produced had they seen the winner.
func (s *authService) resolveSignupRace(ctx context.Context, req dto.SignUpRequest) error {
	if existing, err := s.userRepo.FindByUsernameAndEmail(ctx, req.Username, req.Email); err == nil {
		return s.sendConfirmationCode(ctx, existing)
	}
	if _, err := s.userRepo.FindByUsername(ctx, req.Username); err == nil {
		return ErrUsernameTaken
	}
	return ErrEmailTaken
}

func (s *authService) sendConfirmationCode(ctx context.Context, user *models.User) error {
	code := s.codes.MakeCode(user)
	body := fmt.Sprintf("Confirmation code: %s", code)
	if err := s.mail.Send(ctx, user.Email, s.emailSubject, body); err != nil {
		// Fire-and-forget: delivery failures are logged, not retried, and do
		// not fail the signup.
		s.logger.Error("confirmation code delivery failed", "username", user.Username, "error", err)
	}
	return nil
}

// IssueToken answers 404 semantics for unknown users and a flat "invalid
// code" for everything else, leaking nothing about why the code failed.
func (s *authService) IssueToken(ctx context.Context, req dto.TokenRequest) (string, error) {
	if err := validation.Username(req.Username); err != nil {
		return "", err
	}

	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if !s.codes.CheckCode(user, req.ConfirmationCode) {
		return "", ErrInvalidCode
	}

	return s.generateAccessToken(user)
}

func (s *authService) generateAccessToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(s.jwtSecret))
}

func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
