package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"coursehub-backend/internal/authorization"
	"coursehub-backend/internal/models"
	"coursehub-backend/internal/repository"
	"coursehub-backend/pkg/logger"
)

var (
	ErrEmailNotVerified    = errors.New("email address is not verified")
	ErrInvalidVerification = errors.New("verification link is invalid or expired")
)

// Claims carried by access tokens.
type Claims struct {
	UserID uint                   `json:"user_id"`
	Email  string                 `json:"email"`
	Role   authorization.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret string
	lifetime  time.Duration
	now       func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, lifetime time.Duration) *AuthService {
	if lifetime <= 0 {
		lifetime = 72 * time.Hour
	}
	return &AuthService{
		userRepo:  userRepo,
		jwtSecret: jwtSecret,
		lifetime:  lifetime,
		now:       time.Now,
	}
}

func (s *AuthService) Login(req models.LoginRequest) (string, *models.User, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusPending && !user.EmailVerified {
		return "", nil, ErrEmailNotVerified
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	logger.Info("User logged in", map[string]interface{}{"user_id": user.ID, "role": user.Role})
	return token, user, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses an access token and returns its claims.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.IsValid() {
		return nil, errors.New("invalid token role")
	}
	return claims, nil
}

func (s *AuthService) Me(userID uint) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// VerifyEmail consumes a verification token sent after instructor signup.
func (s *AuthService) VerifyEmail(token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidVerification
	}

	now := s.now().UTC()
	user, err := s.userRepo.GetByVerificationHash(hashToken(token), now)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerification
		}
		return nil, err
	}

	if err := s.userRepo.MarkVerified(user.ID, now); err != nil {
		return nil, err
	}
	user.EmailVerified = true
	user.EmailVerifiedAt = &now
	user.Status = models.UserStatusActive
	user.VerificationTokenHash = ""
	user.VerificationExpiresAt = nil

	logger.Info("Email verified", map[string]interface{}{"user_id": user.ID})
	return user, nil
}
