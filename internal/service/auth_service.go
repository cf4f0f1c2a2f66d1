package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/lenterailmu/ujian-backend/internal/config"
	"github.com/lenterailmu/ujian-backend/internal/model"
)

// ErrInvalidCredentials is returned for any username/password mismatch.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims extends JWT standard claims with the directory fields the engine
// needs: who the caller is and whether they take exams or read reports.
type Claims struct {
	jwt.RegisteredClaims
	UserID int            `json:"user_id"`
	Role   model.UserRole `json:"role"`
}

// AuthService resolves identity at the boundary. It validates tokens and
// keeps a single-login registry per student in Redis; credential storage
// lives in the user directory, not here.
type AuthService struct {
	cfg *config.Config
	rdb *redis.Client
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a JWT for a user. Student tokens register their JTI
// as the single active login; a newer login displaces the older one, which
// the session middleware will then reject.
func (s *AuthService) GenerateToken(ctx context.Context, u *model.User) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.Itoa(u.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: u.ID,
		Role:   u.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if u.Role == model.RoleStudent {
		key := config.CacheKey.LoginSessionKey(u.ID)
		if err := s.rdb.Set(ctx, key, jti, s.cfg.JWTExpiry).Err(); err != nil {
			return "", fmt.Errorf("store login session: %w", err)
		}
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ResetStudentLogin drops the student's active login registration so the
// current token stops passing the single-login check.
func (s *AuthService) ResetStudentLogin(ctx context.Context, studentID int) error {
	return s.rdb.Del(ctx, config.CacheKey.LoginSessionKey(studentID)).Err()
}

// ValidateStudentLogin checks that the token's JTI is still the student's
// active login.
func (s *AuthService) ValidateStudentLogin(ctx context.Context, studentID int, jti string) error {
	stored, err := s.rdb.Get(ctx, config.CacheKey.LoginSessionKey(studentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return errors.New("no active login")
		}
		return fmt.Errorf("check login session: %w", err)
	}
	if stored != jti {
		return errors.New("login superseded")
	}
	return nil
}
