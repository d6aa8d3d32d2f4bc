package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"chapel-site/config"
	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/user"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

type AuthService struct {
	userRepo  repository.UserRepository
	identity  *IdentityResolver
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(userRepo repository.UserRepository, identity *IdentityResolver, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		identity:  identity,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: time.Duration(cfg.JWTExpiryMin) * time.Minute,
	}
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
	AvatarURL   string
}

type LoginInput struct {
	Email    string
	Password string
}

type ProfileInput struct {
	DisplayName *string
	AvatarURL   *string
}

type AuthResponse struct {
	AccessToken string   `json:"access_token"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

type UserInfo struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Role        chat.Role `json:"role"`
}

type AccessClaims struct {
	UserID string `json:"sub"`
	jwt.RegisteredClaims
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validateRegister(in); err != nil {
		return AuthResponse{}, err
	}

	if _, err := s.userRepo.GetUserByEmail(ctx, in.Email); err == nil {
		return AuthResponse{}, chapel_errors.ErrAlreadyExists
	} else if !errors.Is(err, chapel_errors.ErrNotFound) {
		return AuthResponse{}, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return AuthResponse{}, err
	}

	newUser := &user.User{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: hash,
		DisplayName:  in.DisplayName,
		AvatarURL:    strings.TrimSpace(in.AvatarURL),
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		return AuthResponse{}, err
	}

	return s.issue(*newUser)
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (AuthResponse, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return AuthResponse{}, chapel_errors.ErrInvalidInput
	}

	u, err := s.userRepo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, chapel_errors.ErrNotFound) {
			return AuthResponse{}, chapel_errors.ErrUnauthorized
		}
		return AuthResponse{}, err
	}

	if !u.IsActive {
		return AuthResponse{}, chapel_errors.ErrForbidden
	}

	if err := comparePassword(u.PasswordHash, in.Password); err != nil {
		return AuthResponse{}, chapel_errors.ErrUnauthorized
	}

	return s.issue(u)
}

func (s *AuthService) Me(ctx context.Context, userID string) (UserInfo, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return UserInfo{}, err
	}
	return s.toUserInfo(u), nil
}

// UpdateProfile changes the display info a customer's next message carries
// into their room.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (UserInfo, error) {
	u, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return UserInfo{}, err
	}
	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return UserInfo{}, chapel_errors.ErrInvalidInput
		}
		u.DisplayName = name
	}
	if in.AvatarURL != nil {
		u.AvatarURL = strings.TrimSpace(*in.AvatarURL)
	}
	if err := s.userRepo.UpdateUser(ctx, u); err != nil {
		return UserInfo{}, err
	}
	return s.toUserInfo(u), nil
}

func (s *AuthService) ParseAccessToken(tokenString string) (AccessClaims, error) {
	if tokenString == "" {
		return AccessClaims{}, chapel_errors.ErrUnauthorized
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, chapel_errors.ErrUnauthorized
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return AccessClaims{}, chapel_errors.ErrUnauthorized
	}

	claims, ok := parsed.Claims.(*AccessClaims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return AccessClaims{}, chapel_errors.ErrUnauthorized
	}

	return *claims, nil
}

// Authenticate validates a bearer token and resolves the actor behind it.
func (s *AuthService) Authenticate(ctx context.Context, token string) (chat.Actor, error) {
	claims, err := s.ParseAccessToken(token)
	if err != nil {
		return chat.Actor{}, err
	}
	return s.identity.Resolve(ctx, claims.UserID)
}

func (s *AuthService) issue(u user.User) (AuthResponse, error) {
	token, expiresIn, err := s.newAccessToken(u.ID)
	if err != nil {
		return AuthResponse{}, err
	}
	return AuthResponse{
		AccessToken: token,
		ExpiresIn:   expiresIn,
		User:        s.toUserInfo(u),
	}, nil
}

func (s *AuthService) newAccessToken(userID string) (string, int64, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessTTL)

	claims := AccessClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

func (s *AuthService) toUserInfo(u user.User) UserInfo {
	return UserInfo{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        s.identity.admins.RoleOf(u.ID),
	}
}

func validateRegister(in RegisterInput) error {
	if in.Email == "" || in.Password == "" || in.DisplayName == "" {
		return chapel_errors.ErrInvalidInput
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return chapel_errors.ErrInvalidInput
	}
	if len(in.Password) < minPasswordLen {
		return chapel_errors.ErrInvalidInput
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func comparePassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
