package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"satprep-service/internal/domain"
)

// UserRepository abstracts how accounts are stored.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
	GetByGoogleID(ctx context.Context, googleID string) (domain.User, error)
	UpdateName(ctx context.Context, id, name string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	LinkGoogle(ctx context.Context, id, googleID, email string) error
}

// GoogleProfile is the subset of the identity provider's userinfo payload
// the service cares about.
type GoogleProfile struct {
	Sub   string `json:"sub"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleVerifier resolves an access token into the holder's profile.
type GoogleVerifier interface {
	UserInfo(ctx context.Context, accessToken string) (GoogleProfile, error)
}

var emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether the address passes the registration check.
func ValidEmail(email string) bool { return emailRE.MatchString(email) }

const bcryptCost = 10

type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// AuthService implements registration, login, Google sign-in/linking and
// profile management, issuing HS256 bearer tokens whose payload carries only
// the user identifier.
type AuthService struct {
	users    UserRepository
	google   GoogleVerifier
	secret   []byte
	tokenTTL time.Duration
}

func NewAuthService(users UserRepository, google GoogleVerifier, secret []byte, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 7 * 24 * time.Hour
	}
	return &AuthService{users: users, google: google, secret: secret, tokenTTL: tokenTTL}
}

// Register creates an account with a derived username and returns it with a
// fresh token. The email must be unused.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (domain.User, string, error) {
	email = strings.ToLower(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return domain.User{}, "", domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, "", fmt.Errorf("checking email: %w", err)
	}

	id := uuid.NewString()
	username, err := s.claimUsername(ctx, deriveUsername(email), id)
	if err != nil {
		return domain.User{}, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hashing password: %w", err)
	}

	user := domain.User{
		ID:           id,
		Name:         strings.TrimSpace(name),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, "", fmt.Errorf("creating user: %w", err)
	}

	token, err := s.IssueToken(user.ID)
	return user, token, err
}

// Login authenticates by email, falling back to username for legacy accounts
// created before email was required.
func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.users.GetByUsername(ctx, email)
	}
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", fmt.Errorf("finding user: %w", err)
	}
	if user.PasswordHash == "" {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return domain.User{}, "", domain.ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	return user, token, err
}

// GoogleLogin resolves the access token, matching an existing account by
// google id, linking by email, or creating a new account.
func (s *AuthService) GoogleLogin(ctx context.Context, accessToken string) (domain.User, string, error) {
	profile, err := s.google.UserInfo(ctx, accessToken)
	if err != nil {
		return domain.User{}, "", domain.ErrGoogleAuthFailed
	}

	user, err := s.users.GetByGoogleID(ctx, profile.Sub)
	if errors.Is(err, domain.ErrUserNotFound) && profile.Email != "" {
		user, err = s.users.GetByEmail(ctx, strings.ToLower(profile.Email))
		if err == nil {
			if err := s.users.LinkGoogle(ctx, user.ID, profile.Sub, user.Email); err != nil {
				return domain.User{}, "", fmt.Errorf("linking google id: %w", err)
			}
			user.GoogleID = profile.Sub
		}
	}
	if errors.Is(err, domain.ErrUserNotFound) {
		user, err = s.createGoogleUser(ctx, profile)
	}
	if err != nil {
		return domain.User{}, "", err
	}

	token, err := s.IssueToken(user.ID)
	return user, token, err
}

func (s *AuthService) createGoogleUser(ctx context.Context, profile GoogleProfile) (domain.User, error) {
	seed := profile.Email
	if seed == "" {
		seed = profile.Name
	}
	if seed == "" {
		seed = "user"
	}
	id := uuid.NewString()
	username, err := s.claimUsername(ctx, deriveUsername(seed), id)
	if err != nil {
		return domain.User{}, err
	}
	name := profile.Name
	if name == "" {
		name = username
	}
	user := domain.User{
		ID:        id,
		Name:      name,
		Username:  username,
		Email:     strings.ToLower(profile.Email),
		GoogleID:  profile.Sub,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, fmt.Errorf("creating google user: %w", err)
	}
	return user, nil
}

// LinkGoogle attaches a Google identity to an existing account, filling a
// missing email. Fails with a conflict if the identity belongs to another
// account.
func (s *AuthService) LinkGoogle(ctx context.Context, userID, accessToken string) (string, error) {
	profile, err := s.google.UserInfo(ctx, accessToken)
	if err != nil {
		return "", domain.ErrGoogleAuthFailed
	}

	existing, err := s.users.GetByGoogleID(ctx, profile.Sub)
	if err == nil && existing.ID != userID {
		return "", domain.ErrGoogleAlreadyLinked
	}
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("checking google id: %w", err)
	}

	email := strings.ToLower(profile.Email)
	if err := s.users.LinkGoogle(ctx, userID, profile.Sub, email); err != nil {
		return "", fmt.Errorf("linking google id: %w", err)
	}
	return email, nil
}

// GetUser looks up an account by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateName changes the display name.
func (s *AuthService) UpdateName(ctx context.Context, id, name string) error {
	return s.users.UpdateName(ctx, id, strings.TrimSpace(name))
}

// ChangePassword verifies the current password before storing a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" {
		return domain.ErrUserNotFound
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// IssueToken signs a bearer token carrying only the user identifier.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: userID,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// ParseToken validates a bearer token and returns the user identifier.
func (s *AuthService) ParseToken(token string) (string, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", domain.ErrInvalidCredentials
	}
	return claims.UserID, nil
}

func (s *AuthService) claimUsername(ctx context.Context, base, id string) (string, error) {
	if _, err := s.users.GetByUsername(ctx, base); err == nil {
		if len(base) > 14 {
			base = base[:14]
		}
		return base + "_" + id[:3], nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", fmt.Errorf("checking username: %w", err)
	}
	return base, nil
}

var nonUsernameRE = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// deriveUsername builds a username from the email local part.
func deriveUsername(email string) string {
	base := nonUsernameRE.ReplaceAllString(strings.SplitN(email, "@", 2)[0], "_")
	if len(base) > 17 {
		base = base[:17]
	}
	if len(base) < 3 {
		return "user_" + base
	}
	return base
}
