package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/redeclipse/mastersession/internal/core/domain"
	"github.com/redeclipse/mastersession/internal/core/ports"
)

// DefaultKeyLifetime is how long a session key stays valid after its last use.
const DefaultKeyLifetime = time.Hour

// UserService implements registration, login and session key management.
type UserService struct {
	users       ports.UserRepository
	keys        ports.KeyRepository
	jwtSecret   []byte
	keyLifetime time.Duration
	clock       clockwork.Clock
	log         zerolog.Logger
}

func NewUserService(users ports.UserRepository, keys ports.KeyRepository, jwtSecret string, keyLifetime time.Duration, clock clockwork.Clock, log zerolog.Logger) *UserService {
	if keyLifetime <= 0 {
		keyLifetime = DefaultKeyLifetime
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &UserService{
		users:       users,
		keys:        keys,
		jwtSecret:   []byte(jwtSecret),
		keyLifetime: keyLifetime,
		clock:       clock,
		log:         log,
	}
}

func (s *UserService) Register(ctx context.Context, username, password, email string) (*domain.User, error) {
	if username == "" || password == "" || email == "" {
		return nil, domain.ErrMissingFields
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, domain.ErrInvalidEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Level:        domain.LevelPlayer,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login checks credentials and issues a fresh session token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrLoginIncorrect
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrLoginIncorrect
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrLoginIncorrect
	}

	key := &domain.UserKey{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: s.clock.Now().Add(s.keyLifetime),
	}
	if err := s.keys.Save(ctx, key); err != nil {
		return "", nil, fmt.Errorf("save key: %w", err)
	}

	token, err := s.signToken(key)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("username", user.Username).Str("key_id", key.ID).Msg("user logged in")
	return token, user, nil
}

// Lookup resolves a token to its user and slides the key expiry forward.
func (s *UserService) Lookup(ctx context.Context, token string) (*domain.User, error) {
	key, err := s.resolveKey(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if key.Expired(now) {
		if err := s.keys.Delete(ctx, key.ID); err != nil {
			s.log.Warn().Err(err).Str("key_id", key.ID).Msg("failed to delete expired key")
		}
		return nil, domain.ErrTokenExpired
	}

	key.ExpiresAt = now.Add(s.keyLifetime)
	if err := s.keys.Save(ctx, key); err != nil {
		return nil, fmt.Errorf("refresh key: %w", err)
	}

	user, err := s.users.FindByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Logout(ctx context.Context, token string) error {
	key, err := s.resolveKey(ctx, token)
	if err != nil {
		return err
	}
	if err := s.keys.Delete(ctx, key.ID); err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	s.log.Info().Str("key_id", key.ID).Msg("user logged out")
	return nil
}

// SetLevel changes the tier of username. Actors cannot grant a tier above
// their own, nor touch a user who already outranks them.
func (s *UserService) SetLevel(ctx context.Context, actor *domain.User, username string, level domain.Level) (*domain.User, error) {
	if !level.Valid() {
		return nil, domain.ErrInvalidLevel
	}
	if actor == nil || level > actor.Level {
		return nil, domain.ErrForbidden
	}

	target, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.Level > actor.Level {
		return nil, domain.ErrForbidden
	}

	user, err := s.users.UpdateLevel(ctx, username, level)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("actor", actor.Username).
		Str("username", user.Username).
		Str("level", level.String()).
		Msg("user level changed")
	return user, nil
}

func (s *UserService) resolveKey(ctx context.Context, token string) (*domain.UserKey, error) {
	if token == "" {
		return nil, domain.ErrTokenMissing
	}
	keyID, err := s.parseToken(token)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}
	return s.keys.Find(ctx, keyID)
}

// signToken wraps the key id in an HS256 token. Expiry is tracked on the key
// itself so that it can slide on every lookup.
func (s *UserService) signToken(key *domain.UserKey) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       key.ID,
		Subject:  key.UserID,
		IssuedAt: jwt.NewNumericDate(s.clock.Now()),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.jwtSecret)
}

func (s *UserService) parseToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("parse token: %w", err)
	}
	if claims.ID == "" {
		return "", jwt.ErrTokenInvalidId
	}
	return claims.ID, nil
}
