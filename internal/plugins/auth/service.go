package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/foodgram/foodgram/internal/apperror"
	"github.com/foodgram/foodgram/internal/database"
	"github.com/foodgram/foodgram/internal/pagination"
	"github.com/foodgram/foodgram/internal/widgets/relations"
)

// tokenKeyPrefix is the Redis key prefix for issued API tokens.
const tokenKeyPrefix = "token:"

// tokenBytes is the number of random bytes in an API token (hex-encoded to
// 40 characters).
const tokenBytes = 20

// argon2id parameters tuned for a self-hosted application running on
// modest hardware. These follow OWASP recommendations for argon2id:
// memory=64MB, iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Messages shared with the handler and tests.
const (
	msgBadCredentials = "Unable to log in with provided credentials."
	msgBadToken       = "Invalid token."
)

// UserService defines the business logic contract for accounts and tokens.
// Handlers call these methods -- they never touch the repository directly.
type UserService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	Login(ctx context.Context, email, password string) (token string, err error)
	Logout(ctx context.Context, token string) error
	ValidateToken(ctx context.Context, token string) (*Session, error)
	SetPassword(ctx context.Context, userID int64, currentPassword, newPassword string) error

	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, opts pagination.ListOptions) ([]User, int, error)

	// Profiles projects users for a viewer, filling is_subscribed. An
	// anonymous viewer (id 0) sees false everywhere.
	Profiles(ctx context.Context, viewerID int64, users []User) ([]Profile, error)
}

// userService implements UserService with argon2id hashing and Redis tokens.
type userService struct {
	repo      UserRepository
	relations relations.RelationRepository
	redis     *redis.Client
	secret    []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewUserService creates a new user service with the given dependencies.
// secret keys the HMAC used to derive Redis keys from tokens, so a Redis
// dump does not reveal usable tokens.
func NewUserService(repo UserRepository, rels relations.RelationRepository, rdb *redis.Client, secret string, tokenTTL time.Duration) UserService {
	return &userService{
		repo:      repo,
		relations: rels,
		redis:     rdb,
		secret:    []byte(secret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register creates a new user account. Uniqueness of email and username is
// checked up front for friendly field errors; the UNIQUE keys catch races.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	fields := make(map[string][]string)
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		fields["email"] = []string{"A user with that email already exists."}
	}
	exists, err = s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking username: %w", err))
	}
	if exists {
		fields["username"] = []string{"A user with that username already exists."}
	}
	if len(fields) > 0 {
		return nil, apperror.NewFieldErrors(fields)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if database.IsDuplicateEntry(err) {
			return nil, apperror.NewFieldError("email", "A user with that email or username already exists.")
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	slog.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login authenticates by email and password and issues a new token.
func (s *userService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Don't reveal whether the email exists.
		if apperror.Is(err, apperror.TypeNotFound) {
			return "", apperror.NewFieldError("non_field_errors", msgBadCredentials)
		}
		return "", apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(password, user.PasswordHash) {
		return "", apperror.NewFieldError("non_field_errors", msgBadCredentials)
	}

	token, err := s.issueToken(ctx, user)
	if err != nil {
		return "", apperror.NewInternal(fmt.Errorf("issuing token: %w", err))
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))

	return token, nil
}

// ValidateToken looks up a token in Redis and returns its session.
func (s *userService) ValidateToken(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.NewUnauthorized(msgBadToken)
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading token from Redis: %w", err))
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling session: %w", err))
	}

	return &session, nil
}

// Logout revokes a token.
func (s *userService) Logout(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.tokenKey(token)).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("deleting token from Redis: %w", err))
	}
	return nil
}

// SetPassword changes a password after verifying the current one. Issued
// tokens stay valid.
func (s *userService) SetPassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !verifyPassword(currentPassword, user.PasswordHash) {
		return apperror.NewFieldError("current_password", "Invalid password.")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.NewInternal(err)
	}

	slog.Info("password changed", slog.Int64("user_id", userID))
	return nil
}

// GetByID returns a user or NotFound.
func (s *userService) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if apperror.Is(err, apperror.TypeNotFound) {
			return nil, err
		}
		return nil, apperror.NewInternal(err)
	}
	return user, nil
}

// List returns one page of users.
func (s *userService) List(ctx context.Context, opts pagination.ListOptions) ([]User, int, error) {
	users, total, err := s.repo.List(ctx, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, apperror.NewInternal(err)
	}
	return users, total, nil
}

// Profiles projects users with is_subscribed for the viewer in one query.
func (s *userService) Profiles(ctx context.Context, viewerID int64, users []User) ([]Profile, error) {
	subscribed := map[int64]bool{}
	if viewerID != 0 && len(users) > 0 {
		ids := make([]int64, len(users))
		for i := range users {
			ids[i] = users[i].ID
		}
		var err error
		subscribed, err = s.relations.ExistingTargets(ctx, relations.Subscription, viewerID, ids)
		if err != nil {
			return nil, apperror.NewInternal(err)
		}
	}

	profiles := make([]Profile, len(users))
	for i := range users {
		profiles[i] = users[i].ToProfile(subscribed[users[i].ID])
	}
	return profiles, nil
}

// issueToken generates a random token and stores its session in Redis
// under the token's keyed hash.
func (s *userService) issueToken(ctx context.Context, user *User) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	session := Session{
		UserID:    user.ID,
		Username:  user.Username,
		IsAdmin:   user.IsAdmin,
		CreatedAt: s.now().UTC(),
	}

	data, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("marshaling session: %w", err)
	}

	if err := s.redis.Set(ctx, s.tokenKey(token), data, s.tokenTTL).Err(); err != nil {
		return "", fmt.Errorf("storing token in Redis: %w", err)
	}

	return token, nil
}

// tokenKey derives the Redis key for a token.
func (s *userService) tokenKey(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return tokenKeyPrefix + hex.EncodeToString(mac.Sum(nil))
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash), nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
func verifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}

// generateToken creates a cryptographically random hex-encoded token.
func generateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
