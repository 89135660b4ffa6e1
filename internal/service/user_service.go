package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"weeksuntil/internal/config"
	"weeksuntil/internal/database"
	"weeksuntil/internal/emoji"
	"weeksuntil/internal/metrics"
	"weeksuntil/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// emojiRetryLimit bounds the conflict-retry loop under concurrent
// registrations fighting over the same symbols.
const emojiRetryLimit = 5

type UserService struct {
	db     *database.DB
	cfg    *config.Config
	tokens *TokenManager
	logger zerolog.Logger
}

func NewUserService(db *database.DB, cfg *config.Config, logger *zerolog.Logger) *UserService {
	base := zerolog.Nop()
	if logger != nil {
		base = logger.With().Str("component", "user-service").Logger()
	}
	return &UserService{
		db:     db,
		cfg:    cfg,
		tokens: NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.TokenTTLDuration()),
		logger: base,
	}
}

func (s *UserService) Tokens() *TokenManager {
	return s.tokens
}

type RegisterInput struct {
	Email     string
	Password  string
	FullName  string
	StartDate *time.Time
	Deadline  *time.Time
	Emoji     string
}

// Register creates an email/password account. The emoji is chosen from
// the configured pool; losing the uniqueness race moves on to the next
// candidate. The admin invariant is reconciled afterwards.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" {
		return nil, ErrIdentityRequired
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		PasswordHash: string(hash),
		FullName:     in.FullName,
		StartDate:    in.StartDate,
		Deadline:     in.Deadline,
		IsActive:     true,
	}

	if err := s.createWithEmoji(ctx, user, in.Emoji); err != nil {
		return nil, err
	}

	if err := s.ReconcileAdmin(ctx); err != nil {
		s.logger.Error().Err(err).Msg("admin reconciliation after registration")
	}
	return s.db.GetUserByID(ctx, user.ID)
}

// createWithEmoji inserts the user, walking the emoji candidate list on
// uniqueness conflicts. The store's partial unique index is the arbiter;
// the in-memory taken set is only a hint.
func (s *UserService) createWithEmoji(ctx context.Context, user *models.User, preferred string) error {
	taken, err := s.db.TakenEmojis(ctx)
	if err != nil {
		return err
	}

	candidates := emoji.Candidates(s.cfg.Grid.EmojiPool, preferred, len(taken))
	attempts := 0
	for _, symbol := range candidates {
		if taken[symbol] {
			continue
		}
		if attempts++; attempts > emojiRetryLimit {
			break
		}

		user.Emoji = symbol
		err := s.db.CreateUser(ctx, user)
		if err == nil {
			metrics.SetRegisteredUsers(len(taken) + 1)
			return nil
		}
		if errors.Is(err, database.ErrEmojiTaken) {
			s.logger.Debug().Str("emoji", symbol).Msg("emoji race lost, trying next candidate")
			continue
		}
		return err
	}

	// Every candidate raced away; synthesize from the fresh count.
	count, err := s.db.CountUsers(ctx)
	if err != nil {
		return err
	}
	user.Emoji = emoji.Fallback(count)
	if err := s.db.CreateUser(ctx, user); err != nil {
		return err
	}
	metrics.SetRegisteredUsers(count + 1)
	return nil
}

// Authenticate checks email/password credentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

// TelegramLogin verifies a Login Widget payload and returns the matching
// user, creating one on first contact.
func (s *UserService) TelegramLogin(ctx context.Context, data TelegramAuthData) (*models.User, error) {
	if !VerifyTelegramHash(data, s.cfg.Telegram.BotToken) {
		return nil, ErrInvalidTelegramHash
	}
	return s.loginByTelegramID(ctx, data.ID, telegramFullName(data))
}

// LinkTelegramUser is the bot-side entry point: the chat itself proves
// the identity, so no widget hash is involved.
func (s *UserService) LinkTelegramUser(ctx context.Context, telegramID int64, fullName string) (*models.User, error) {
	return s.loginByTelegramID(ctx, telegramID, fullName)
}

func (s *UserService) loginByTelegramID(ctx context.Context, telegramID int64, fullName string) (*models.User, error) {
	if telegramID == 0 {
		return nil, ErrIdentityRequired
	}

	user, err := s.db.GetUserByTelegramID(ctx, telegramID)
	if err == nil {
		if !user.IsActive {
			return nil, ErrInactiveUser
		}
		return user, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		TelegramID: telegramID,
		FullName:   fullName,
		IsActive:   true,
	}
	if err := s.createWithEmoji(ctx, user, ""); err != nil {
		// Lost a concurrent first-contact race: someone else created the row.
		if errors.Is(err, database.ErrTelegramTaken) {
			return s.db.GetUserByTelegramID(ctx, telegramID)
		}
		return nil, err
	}

	if err := s.ReconcileAdmin(ctx); err != nil {
		s.logger.Error().Err(err).Msg("admin reconciliation after telegram login")
	}
	return s.db.GetUserByID(ctx, user.ID)
}

func telegramFullName(data TelegramAuthData) string {
	name := strings.TrimSpace(data.FirstName + " " + data.LastName)
	if name == "" {
		name = data.Username
	}
	return name
}

type UpdateProfileInput struct {
	FullName  *string
	Password  *string
	StartDate *time.Time
	Deadline  *time.Time
	Emoji     *string
}

// UpdateProfile applies a partial update to the caller's own profile.
// An emoji change that collides surfaces database.ErrEmojiTaken.
func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*models.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		user.FullName = *in.FullName
	}
	if in.StartDate != nil {
		user.StartDate = in.StartDate
	}
	if in.Deadline != nil {
		user.Deadline = in.Deadline
	}
	if in.Emoji != nil && *in.Emoji != "" {
		user.Emoji = *in.Emoji
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}

	if err := s.db.UpdateUserProfile(ctx, user); err != nil {
		return nil, err
	}
	return s.db.GetUserByID(ctx, userID)
}

// ReconcileAdmin enforces the single-admin invariant: if no active admin
// exists, the earliest active user is promoted. Idempotent; called at
// startup and after every registration.
func (s *UserService) ReconcileAdmin(ctx context.Context) error {
	id, err := s.db.PromoteEarliestUser(ctx)
	if errors.Is(err, database.ErrNotFound) {
		return nil // empty cohort
	}
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("admin_id", id).Msg("admin invariant holds")
	return nil
}

// ResolveSubject maps a verified token subject back to its user.
func (s *UserService) ResolveSubject(ctx context.Context, subject string) (*models.User, error) {
	if tgID, ok := strings.CutPrefix(subject, "tg_"); ok {
		var id int64
		if _, err := fmt.Sscanf(tgID, "%d", &id); err != nil {
			return nil, ErrInvalidToken
		}
		return s.db.GetUserByTelegramID(ctx, id)
	}
	return s.db.GetUserByEmail(ctx, subject)
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.db.GetUserByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.db.ListActiveUsers(ctx)
}
