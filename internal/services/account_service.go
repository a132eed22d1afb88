package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/models"
	"github.com/rs/zerolog/log"
)

// AccountServiceProvider defines the interface for account services.
type AccountServiceProvider interface {
	Register(ctx context.Context, email, password string) (string, models.Account, error)
	Login(ctx context.Context, email, password string) (string, models.Account, error)
	GetProfile(ctx context.Context, accountID string) (models.Account, error)
	UpdateProfile(ctx context.Context, accountID, displayName, bio string) (models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	ToggleAdmin(ctx context.Context, actorID, targetID string) (models.Account, error)
}

// AccountRepository is the credential store as seen by the service.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	FindByID(ctx context.Context, id string) (models.Account, error)
	Create(ctx context.Context, email, passwordHash string, role models.Role) (models.Account, error)
	Save(ctx context.Context, acc models.Account) error
	ToggleAdmin(ctx context.Context, id string) (models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(acc models.Account) (string, error)
}

// FeedDisconnector drops live event-feed connections held by an account.
type FeedDisconnector interface {
	DisconnectAccount(accountID string)
}

// AccountService provides registration, login, profile and role management.
type AccountService struct {
	accounts AccountRepository
	hasher   PasswordHasher
	tokens   TokenIssuer
	events   EventServiceProvider
	feed     FeedDisconnector

	// dummyHash is verified against when the email is unknown so that
	// both login failure paths cost one hash comparison.
	dummyHash string
}

// NewAccountService creates a new AccountService. events may be nil.
func NewAccountService(accounts AccountRepository, hasher PasswordHasher, tokens TokenIssuer, events EventServiceProvider) (*AccountService, error) {
	dummy, err := hasher.Hash("chaptermark-timing-equaliser")
	if err != nil {
		return nil, fmt.Errorf("failed to prepare login hash: %w", err)
	}
	return &AccountService{
		accounts:  accounts,
		hasher:    hasher,
		tokens:    tokens,
		events:    events,
		dummyHash: dummy,
	}, nil
}

// WithFeed makes demotions close the target's open admin feed connections.
func (s *AccountService) WithFeed(feed FeedDisconnector) *AccountService {
	s.feed = feed
	return s
}

// Register creates a user account and returns a token for it.
func (s *AccountService) Register(ctx context.Context, email, password string) (string, models.Account, error) {
	// Fast path for a friendly error; the store's unique constraint is
	// what actually prevents duplicates.
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return "", models.Account{}, common.ErrDuplicateAccount
	} else if !errors.Is(err, common.ErrNotFound) {
		return "", models.Account{}, internal(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", models.Account{}, internal(err)
	}

	acc, err := s.accounts.Create(ctx, email, hash, models.RoleUser)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateAccount) {
			return "", models.Account{}, err
		}
		return "", models.Account{}, internal(err)
	}

	token, err := s.tokens.Issue(acc)
	if err != nil {
		return "", models.Account{}, internal(err)
	}

	log.Info().Str("user_id", acc.ID).Msg("Account registered")
	recordEvent(ctx, s.events, "account.register", "info", "Account registered: "+acc.Email, &acc.ID)
	return token, acc, nil
}

// Login checks credentials and returns a fresh token. Unknown email and
// wrong password both return common.ErrInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, models.Account, error) {
	acc, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return "", models.Account{}, internal(err)
		}
		if _, err := s.hasher.Verify(password, s.dummyHash); err != nil {
			return "", models.Account{}, internal(err)
		}
		recordEvent(ctx, s.events, "account.login.fail", "warn", "Failed login for unknown account", nil)
		return "", models.Account{}, common.ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(password, acc.PasswordHash)
	if err != nil {
		return "", models.Account{}, internal(err)
	}
	if !ok {
		recordEvent(ctx, s.events, "account.login.fail", "warn", "Failed login: wrong password", &acc.ID)
		return "", models.Account{}, common.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(acc)
	if err != nil {
		return "", models.Account{}, internal(err)
	}
	return token, acc, nil
}

// GetProfile returns the caller's own account.
func (s *AccountService) GetProfile(ctx context.Context, accountID string) (models.Account, error) {
	acc, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Account{}, common.ErrNotFound
		}
		return models.Account{}, internal(err)
	}
	return acc, nil
}

// UpdateProfile sets the caller's display name and bio.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID, displayName, bio string) (models.Account, error) {
	acc, err := s.GetProfile(ctx, accountID)
	if err != nil {
		return models.Account{}, err
	}

	acc.DisplayName = displayName
	acc.Bio = bio
	if err := s.accounts.Save(ctx, acc); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Account{}, common.ErrNotFound
		}
		return models.Account{}, internal(err)
	}
	return acc, nil
}

// ListAccounts returns every account. Callers must strip password hashes
// before exposing the result; models.Account already omits it from JSON.
func (s *AccountService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, internal(err)
	}
	return accounts, nil
}

// ToggleAdmin flips the target between user and admin. The actor must
// currently be an owner, and owners cannot be targeted. Repeated calls
// oscillate; callers wanting a specific state must read it first.
func (s *AccountService) ToggleAdmin(ctx context.Context, actorID, targetID string) (models.Account, error) {
	actor, err := s.accounts.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Account{}, common.ErrUnauthenticated
		}
		return models.Account{}, internal(err)
	}
	if !actor.IsOwner() {
		return models.Account{}, common.ErrForbidden
	}

	target, err := s.accounts.ToggleAdmin(ctx, targetID)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrNotFound):
			return models.Account{}, common.ErrNotFound
		case errors.Is(err, common.ErrForbidden):
			return models.Account{}, common.ErrOwnerImmutable
		default:
			return models.Account{}, internal(err)
		}
	}

	log.Info().Str("actor_id", actor.ID).Str("target_id", target.ID).Bool("is_admin", target.IsAdmin()).Msg("Admin role toggled")
	// The feed is authorized only at upgrade, so a demoted account's
	// sockets are cut before the toggle itself is announced.
	if !target.IsAdmin() && s.feed != nil {
		s.feed.DisconnectAccount(target.ID)
	}
	msg := fmt.Sprintf("Admin role for %s set to %t by %s", target.Email, target.IsAdmin(), actor.Email)
	recordEvent(ctx, s.events, "account.role.toggle", "info", msg, &target.ID)
	return target, nil
}

func internal(err error) error {
	return fmt.Errorf("%w: %v", common.ErrInternal, err)
}
