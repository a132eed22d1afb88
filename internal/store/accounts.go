// Package store holds the credential store: accounts, their password hashes
// and roles. Email uniqueness is enforced by the database, not by callers.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/database"
	"github.com/isdelr/chaptermark-be/internal/models"
)

// AccountStore persists accounts.
type AccountStore struct {
	db  *database.DB
	now func() time.Time
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(db *database.DB) *AccountStore {
	return &AccountStore{db: db, now: time.Now}
}

// NormalizeEmail is the case policy for login keys: trimmed and lowercased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

const accountColumns = "id, email, password_hash, role, display_name, bio, created_at"

func scanAccount(scanner interface{ Scan(...any) error }) (models.Account, error) {
	var acc models.Account
	var role string
	if err := scanner.Scan(&acc.ID, &acc.Email, &acc.PasswordHash, &role, &acc.DisplayName, &acc.Bio, &acc.CreatedAt); err != nil {
		return models.Account{}, err
	}
	r, err := models.ParseRole(role)
	if err != nil {
		return models.Account{}, err
	}
	acc.Role = r
	return acc, nil
}

// FindByEmail returns the account registered under email.
func (s *AccountStore) FindByEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "store.accounts.FindByEmail"

	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE email = ?"), NormalizeEmail(email))
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, fmt.Errorf("%s: %w", op, common.ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// FindByID returns the account with the given id.
func (s *AccountStore) FindByID(ctx context.Context, id string) (models.Account, error) {
	const op = "store.accounts.FindByID"

	row := s.db.QueryRowContext(ctx, s.db.Rebind("SELECT "+accountColumns+" FROM accounts WHERE id = ?"), id)
	acc, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, fmt.Errorf("%s: %w", op, common.ErrNotFound)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Create inserts a new account. The UNIQUE constraint on email is the
// authoritative duplicate check; a violation yields common.ErrDuplicateAccount.
func (s *AccountStore) Create(ctx context.Context, email, passwordHash string, role models.Role) (models.Account, error) {
	const op = "store.accounts.Create"

	if !role.IsValid() {
		return models.Account{}, fmt.Errorf("%s: invalid role %q", op, role)
	}

	acc := models.Account{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    s.now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO accounts (id, email, password_hash, role, display_name, bio, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)"),
		acc.ID, acc.Email, acc.PasswordHash, string(acc.Role), acc.DisplayName, acc.Bio, acc.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Account{}, fmt.Errorf("%s: %w", op, common.ErrDuplicateAccount)
		}
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}
	return acc, nil
}

// Save persists profile fields of an existing account. Role, email and
// password hash are not written here.
func (s *AccountStore) Save(ctx context.Context, acc models.Account) error {
	const op = "store.accounts.Save"

	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE accounts SET display_name = ?, bio = ? WHERE id = ?"),
		acc.DisplayName, acc.Bio, acc.ID,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireOneRow(op, res)
}

// ToggleAdmin flips a non-owner account between user and admin in a single
// statement and returns the updated record. Owner accounts are left
// untouched and reported as common.ErrOwnerImmutable.
func (s *AccountStore) ToggleAdmin(ctx context.Context, id string) (models.Account, error) {
	const op = "store.accounts.ToggleAdmin"

	res, err := s.db.ExecContext(ctx, s.db.Rebind(`
		UPDATE accounts
		SET role = CASE role WHEN 'admin' THEN 'user' ELSE 'admin' END
		WHERE id = ? AND role <> 'owner'`), id)
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	acc, err := s.FindByID(ctx, id)
	if err != nil {
		return models.Account{}, err
	}
	if n == 0 {
		if acc.IsOwner() {
			return models.Account{}, fmt.Errorf("%s: %w", op, common.ErrOwnerImmutable)
		}
		return models.Account{}, fmt.Errorf("%s: no rows updated", op)
	}
	return acc, nil
}

// PromoteToOwner marks an existing account as owner. Only the seeding
// command uses it.
func (s *AccountStore) PromoteToOwner(ctx context.Context, id string) error {
	const op = "store.accounts.PromoteToOwner"

	res, err := s.db.ExecContext(ctx, s.db.Rebind("UPDATE accounts SET role = 'owner' WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireOneRow(op, res)
}

// List returns every account, oldest first.
func (s *AccountStore) List(ctx context.Context) ([]models.Account, error) {
	const op = "store.accounts.List"

	rows, err := s.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM accounts ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return accounts, nil
}

func requireOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	}
	return nil
}
