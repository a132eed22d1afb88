// Command seed-owner creates the owner account, or promotes an existing
// account to owner. It is the only way an account becomes an owner.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/config"
	"github.com/isdelr/chaptermark-be/internal/database"
	"github.com/isdelr/chaptermark-be/internal/logger"
	"github.com/isdelr/chaptermark-be/internal/models"
	"github.com/isdelr/chaptermark-be/internal/store"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const minPasswordLength = 6

func main() {
	email := flag.String("email", "", "owner email address")
	flag.Parse()

	cfg, err := config.LoadSeed()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.LogLevel, cfg.Env != "production")

	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-owner -email owner@example.com")
		os.Exit(2)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	accounts := store.NewAccountStore(db)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)

	acc, created, err := seedOwner(ctx, accounts, hasher, *email, func() (string, error) {
		return readPassword(os.Stdin, os.Stderr)
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed owner")
	}

	if created {
		log.Info().Str("user_id", acc.ID).Msg("Owner account created")
	} else {
		log.Info().Str("user_id", acc.ID).Msg("Existing account promoted to owner")
	}
}

type ownerStore interface {
	FindByEmail(ctx context.Context, email string) (models.Account, error)
	Create(ctx context.Context, email, passwordHash string, role models.Role) (models.Account, error)
	PromoteToOwner(ctx context.Context, id string) error
}

type hasher interface {
	Hash(password string) (string, error)
}

// seedOwner promotes the account registered under email, or creates it
// with a password from prompt when there is none. It reports whether a
// new account was created.
func seedOwner(ctx context.Context, accounts ownerStore, h hasher, email string, prompt func() (string, error)) (models.Account, bool, error) {
	acc, err := accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := accounts.PromoteToOwner(ctx, acc.ID); err != nil {
			return models.Account{}, false, err
		}
		acc.Role = models.RoleOwner
		return acc, false, nil
	case !errors.Is(err, common.ErrNotFound):
		return models.Account{}, false, err
	}

	password, err := prompt()
	if err != nil {
		return models.Account{}, false, fmt.Errorf("read password: %w", err)
	}
	if len(password) < minPasswordLength {
		return models.Account{}, false, fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	hash, err := h.Hash(password)
	if err != nil {
		return models.Account{}, false, err
	}
	acc, err = accounts.Create(ctx, email, hash, models.RoleOwner)
	if err != nil {
		return models.Account{}, false, err
	}
	return acc, true, nil
}

// readPassword prompts without echo on a terminal. Otherwise it takes
// OWNER_PASSWORD, then the first line of in.
func readPassword(in *os.File, out io.Writer) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		fmt.Fprint(out, "Owner password: ")
		b, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if pw := os.Getenv("OWNER_PASSWORD"); pw != "" {
		return pw, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
