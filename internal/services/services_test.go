package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/isdelr/chaptermark-be/internal/auth"
	"github.com/isdelr/chaptermark-be/internal/database"
	"github.com/isdelr/chaptermark-be/internal/store"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "services.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

type testEnv struct {
	db       *database.DB
	accounts *store.AccountStore
	issuer   *auth.TokenIssuer
	events   *EventService
	svc      *AccountService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	accounts := store.NewAccountStore(db)
	issuer := auth.NewTokenIssuer("test-secret")
	events := NewEventService(db, nil)
	svc, err := NewAccountService(accounts, auth.NewPasswordHasher(bcrypt.MinCost), issuer, events)
	require.NoError(t, err)

	return &testEnv{db: db, accounts: accounts, issuer: issuer, events: events, svc: svc}
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages [][]byte
}

func (p *recordingPublisher) Publish(message []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, message)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}

// fakeGenerator stands in for the chat completions client.
type fakeGenerator struct {
	chapters string
	titles   []string
	err      error
	calls    int
}

func (g *fakeGenerator) GenerateChapters(_ context.Context, _, _ string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.chapters, nil
}

func (g *fakeGenerator) GenerateTitles(_ context.Context, _ string) ([]string, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.titles, nil
}
