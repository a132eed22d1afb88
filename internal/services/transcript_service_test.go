package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateChapters_StoresRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, err := env.accounts.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)

	gen := &fakeGenerator{chapters: "00:00 Intro\n01:30 Setup"}
	svc := NewTranscriptService(env.db, gen)

	rec, err := svc.GenerateChapters(ctx, acc.ID, gofakeit.Sentence(30), "youtube")
	require.NoError(t, err)
	assert.Equal(t, gen.chapters, rec.Chapters)
	assert.Equal(t, acc.ID, rec.AccountID)

	list, err := svc.ListForAccount(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)
	assert.Equal(t, "youtube", list[0].Format)
}

func TestGenerateChapters_UpstreamFailureStoresNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	acc, err := env.accounts.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)

	svc := NewTranscriptService(env.db, &fakeGenerator{err: common.ErrUpstreamTimeout})

	_, err = svc.GenerateChapters(ctx, acc.ID, gofakeit.Sentence(30), "")
	assert.ErrorIs(t, err, common.ErrUpstreamTimeout)

	list, err := svc.ListForAccount(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestGenerateTitles_LengthBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	gen := &fakeGenerator{titles: []string{"One", "Two"}}
	svc := NewTranscriptService(env.db, gen)

	_, err := svc.GenerateTitles(ctx, strings.Repeat("a", MinTitleTranscriptLength-1))
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 0, gen.calls)

	titles, err := svc.GenerateTitles(ctx, strings.Repeat("a", MinTitleTranscriptLength))
	require.NoError(t, err)
	assert.Equal(t, []string{"One", "Two"}, titles)
	assert.Equal(t, 1, gen.calls)
}

func TestListForAccount_NewestFirstAndScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.accounts.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)
	bob, err := env.accounts.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)

	svc := NewTranscriptService(env.db, &fakeGenerator{chapters: "00:00 Start"})

	first, err := svc.GenerateChapters(ctx, alice.ID, "first transcript text", "")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := svc.GenerateChapters(ctx, alice.ID, "second transcript text", "")
	require.NoError(t, err)
	_, err = svc.GenerateChapters(ctx, bob.ID, "bob transcript text", "")
	require.NoError(t, err)

	list, err := svc.ListForAccount(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDeleteForAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice, err := env.accounts.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)
	bob, err := env.accounts.Create(ctx, gofakeit.Email(), "hash", models.RoleUser)
	require.NoError(t, err)

	svc := NewTranscriptService(env.db, &fakeGenerator{chapters: "00:00 Start"})
	rec, err := svc.GenerateChapters(ctx, alice.ID, "alice transcript text", "")
	require.NoError(t, err)

	err = svc.DeleteForAccount(ctx, bob.ID, rec.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)

	err = svc.DeleteForAccount(ctx, alice.ID, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, svc.DeleteForAccount(ctx, alice.ID, rec.ID))
	list, err := svc.ListForAccount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}
