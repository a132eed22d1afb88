package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/chaptermark-be/internal/common"
	"github.com/isdelr/chaptermark-be/internal/database"
	"github.com/isdelr/chaptermark-be/internal/llm"
	"github.com/isdelr/chaptermark-be/internal/models"
)

// MinTitleTranscriptLength is the shortest transcript accepted for title
// generation, in characters.
const MinTitleTranscriptLength = 20

// TranscriptServiceProvider defines the interface for transcript services.
type TranscriptServiceProvider interface {
	GenerateChapters(ctx context.Context, accountID, transcript, format string) (models.Transcript, error)
	GenerateTitles(ctx context.Context, transcript string) ([]string, error)
	ListForAccount(ctx context.Context, accountID string) ([]models.Transcript, error)
	DeleteForAccount(ctx context.Context, accountID, id string) error
}

// TranscriptService generates chapters and keeps each caller's history.
type TranscriptService struct {
	db        *database.DB
	generator llm.Generator
}

// NewTranscriptService creates a new TranscriptService.
func NewTranscriptService(db *database.DB, generator llm.Generator) *TranscriptService {
	return &TranscriptService{db: db, generator: generator}
}

// GenerateChapters asks the generator for chapters and stores the result
// under accountID. Nothing is stored when generation fails.
func (s *TranscriptService) GenerateChapters(ctx context.Context, accountID, transcript, format string) (models.Transcript, error) {
	chapters, err := s.generator.GenerateChapters(ctx, transcript, format)
	if err != nil {
		return models.Transcript{}, err
	}

	rec := models.Transcript{
		ID:         uuid.New().String(),
		AccountID:  accountID,
		Transcript: transcript,
		Format:     format,
		Chapters:   chapters,
		CreatedAt:  time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		s.db.Rebind("INSERT INTO transcripts (id, account_id, transcript, format, chapters, created_at) VALUES (?, ?, ?, ?, ?, ?)"),
		rec.ID, rec.AccountID, rec.Transcript, rec.Format, rec.Chapters, rec.CreatedAt,
	)
	if err != nil {
		return models.Transcript{}, fmt.Errorf("failed to save transcript: %w", err)
	}
	return rec, nil
}

// GenerateTitles returns title suggestions. Titles are not persisted.
func (s *TranscriptService) GenerateTitles(ctx context.Context, transcript string) ([]string, error) {
	if len([]rune(transcript)) < MinTitleTranscriptLength {
		return nil, fmt.Errorf("%w: transcript must be at least %d characters", common.ErrValidation, MinTitleTranscriptLength)
	}
	return s.generator.GenerateTitles(ctx, transcript)
}

// ListForAccount returns the account's transcripts, newest first.
func (s *TranscriptService) ListForAccount(ctx context.Context, accountID string) ([]models.Transcript, error) {
	rows, err := s.db.QueryContext(ctx, s.db.Rebind(`
		SELECT id, account_id, transcript, format, chapters, created_at
		FROM transcripts WHERE account_id = ?
		ORDER BY created_at DESC`), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transcripts := []models.Transcript{}
	for rows.Next() {
		var t models.Transcript
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Transcript, &t.Format, &t.Chapters, &t.CreatedAt); err != nil {
			return nil, err
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, rows.Err()
}

// DeleteForAccount removes a transcript owned by accountID. A record that
// is absent and one owned by another account both yield common.ErrNotFound.
func (s *TranscriptService) DeleteForAccount(ctx context.Context, accountID, id string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM transcripts WHERE id = ? AND account_id = ?"), id, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
