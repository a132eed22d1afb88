package models

import "time"

// Transcript is a stored generation request and its result.
type Transcript struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"userId"`
	Transcript string    `json:"transcript"`
	Format     string    `json:"format"`
	Chapters   string    `json:"chapters"`
	CreatedAt  time.Time `json:"createdAt"`
}
