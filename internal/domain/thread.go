package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Anchor pins a thread to a range of file content at a specific revision.
// CapturedText is the literal text the range covered when the thread was
// opened.
type Anchor struct {
	Revision     string `json:"revision"`
	Range        Range  `json:"range"`
	CapturedText string `json:"capturedText"`
}

// Thread is a positioned comment conversation on a file.
type Thread struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Author    string    `json:"author,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	Resolved  bool      `json:"resolved"`
	Anchor    Anchor    `json:"anchor"`

	// CurrentRange is where the anchor sits after the most recent
	// relocation pass. It is nil before the first pass and when the
	// anchored content could not be found.
	CurrentRange *Range    `json:"currentRange,omitempty"`
	RelocatedAt  time.Time `json:"relocatedAt"`
}

// ThreadInput captures the information required to open a thread.
type ThreadInput struct {
	File         string
	Author       string
	Body         string
	Revision     string
	Range        Range
	CapturedText string
	CreatedAt    time.Time
}

// NewThread constructs a Thread with a deterministic ID.
func NewThread(input ThreadInput) Thread {
	return Thread{
		ID:        hashThread(input),
		File:      input.File,
		Author:    input.Author,
		Body:      input.Body,
		CreatedAt: input.CreatedAt,
		Anchor: Anchor{
			Revision:     input.Revision,
			Range:        input.Range,
			CapturedText: input.CapturedText,
		},
	}
}

func hashThread(input ThreadInput) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
		input.File,
		input.Revision,
		input.Range.Key(),
		input.Author,
		input.Body,
		input.CreatedAt.Unix(),
	)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}
