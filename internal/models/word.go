package models

import (
	"fmt"
	"time"
)

type WordStatus string

const (
	WordActive  WordStatus = "Active"
	WordPending WordStatus = "Pending"
)

func ParseWordStatus(s string) (WordStatus, error) {
	switch WordStatus(s) {
	case WordActive, WordPending:
		return WordStatus(s), nil
	}
	return "", fmt.Errorf("unknown word status %q", s)
}

// Word is a dictionary term.
type Word struct {
	ID            int64      `json:"id"`
	Term          string     `json:"term"`
	Class         string     `json:"class"`
	Meaning       string     `json:"meaning"`
	Pronunciation string     `json:"pronunciation"`
	History       string     `json:"history"`
	Example       string     `json:"example"`
	Status        WordStatus `json:"status"`
	LookupCount   int64      `json:"lookup_count"`
	AddedAt       time.Time  `json:"added_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
