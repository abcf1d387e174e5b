// Package dictionary serves the technical dictionary: word management,
// search, featured words and exports.
package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
	"github.com/techdict/backend/internal/store"
)

const (
	DefaultTopLookups = 3
	MaxTopLookups     = 50
	DefaultRecent     = 3
	MaxRecent         = 50

	exportPrefix = "exports/"
)

type WordStore interface {
	CreateWord(ctx context.Context, r store.CreateWordRequest) (models.Word, error)
	GetWord(ctx context.Context, id int64) (models.Word, error)
	ListWords(ctx context.Context, r store.ListWordsRequest) ([]models.Word, error)
	UpdateWord(ctx context.Context, r store.UpdateWordRequest) (models.Word, error)
	DeleteWord(ctx context.Context, id int64) error
	SearchWords(ctx context.Context, query string) ([]models.Word, error)
	RandomWord(ctx context.Context, status models.WordStatus) (models.Word, error)
	TopLookups(ctx context.Context, limit int) ([]models.Word, error)
	RecentWords(ctx context.Context, limit int) ([]models.Word, error)
	SuggestWord(ctx context.Context, r store.CreateWordRequest, description string) (models.Word, models.Request, error)
}

// LookupLog records search activity.
type LookupLog interface {
	RecordLookup(ctx context.Context, ev models.LookupEvent) error
}

// DailyPicks pins one word id per calendar day.
type DailyPicks interface {
	Get(ctx context.Context, day string) (int64, bool, error)
	Pin(ctx context.Context, day string, id int64, ttl time.Duration) (int64, error)
	Unpin(ctx context.Context, day string) error
}

type ExportStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, string, error)
}

type Config struct {
	TopLookupsTTL time.Duration
}

type Service struct {
	words   WordStore
	lookups LookupLog
	daily   DailyPicks
	exports ExportStore
	top     *ristretto.Cache[int, []models.Word]
	topTTL  time.Duration
	now     func() time.Time
}

func NewService(words WordStore, lookups LookupLog, daily DailyPicks, exports ExportStore, cfg Config) *Service {
	top, err := ristretto.NewCache(&ristretto.Config[int, []models.Word]{
		NumCounters:        MaxTopLookups * 10,
		MaxCost:            MaxTopLookups,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create top lookups cache: %v", err))
	}

	return &Service{
		words:   words,
		lookups: lookups,
		daily:   daily,
		exports: exports,
		top:     top,
		topTTL:  cfg.TopLookupsTTL,
		now:     time.Now,
	}
}

// Close releases the in-process cache.
func (s *Service) Close() {
	s.top.Close()
}

type WordRequest struct {
	Term          string `json:"term"`
	Class         string `json:"class"`
	Meaning       string `json:"meaning"`
	Pronunciation string `json:"pronunciation"`
	History       string `json:"history"`
	Example       string `json:"example"`
	Status        string `json:"status,omitempty"`
}

func (r WordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Term, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Class, validation.Required),
		validation.Field(&r.Meaning, validation.Required),
		validation.Field(&r.Pronunciation, validation.Required),
		validation.Field(&r.History, validation.Required),
		validation.Field(&r.Example, validation.Required),
		validation.Field(&r.Status, validation.In(string(models.WordActive), string(models.WordPending))),
	)
}

// normalize trims every field so whitespace-only input fails Required.
func (r WordRequest) normalize() WordRequest {
	return WordRequest{
		Term:          strings.TrimSpace(r.Term),
		Class:         strings.TrimSpace(r.Class),
		Meaning:       strings.TrimSpace(r.Meaning),
		Pronunciation: strings.TrimSpace(r.Pronunciation),
		History:       strings.TrimSpace(r.History),
		Example:       strings.TrimSpace(r.Example),
		Status:        strings.TrimSpace(r.Status),
	}
}

func (r WordRequest) fields() store.WordFields {
	return store.WordFields{
		Term:          r.Term,
		Class:         r.Class,
		Meaning:       r.Meaning,
		Pronunciation: r.Pronunciation,
		History:       r.History,
		Example:       r.Example,
	}
}

func wordNotFound(err error, id int64) error {
	return serr.NotFound(err, "word %d not found", id).With("word_id", strconv.FormatInt(id, 10))
}

func (s *Service) List(ctx context.Context, status string) ([]models.Word, error) {
	var r store.ListWordsRequest
	if status != "" {
		st, err := models.ParseWordStatus(status)
		if err != nil {
			return nil, serr.Validation(err, "%v", err)
		}
		r.Status = &st
	}

	words, err := s.words.ListWords(ctx, r)
	if err != nil {
		return nil, serr.Internal(err, "list words")
	}
	return nonNil(words), nil
}

func (s *Service) Get(ctx context.Context, id int64) (models.Word, error) {
	w, err := s.words.GetWord(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Word{}, wordNotFound(err, id)
		}
		return models.Word{}, serr.Internal(err, "get word")
	}
	return w, nil
}

// Add creates a word. Status defaults to Active.
func (s *Service) Add(ctx context.Context, r WordRequest) (models.Word, error) {
	r = r.normalize()
	if err := r.Validate(); err != nil {
		return models.Word{}, serr.Validation(err, "%v", err)
	}

	status := models.WordActive
	if r.Status != "" {
		status = models.WordStatus(r.Status)
	}

	w, err := s.words.CreateWord(ctx, store.CreateWordRequest{WordFields: r.fields(), Status: status})
	if err != nil {
		return models.Word{}, serr.Internal(err, "create word")
	}

	s.top.Clear()
	return w, nil
}

// Update replaces every field of a word. Status is kept when omitted.
func (s *Service) Update(ctx context.Context, id int64, r WordRequest) (models.Word, error) {
	r = r.normalize()
	if err := r.Validate(); err != nil {
		return models.Word{}, serr.Validation(err, "%v", err)
	}

	req := store.UpdateWordRequest{ID: id, WordFields: r.fields()}
	if r.Status != "" {
		st := models.WordStatus(r.Status)
		req.Status = &st
	}

	w, err := s.words.UpdateWord(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Word{}, wordNotFound(err, id)
		}
		return models.Word{}, serr.Internal(err, "update word")
	}

	s.top.Clear()
	return w, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.words.DeleteWord(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return wordNotFound(err, id)
		}
		return serr.Internal(err, "delete word")
	}

	s.top.Clear()
	return nil
}

type SearchRequest struct {
	Query   string
	Visitor string
}

// Search matches terms case-insensitively by substring. Every returned word
// has its lookup count incremented.
func (s *Service) Search(ctx context.Context, r SearchRequest) ([]models.Word, error) {
	q := strings.TrimSpace(r.Query)
	if q == "" {
		return nil, serr.Validation(nil, "search query is required")
	}

	words, err := s.words.SearchWords(ctx, q)
	if err != nil {
		return nil, serr.Internal(err, "search words")
	}

	err = s.lookups.RecordLookup(ctx, models.LookupEvent{
		Term:      q,
		Hits:      len(words),
		Visitor:   r.Visitor,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		slog.Warn("failed to record lookup", "term", q, "error", err)
	}

	return nonNil(words), nil
}

// WordOfTheDay returns a random Active word, pinned for the rest of the UTC
// day.
func (s *Service) WordOfTheDay(ctx context.Context) (models.Word, error) {
	now := s.now().UTC()
	day := now.Format(time.DateOnly)

	if w, ok := s.pinned(ctx, day); ok {
		return w, nil
	}

	w, err := s.words.RandomWord(ctx, models.WordActive)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Word{}, serr.NotFound(err, "dictionary has no active words")
		}
		return models.Word{}, serr.Internal(err, "pick word")
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	id, err := s.daily.Pin(ctx, day, w.ID, midnight.Sub(now))
	if err != nil {
		slog.Warn("failed to pin word of the day", "day", day, "error", err)
		return w, nil
	}
	if id != w.ID {
		if other, ok := s.pinned(ctx, day); ok {
			return other, nil
		}
	}
	return w, nil
}

// pinned returns the word pinned for day if it still exists and is Active.
// Stale pins are dropped.
func (s *Service) pinned(ctx context.Context, day string) (models.Word, bool) {
	id, ok, err := s.daily.Get(ctx, day)
	if err != nil {
		slog.Warn("failed to read word of the day", "day", day, "error", err)
		return models.Word{}, false
	}
	if !ok {
		return models.Word{}, false
	}

	w, err := s.words.GetWord(ctx, id)
	if err == nil && w.Status == models.WordActive {
		return w, true
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.Warn("failed to load word of the day", "word_id", id, "error", err)
		return models.Word{}, false
	}

	if err := s.daily.Unpin(ctx, day); err != nil {
		slog.Warn("failed to drop stale word of the day", "day", day, "error", err)
	}
	return models.Word{}, false
}

// TopLookups returns the n most looked up words. n defaults to 3.
func (s *Service) TopLookups(ctx context.Context, n int) ([]models.Word, error) {
	if n == 0 {
		n = DefaultTopLookups
	}
	if n < 1 || n > MaxTopLookups {
		return nil, serr.Validation(nil, "limit must be between 1 and %d", MaxTopLookups)
	}

	if words, ok := s.top.Get(n); ok {
		return words, nil
	}

	words, err := s.words.TopLookups(ctx, n)
	if err != nil {
		return nil, serr.Internal(err, "top lookups")
	}
	words = nonNil(words)

	if s.topTTL > 0 {
		s.top.SetWithTTL(n, words, 1, s.topTTL)
		s.top.Wait()
	}
	return words, nil
}

// RecentlyAdded returns the n newest words. n defaults to 3.
func (s *Service) RecentlyAdded(ctx context.Context, n int) ([]models.Word, error) {
	if n == 0 {
		n = DefaultRecent
	}
	if n < 1 || n > MaxRecent {
		return nil, serr.Validation(nil, "limit must be between 1 and %d", MaxRecent)
	}

	words, err := s.words.RecentWords(ctx, n)
	if err != nil {
		return nil, serr.Internal(err, "recent words")
	}
	return nonNil(words), nil
}

type SuggestRequest struct {
	WordRequest
	Description string `json:"description"`
}

type SuggestResponse struct {
	Word    models.Word    `json:"word"`
	Request models.Request `json:"request"`
}

// Suggest stores a user submitted word as Pending together with the New
// request an admin resolves by activating it.
func (s *Service) Suggest(ctx context.Context, r SuggestRequest) (SuggestResponse, error) {
	r.WordRequest = r.WordRequest.normalize()
	r.Status = ""
	if err := r.Validate(); err != nil {
		return SuggestResponse{}, serr.Validation(err, "%v", err)
	}

	w, req, err := s.words.SuggestWord(ctx, store.CreateWordRequest{WordFields: r.fields()}, r.Description)
	if err != nil {
		return SuggestResponse{}, serr.Internal(err, "suggest word")
	}
	return SuggestResponse{Word: w, Request: req}, nil
}

type ExportResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Export writes the whole dictionary as a JSON object and returns its key.
func (s *Service) Export(ctx context.Context) (ExportResponse, error) {
	words, err := s.words.ListWords(ctx, store.ListWordsRequest{})
	if err != nil {
		return ExportResponse{}, serr.Internal(err, "list words")
	}
	words = nonNil(words)

	data, err := json.Marshal(words)
	if err != nil {
		return ExportResponse{}, serr.Internal(err, "encode export")
	}

	key := fmt.Sprintf("words-%s-%s.json", s.now().UTC().Format(time.DateOnly), uuid.NewString())
	if err := s.exports.Upload(ctx, exportPrefix+key, data, "application/json"); err != nil {
		return ExportResponse{}, serr.Internal(err, "upload export")
	}

	slog.Info("dictionary exported", "key", key, "count", len(words))
	return ExportResponse{Key: key, Count: len(words)}, nil
}

// Download returns a previously exported object.
func (s *Service) Download(ctx context.Context, key string) ([]byte, string, error) {
	if key == "" || strings.ContainsAny(key, `/\"`) || strings.Contains(key, "..") {
		return nil, "", serr.Validation(nil, "invalid export key %q", key)
	}

	data, contentType, err := s.exports.Download(ctx, exportPrefix+key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", serr.NotFound(err, "export %s not found", key)
		}
		return nil, "", serr.Internal(err, "download export")
	}
	return data, contentType, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
