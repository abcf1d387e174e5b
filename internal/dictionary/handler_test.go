package dictionary

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techdict/backend/internal/models"
	"github.com/techdict/backend/internal/serr"
)

type mockDictionaryService struct {
	dictionaryService

	AddFunc          func(ctx context.Context, r WordRequest) (models.Word, error)
	GetFunc          func(ctx context.Context, id int64) (models.Word, error)
	DeleteFunc       func(ctx context.Context, id int64) error
	SearchFunc       func(ctx context.Context, r SearchRequest) ([]models.Word, error)
	TopLookupsFunc   func(ctx context.Context, n int) ([]models.Word, error)
	DownloadFunc     func(ctx context.Context, key string) ([]byte, string, error)
	WordOfTheDayFunc func(ctx context.Context) (models.Word, error)
}

func (m *mockDictionaryService) Add(ctx context.Context, r WordRequest) (models.Word, error) {
	return m.AddFunc(ctx, r)
}

func (m *mockDictionaryService) Get(ctx context.Context, id int64) (models.Word, error) {
	return m.GetFunc(ctx, id)
}

func (m *mockDictionaryService) Delete(ctx context.Context, id int64) error {
	return m.DeleteFunc(ctx, id)
}

func (m *mockDictionaryService) Search(ctx context.Context, r SearchRequest) ([]models.Word, error) {
	return m.SearchFunc(ctx, r)
}

func (m *mockDictionaryService) TopLookups(ctx context.Context, n int) ([]models.Word, error) {
	return m.TopLookupsFunc(ctx, n)
}

func (m *mockDictionaryService) Download(ctx context.Context, key string) ([]byte, string, error) {
	return m.DownloadFunc(ctx, key)
}

func (m *mockDictionaryService) WordOfTheDay(ctx context.Context) (models.Word, error) {
	return m.WordOfTheDayFunc(ctx)
}

func newTestRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/words", h.Add)
	r.Get("/words/{id}", h.Get)
	r.Delete("/words/{id}", h.Delete)
	r.Get("/search", h.Search)
	r.Get("/top-lookups", h.TopLookups)
	r.Get("/word-of-the-day", h.WordOfTheDay)
	r.Get("/exports/{key}", h.Download)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleAdd(t *testing.T) {
	h := NewHandler(&mockDictionaryService{
		AddFunc: func(ctx context.Context, r WordRequest) (models.Word, error) {
			return models.Word{ID: 1, Term: r.Term, Status: models.WordActive}, nil
		},
	})

	rec := send(newTestRouter(h), "POST", "/words", `{"term":"Mutex","class":"noun"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"Active"`)
}

func TestHandleGet_BadID(t *testing.T) {
	h := NewHandler(&mockDictionaryService{})

	rec := send(newTestRouter(h), "GET", "/words/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGet_NotFound(t *testing.T) {
	h := NewHandler(&mockDictionaryService{
		GetFunc: func(ctx context.Context, id int64) (models.Word, error) {
			return models.Word{}, serr.NotFound(nil, "word %d not found", id)
		},
	})

	rec := send(newTestRouter(h), "GET", "/words/12", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"word 12 not found"}`, rec.Body.String())
}

func TestHandleDelete(t *testing.T) {
	var got int64
	h := NewHandler(&mockDictionaryService{
		DeleteFunc: func(ctx context.Context, id int64) error {
			got = id
			return nil
		},
	})

	rec := send(newTestRouter(h), "DELETE", "/words/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(5), got)
	assert.JSONEq(t, `{"message":"word deleted"}`, rec.Body.String())
}

func TestHandleSearch(t *testing.T) {
	var got SearchRequest
	h := NewHandler(&mockDictionaryService{
		SearchFunc: func(ctx context.Context, r SearchRequest) ([]models.Word, error) {
			got = r
			return []models.Word{}, nil
		},
	})

	req := httptest.NewRequest("GET", "/search?q=mut", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	newTestRouter(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
	assert.Equal(t, "mut", got.Query)
	assert.Equal(t, "10.1.2.3", got.Visitor)
}

func TestHandleTopLookups_Limit(t *testing.T) {
	var got int
	h := NewHandler(&mockDictionaryService{
		TopLookupsFunc: func(ctx context.Context, n int) ([]models.Word, error) {
			got = n
			return []models.Word{}, nil
		},
	})
	router := newTestRouter(h)

	rec := send(router, "GET", "/top-lookups", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, DefaultTopLookups, got)

	rec = send(router, "GET", "/top-lookups?limit=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, got)

	rec = send(router, "GET", "/top-lookups?limit=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleWordOfTheDay_Empty(t *testing.T) {
	h := NewHandler(&mockDictionaryService{
		WordOfTheDayFunc: func(ctx context.Context) (models.Word, error) {
			return models.Word{}, serr.NotFound(nil, "dictionary has no active words")
		},
	})

	rec := send(newTestRouter(h), "GET", "/word-of-the-day", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleDownload(t *testing.T) {
	h := NewHandler(&mockDictionaryService{
		DownloadFunc: func(ctx context.Context, key string) ([]byte, string, error) {
			if key != "words-1.json" {
				return nil, "", serr.NotFound(nil, "export %s not found", key)
			}
			return []byte(`[]`), "application/json", nil
		},
	})
	router := newTestRouter(h)

	rec := send(router, "GET", "/exports/words-1.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "words-1.json")
	assert.Equal(t, "[]", rec.Body.String())

	rec = send(router, "GET", "/exports/other.json", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
