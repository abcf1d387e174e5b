package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techdict/backend/internal/serr"
)

func TestHandleErr_ServiceError(t *testing.T) {
	req := httptest.NewRequest("GET", "/words/9", nil)
	rec := httptest.NewRecorder()

	HandleErr(rec, req, fmt.Errorf("get: %w", serr.NotFound(nil, "word 9 not found")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"word 9 not found"}`, rec.Body.String())
}

func TestHandleErr_HidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest("GET", "/words", nil)
	rec := httptest.NewRecorder()

	HandleErr(rec, req, serr.Internal(errors.New("pq: password authentication failed"), "list words"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestHandleErr_ExposedInternal(t *testing.T) {
	req := httptest.NewRequest("POST", "/admins", nil)
	rec := httptest.NewRecorder()

	HandleErr(rec, req, serr.Internal(errors.New("smtp: 421"), "invitation saved but email delivery failed").Expose())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"invitation saved but email delivery failed"}`, rec.Body.String())
}

func TestHandleErr_PlainError(t *testing.T) {
	req := httptest.NewRequest("GET", "/words", nil)
	rec := httptest.NewRecorder()

	HandleErr(rec, req, errors.New("dial tcp: refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "refused")
}

func TestReadJSON(t *testing.T) {
	var out struct {
		Email string `json:"email"`
	}

	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@x.com"}`))
	require.NoError(t, ReadJSON(httptest.NewRecorder(), req, &out))
	assert.Equal(t, "a@x.com", out.Email)

	req = httptest.NewRequest("POST", "/", strings.NewReader(`{"email":`))
	err := ReadJSON(httptest.NewRecorder(), req, &out)
	assert.True(t, serr.Is(err, serr.KindValidation))
}

func TestIDParam(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/words/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := IDParam(r, "id")
		if err != nil {
			HandleErr(w, r, err)
			return
		}
		_ = WriteJSON(w, http.StatusOK, map[string]int64{"id": id})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/words/42", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":42}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/words/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/words/0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryInt(t *testing.T) {
	n, err := QueryInt(httptest.NewRequest("GET", "/top?limit=5", nil), "limit", 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = QueryInt(httptest.NewRequest("GET", "/top", nil), "limit", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = QueryInt(httptest.NewRequest("GET", "/top?limit=many", nil), "limit", 3)
	assert.True(t, serr.Is(err, serr.KindValidation))
}
