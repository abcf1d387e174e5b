package dictionary

import (
	"context"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/techdict/backend/internal/httpx"
	"github.com/techdict/backend/internal/models"
)

type dictionaryService interface {
	List(ctx context.Context, status string) ([]models.Word, error)
	Get(ctx context.Context, id int64) (models.Word, error)
	Add(ctx context.Context, r WordRequest) (models.Word, error)
	Update(ctx context.Context, id int64, r WordRequest) (models.Word, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, r SearchRequest) ([]models.Word, error)
	WordOfTheDay(ctx context.Context) (models.Word, error)
	TopLookups(ctx context.Context, n int) ([]models.Word, error)
	RecentlyAdded(ctx context.Context, n int) ([]models.Word, error)
	Suggest(ctx context.Context, r SuggestRequest) (SuggestResponse, error)
	Export(ctx context.Context) (ExportResponse, error)
	Download(ctx context.Context, key string) ([]byte, string, error)
}

type Handler struct {
	srv dictionaryService
}

func NewHandler(srv dictionaryService) *Handler {
	return &Handler{srv: srv}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	words, err := h.srv.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, words); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	word, err := h.srv.Get(r.Context(), id)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, word); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	var req WordRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	word, err := h.srv.Add(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, word); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	var req WordRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	word, err := h.srv.Update(r.Context(), id, req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, word); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := h.srv.Delete(r.Context(), id); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	httpx.WriteMessage(w, http.StatusOK, "word deleted")
}

// Search expects ?q=. The client address identifies the visitor in the
// lookup log.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	words, err := h.srv.Search(r.Context(), SearchRequest{
		Query:   r.URL.Query().Get("q"),
		Visitor: visitor(r),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, words); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) WordOfTheDay(w http.ResponseWriter, r *http.Request) {
	word, err := h.srv.WordOfTheDay(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, word); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) TopLookups(w http.ResponseWriter, r *http.Request) {
	n, err := httpx.QueryInt(r, "limit", DefaultTopLookups)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	words, err := h.srv.TopLookups(r.Context(), n)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, words); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) RecentlyAdded(w http.ResponseWriter, r *http.Request) {
	n, err := httpx.QueryInt(r, "limit", DefaultRecent)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	words, err := h.srv.RecentlyAdded(r.Context(), n)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusOK, words); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if err := httpx.ReadJSON(w, r, &req); err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	resp, err := h.srv.Suggest(r.Context(), req)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	resp, err := h.srv.Export(r.Context())
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if err := httpx.WriteJSON(w, http.StatusCreated, resp); err != nil {
		httpx.HandleErr(w, r, err)
	}
}

func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, contentType, err := h.srv.Download(r.Context(), key)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+key+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func visitor(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
