package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"BookShelf/pkg/kit"
)

const maxBodyBytes = 1 << 20

// Searcher proposes candidate records for a title query without touching
// the store.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Fields, error)
}

type searchBoxKey struct{}

// WithSearchBox tags ctx with the search box a query was typed into. Only
// searches from the same box supersede each other.
func WithSearchBox(ctx context.Context, box string) context.Context {
	return context.WithValue(ctx, searchBoxKey{}, box)
}

func SearchBox(ctx context.Context) string {
	box, _ := ctx.Value(searchBoxKey{}).(string)
	return box
}

type Server struct {
	Store  *Store
	Lookup Searcher
	Log    *zap.Logger

	// SearchLimit wraps GET /search when set.
	SearchLimit func(http.Handler) http.Handler
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Route("/books", func(br chi.Router) {
		br.Get("/", s.list)
		br.Post("/", s.add)
		br.Get("/{id}", s.get)
		br.Put("/{id}", s.update)
		br.Delete("/{id}", s.remove)
		br.Put("/{id}/cover-size", s.setCoverSize)
		br.Get("/{id}/cover", s.cover)
	})

	if s.SearchLimit != nil {
		r.With(s.SearchLimit).Get("/search", s.search)
	} else {
		r.Get("/search", s.search)
	}

	return r
}

type bookResp struct {
	Book
	CoverURL string `json:"cover_url"`
}

func toResp(b Book) bookResp {
	return bookResp{Book: b, CoverURL: b.CoverURL()}
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	books := s.Store.List()
	out := make([]bookResp, 0, len(books))
	for _, b := range books {
		out = append(out, toResp(b))
	}
	kit.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, ok := s.Store.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, toResp(b))
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var f Fields
	if err := decodeBody(w, r, &f); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	b, err := s.Store.Add(r.Context(), f)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	kit.WriteJSON(w, http.StatusCreated, toResp(b))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var f Fields
	if err := decodeBody(w, r, &f); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	b, err := s.Store.Update(r.Context(), id, f)
	if err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, toResp(b))
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.Store.Remove(r.Context(), id); err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type coverSizeReq struct {
	Size string `json:"size"`
}

func (s *Server) setCoverSize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req coverSizeReq
	if err := decodeBody(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}

	b, err := s.Store.SetCoverSize(r.Context(), id, CoverSize(req.Size))
	if err != nil {
		s.writeStoreError(w, r, err, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, toResp(b))
}

func (s *Server) cover(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, ok := s.Store.Get(id)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	size := b.CoverSize
	if q := r.URL.Query().Get("size"); q != "" {
		cs, ok := ParseCoverSize(q)
		if !ok {
			kit.WriteError(w, r, http.StatusBadRequest, "bad size", map[string]any{"size": q})
			return
		}
		size = cs
	}

	if strings.TrimSpace(string(b.CoverID)) == "" {
		w.Header().Set("Content-Type", "image/svg+xml")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(PlaceholderSVG())
		return
	}
	http.Redirect(w, r, CoverURL(string(b.CoverID), size), http.StatusFound)
}

type candidateResp struct {
	Candidate Fields `json:"candidate"`
	CoverURL  string `json:"cover_url"`
}

type searchResp struct {
	Query   string          `json:"query"`
	Count   int             `json:"count"`
	Results []candidateResp `json:"results"`
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("title"))
	out := searchResp{Query: q, Results: []candidateResp{}}

	if q == "" || s.Lookup == nil {
		kit.WriteJSON(w, http.StatusOK, out)
		return
	}

	cands, err := s.Lookup.Search(WithSearchBox(r.Context(), searchBoxOf(r)), q)
	switch {
	case errors.Is(err, ErrStaleSearch):
		kit.WriteError(w, r, http.StatusConflict, "superseded", map[string]any{"query": q})
		return
	case err != nil:
		if s.Log != nil {
			s.Log.Warn("search failed", zap.Error(err), zap.String("query", q))
		}
		kit.WriteError(w, r, http.StatusBadGateway, "search failed", nil)
		return
	}

	for _, c := range cands {
		out.Results = append(out.Results, candidateResp{
			Candidate: c,
			CoverURL:  CoverURL(string(c.CoverID), CoverSmall),
		})
	}
	out.Count = len(out.Results)
	kit.WriteJSON(w, http.StatusOK, out)
}

// searchBoxOf identifies the caller's search box: the "box" query parameter
// when the client sends one, else the remote address.
func searchBoxOf(r *http.Request) string {
	if box := strings.TrimSpace(r.URL.Query().Get("box")); box != "" {
		return "box:" + box
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return "ip:" + host
	}
	return "ip:" + r.RemoteAddr
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error, id string) {
	switch {
	case errors.Is(err, ErrValidation):
		kit.WriteError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
	default:
		if s.Log != nil {
			s.Log.Error("store mutation failed", zap.Error(err), zap.String("id", id))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}
