package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// crud is what a registry offers the generic handlers.
type crud[T any] interface {
	Create(ctx context.Context, rec T) (T, error)
	Get(ctx context.Context, key string) (T, error)
	List(ctx context.Context) ([]T, error)
	Update(ctx context.Context, key string, mutate func(*T) error) (T, error)
	Delete(ctx context.Context, key string) error
}

// registerCRUD mounts POST/GET on path and GET/PUT/DELETE on path/{key}.
func registerCRUD[T any](s *Server, path, key string, reg crud[T]) {
	item := path + "/{" + key + "}"

	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		var rec T
		if err := decodeBody(r, &rec); err != nil {
			s.respondErr(w, r, err)
			return
		}
		created, err := reg.Create(r.Context(), rec)
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, created)
	}).Methods("POST")

	s.router.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recs, err := reg.List(r.Context())
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		respondWithMeta(w, recs, &meta{Total: len(recs), QueryMs: since(start)})
	}).Methods("GET")

	s.router.HandleFunc(item, func(w http.ResponseWriter, r *http.Request) {
		rec, err := reg.Get(r.Context(), mux.Vars(r)[key])
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, rec)
	}).Methods("GET")

	// PUT merges the body over the stored record; the path key always wins.
	s.router.HandleFunc(item, func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.respondErr(w, r, invalidFormat("read body: %v", err))
			return
		}
		updated, err := reg.Update(r.Context(), mux.Vars(r)[key], func(rec *T) error {
			return decodeJSON(body, rec)
		})
		if err != nil {
			s.respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, updated)
	}).Methods("PUT")

	s.router.HandleFunc(item, func(w http.ResponseWriter, r *http.Request) {
		if err := reg.Delete(r.Context(), mux.Vars(r)[key]); err != nil {
			s.respondErr(w, r, err)
			return
		}
		respondNoContent(w)
	}).Methods("DELETE")
}
