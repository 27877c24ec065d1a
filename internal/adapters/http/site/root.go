// Package site serves the service index at the root path.
package site

import (
	"context"
	"net/http"
)

const indexFile = "/index.json"

// Register attaches the index to mux. Only the exact root matches so unknown
// paths still 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	files := http.FileServer(FS())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		r2 := r.Clone(r.Context())
		r2.URL.Path = indexFile
		files.ServeHTTP(w, r2)
	})
}
