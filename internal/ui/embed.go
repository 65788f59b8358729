// Package ui serves the embedded board page.
package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist/*
var distFS embed.FS

// Handler returns an http.Handler that serves the embedded board page (dist).
// Unknown paths fall back to index.html.
func Handler() http.Handler {
	sub, _ := fs.Sub(distFS, "dist")
	fileServer := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "" || path == "/" {
			path = "/index.html"
		}
		f, err := sub.Open(path[1:])
		if err != nil {
			http.ServeFileFS(w, r, sub, "index.html")
			return
		}
		_ = f.Close()
		fileServer.ServeHTTP(w, r)
	})
}
