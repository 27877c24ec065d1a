package site

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/index.json
var staticFS embed.FS

// FS returns the embedded files rooted at static/.
func FS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}
