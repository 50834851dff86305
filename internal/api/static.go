package api

import (
	"embed"
	"net/http"
)

//go:embed web/index.html
var webFS embed.FS

// index serves the single-page chat client at /.
func index(w http.ResponseWriter, _ *http.Request) {
	page, err := webFS.ReadFile("web/index.html")
	if err != nil {
		// Assets are embedded at compile time, this cannot happen at runtime.
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
