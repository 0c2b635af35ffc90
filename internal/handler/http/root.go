package http

import (
	"net/http"
	"os"

	"github.com/furnacestore/storefront/pkg/httputil"
)

// RootResponse is the body of GET /.
type RootResponse struct {
	Message string `json:"message"`
	Docs    string `json:"docs"`
}

// Root handles GET /
func Root(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, RootResponse{Message: "Welcome to the API!", Docs: "/api/docs"})
}

// StaticFiles serves dir under /static/. Directory listings are not exposed.
func StaticFiles(dir string) http.Handler {
	fs := http.FileServer(noListingFS{http.Dir(dir)})
	return http.StripPrefix("/static", fs)
}

type noListingFS struct {
	fs http.FileSystem
}

func (n noListingFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if stat.IsDir() {
		_ = f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
