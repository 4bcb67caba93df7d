// internal/app/resources/resources.go
package resources

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
	"sync"

	"github.com/dalemusser/waffle/pantry/templates"
)

// Embed shared template files (page head/foot, badges).
//
//go:embed templates/*.gohtml
var sharedFS embed.FS

//go:embed assets/css/*.css
var assetsFS embed.FS

var registerOnce sync.Once

// LoadSharedTemplates registers shared templates with the waffle template engine.
// This must be called before templates.Boot() in BuildHandler.
func LoadSharedTemplates() {
	registerOnce.Do(func() {
		templates.Register(templates.Set{
			Name:     "shared",
			FS:       sharedFS,
			Patterns: []string{"templates/*.gohtml"},
		})
	})
}

// Assets returns the embedded assets filesystem rooted at assets/.
func Assets() fs.FS {
	sub, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic("failed to get assets subdirectory: " + err.Error())
	}
	return sub
}

// AssetsHandler serves embedded assets with prefix stripped from the path.
func AssetsHandler(prefix string) http.Handler {
	fileServer := http.FileServer(http.FS(Assets()))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, prefix)
		path = strings.TrimPrefix(path, "/")

		r.URL.Path = "/" + path
		w.Header().Set("Cache-Control", "public, max-age=3600")
		fileServer.ServeHTTP(w, r)
	})
}
