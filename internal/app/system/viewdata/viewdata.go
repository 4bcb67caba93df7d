// internal/app/system/viewdata/viewdata.go
package viewdata

import (
	"net/http"
	"sync"

	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/gorilla/csrf"
)

// DefaultSiteName is shown when no site name is configured.
const DefaultSiteName = "StrataGrades"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
//	data := dashboardData{
//	    BaseVM: viewdata.NewBaseVM(r, "Grades", "/"),
//	}
type BaseVM struct {
	SiteName string

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// CSRF token for forms (hidden input field)
	CSRFToken string
}

var (
	mu       sync.RWMutex
	siteName = DefaultSiteName
)

// Init sets the site name shown in the layout. Call once at startup.
func Init(name string) {
	mu.Lock()
	defer mu.Unlock()
	if name == "" {
		name = DefaultSiteName
	}
	siteName = name
}

// SiteName returns the configured site name.
func SiteName() string {
	mu.RLock()
	defer mu.RUnlock()
	return siteName
}

// NewBaseVM creates a populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	return BaseVM{
		SiteName:    SiteName(),
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		CSRFToken:   csrf.Token(r),
	}
}
