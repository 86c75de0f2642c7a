package audit

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

// Middleware records every successful mutating call under /api/charts.
// Reads are not audited; a failed request leaves no entry.
func Middleware(store *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || !strings.HasPrefix(r.URL.Path, "/api/charts") {
				next.ServeHTTP(w, r)
				return
			}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if ww.Status() < 200 || ww.Status() >= 300 {
				return
			}
			entry := Entry{
				ActorType: ActorUser,
				Action:    actionFor(r.Method, r.URL.Path),
				ChartID:   chartIDFrom(r.URL.Path),
				Summary:   r.Method + " " + r.URL.Path,
			}
			if err := store.Log(r.Context(), entry); err != nil {
				log.Printf("[audit] recording %s %s: %v", r.Method, r.URL.Path, err)
			}
		})
	}
}

func actionFor(method, path string) Action {
	switch {
	case strings.HasSuffix(path, "/save"):
		return ActionChartSaved
	case strings.HasSuffix(path, "/duplicate") || strings.HasSuffix(path, "/bulk-duplicate"):
		return ActionChartDuplicated
	case strings.HasSuffix(path, "/bulk-delete") || method == http.MethodDelete:
		return ActionChartDeleted
	case method == http.MethodPost && strings.HasSuffix(path, "/charts"):
		return ActionChartCreated
	}
	return ActionChartUpdated
}

// chartIDFrom pulls the chart id out of /api/charts/{id}/... paths.
// Bulk endpoints have no single chart id and yield "".
func chartIDFrom(path string) string {
	rest := strings.TrimPrefix(path, "/api/charts")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" || strings.HasPrefix(rest, "bulk-") {
		return ""
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}
