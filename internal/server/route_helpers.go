package server

import (
	"net/http"
	"strings"
)

// MethodRouter maps HTTP methods to handlers for one route.
type MethodRouter map[string]http.HandlerFunc

// RouteByMethod dispatches on the request method, answering 405 with an
// Allow header when the method has no handler.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		allowed := make([]string, 0, len(routes))
		for method := range routes {
			allowed = append(allowed, method)
		}
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}
