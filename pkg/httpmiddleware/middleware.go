// Package httpmiddleware contains the net/http middleware shared by the
// service's HTTP servers.
package httpmiddleware

import "net/http"

// Middleware wraps an http.Handler. It is compatible with chi.Router.Use.
type Middleware = func(http.Handler) http.Handler

// Wrap applies middlewares to h so that the first one listed sees the
// request first.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
