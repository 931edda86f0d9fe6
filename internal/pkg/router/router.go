package router

import (
	"net/http"
	"strings"
)

type Middleware func(http.Handler) http.Handler

// Router wraps http.ServeMux with a middleware chain. Middleware added with Use wraps the
// whole mux, middleware added with With wraps only the handlers registered through the
// returned router.
type Router struct {
	prefix     string
	mux        *http.ServeMux
	middleware []Middleware
	route      []Middleware
}

func New() *Router {
	return &Router{
		prefix: "",
		mux:    http.NewServeMux(),
	}
}

func (rt *Router) Use(mw ...Middleware) {
	rt.middleware = append(rt.middleware, mw...)
}

// With returns a router sharing the same mux whose handlers are wrapped in mw.
func (rt *Router) With(mw ...Middleware) *Router {
	route := make([]Middleware, 0, len(rt.route)+len(mw))
	route = append(route, rt.route...)
	route = append(route, mw...)

	return &Router{
		prefix: rt.prefix,
		mux:    rt.mux,
		route:  route,
	}
}

func (rt *Router) Handle(pattern string, handler http.Handler) {
	for i := len(rt.route) - 1; i >= 0; i-- {
		handler = rt.route[i](handler)
	}
	rt.mux.Handle(normalize(pattern), handler)
}

func (rt *Router) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	rt.Handle(pattern, http.HandlerFunc(handler))
}

func (rt *Router) SubRouter(prefix string) *Router {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		panic("empty subrouter prefix")
	}

	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	s := &Router{
		prefix:     prefix,
		mux:        http.NewServeMux(),
		middleware: rt.middleware,
	}

	rt.mux.Handle(prefix+"/", http.StripPrefix(prefix, s))
	return s
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var h http.Handler = rt.mux
	for i := len(rt.middleware) - 1; i >= 0; i-- {
		h = rt.middleware[i](h)
	}

	h.ServeHTTP(w, r)
}

// normalize makes sure the path part of a "[METHOD ]path" pattern starts with a slash.
func normalize(pattern string) string {
	method, path, ok := strings.Cut(pattern, " ")
	if !ok {
		path, method = pattern, ""
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if method == "" {
		return path
	}
	return method + " " + path
}
