package router

import (
	"log"
	"net/http"
	"strings"
	"time"
)

// --- ANSI color codes ---
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

// Router dispatches on METHOD:PATH with support for wildcard segments
// (e.g. /api/v1/batches/*), logging every request with status and timing.
type Router struct {
	routes map[string]HandlerFunc // key = METHOD:PATH
	paths  []string               // registration order, most specific first
}

func New() *Router {
	return &Router{routes: make(map[string]HandlerFunc)}
}

func (r *Router) register(method, path string, handler HandlerFunc) {
	key := method + ":" + path
	if _, dup := r.routes[key]; !dup && !containsPath(r.paths, path) {
		r.paths = append(r.paths, path)
	}
	r.routes[key] = handler
}

func containsPath(paths []string, path string) bool {
	for _, p := range paths {
		if p == path {
			return true
		}
	}
	return false
}

func (r *Router) GET(path string, handler HandlerFunc)  { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc) { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)  { r.register(http.MethodPut, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// ServeHTTP resolves exact routes first, then wildcard routes in
// registration order, so more specific patterns must be registered first.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	if h, ok := r.routes[req.Method+":"+req.URL.Path]; ok {
		h(lrw, req)
	} else if h, pathKnown := r.matchWildcard(req); h != nil {
		h(lrw, req)
	} else if pathKnown || containsPath(r.paths, req.URL.Path) {
		http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
	} else {
		http.Error(lrw, "Not Found", http.StatusNotFound)
	}

	duration := time.Since(start)
	log.Printf("%s[%s]%s %s%s%s %s %s%d%s %s(%v)%s",
		colorCyan, start.Format("2006-01-02 15:04:05"), colorReset,
		methodColor(req.Method), req.Method, colorReset,
		req.URL.Path,
		statusColor(lrw.statusCode), lrw.statusCode, colorReset,
		colorBlue, duration, colorReset,
	)
}

func (r *Router) matchWildcard(req *http.Request) (HandlerFunc, bool) {
	pathKnown := false
	for _, pattern := range r.paths {
		if !strings.Contains(pattern, "*") || !matchPattern(req.URL.Path, pattern) {
			continue
		}
		pathKnown = true
		if h, ok := r.routes[req.Method+":"+pattern]; ok {
			return h, true
		}
	}
	return nil, pathKnown
}

// matchPattern matches a path against a pattern where * matches exactly one
// segment, except a trailing * which matches one or more remaining segments.
func matchPattern(path, pattern string) bool {
	pathSegs := strings.Split(strings.Trim(path, "/"), "/")
	patternSegs := strings.Split(strings.Trim(pattern, "/"), "/")

	trailing := patternSegs[len(patternSegs)-1] == "*"
	if trailing {
		if len(pathSegs) < len(patternSegs) {
			return false
		}
	} else if len(pathSegs) != len(patternSegs) {
		return false
	}

	for i, seg := range patternSegs {
		if seg == "*" {
			continue
		}
		if pathSegs[i] != seg {
			return false
		}
	}
	return true
}

// Start runs the server until it fails. Callers that need graceful shutdown
// should wrap the Router in their own http.Server instead.
func (r *Router) Start(addr string) {
	log.Printf("🚀 Server started on %shttp://localhost%s%s", colorGreen, addr, colorReset)
	log.Fatal(http.ListenAndServe(addr, r))
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// --- Color helpers ---
func statusColor(code int) string {
	switch {
	case code >= 200 && code < 300:
		return colorGreen
	case code >= 300 && code < 400:
		return colorCyan
	case code >= 400 && code < 500:
		return colorYellow
	default:
		return colorRed
	}
}

func methodColor(method string) string {
	switch method {
	case http.MethodGet:
		return colorGreen
	case http.MethodPost:
		return colorBlue
	case http.MethodDelete:
		return colorRed
	default:
		return colorCyan
	}
}
