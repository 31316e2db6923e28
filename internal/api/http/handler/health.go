package handler

import "net/http"

// Root handles GET / as a liveness probe.
func Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Alumni Connect Backend Running"))
}
