package server

import (
	"fmt"
	"html"
	"net/http"
	"sync"

	"github.com/desertthunder/anima/internal/callback"
)

// CallbackHandler accepts a single OAuth redirect from the browser, runs it
// through the callback flow, and hands the outcome to the waiting command.
//
// Only the first request is processed; repeats get a 400. Implements the
// [Handler] interface for registration with a [Router].
type CallbackHandler struct {
	flow       *callback.Flow
	resultChan chan callback.Outcome
	once       sync.Once
	hit        bool
	mu         sync.Mutex
}

// NewCallbackHandler wires a one-shot handler around the given flow.
func NewCallbackHandler(flow *callback.Flow) *CallbackHandler {
	return &CallbackHandler{
		flow:       flow,
		resultChan: make(chan callback.Outcome, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *CallbackHandler) Routes() []string {
	return []string{"/callback"}
}

// ServeHTTP runs the redirect through the flow and renders a page telling
// the user to return to the terminal.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.hit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.hit = true
	h.mu.Unlock()

	outcome := h.flow.Handle(r.Context(), callback.ParseQuery(r.URL.RawQuery))
	h.send(outcome)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	renderResultPage(w, outcome)
}

// send delivers the outcome exactly once and closes the channel.
func (h *CallbackHandler) send(outcome callback.Outcome) {
	h.once.Do(func() {
		h.resultChan <- outcome
		close(h.resultChan)
	})
}

// Result returns the channel the waiting command reads the outcome from.
//
// The channel receives exactly one outcome and is then closed.
func (h *CallbackHandler) Result() <-chan callback.Outcome {
	return h.resultChan
}

func renderResultPage(w http.ResponseWriter, outcome callback.Outcome) {
	title := "✓ All set"
	if outcome.Route == callback.RouteLogin {
		title = "Something went wrong"
	}

	detail := ""
	if outcome.Notice != "" {
		detail = fmt.Sprintf("<p class=\"notice\">%s</p>", html.EscapeString(outcome.Notice))
	}

	fmt.Fprintf(w, `
<!DOCTYPE html>
<html>
<head>
    <title>Ánima</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
               display: flex; align-items: center; justify-content: center; height: 100vh;
               margin: 0; background: #f5f3ff; }
        .container { text-align: center; background: white; padding: 2rem;
                     border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        h1 { color: #7c3aed; margin: 0 0 1rem 0; }
        p { color: #666; margin: 0; }
        .notice { margin-bottom: 1rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        %s
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`, html.EscapeString(title), detail)
}
