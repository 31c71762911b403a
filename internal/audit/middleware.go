package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"dispensaryhub/internal/identity"
	"dispensaryhub/internal/observability"
)

// DefaultPayloadLimit caps the captured request body, matching the bound the
// audit table was sized for.
const DefaultPayloadLimit = 3000

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// payload is the snapshot stored with each event.
type payload struct {
	StatusCode int                 `json:"status_code"`
	Query      map[string][]string `json:"query"`
	Body       string              `json:"body"`
}

// Middleware records one audit event per mutating request, whatever the
// handler's outcome. The write happens after the handler returns, outside
// any domain transaction, and a failed write never fails the request.
func Middleware(sink Sink, payloadLimit int) func(http.Handler) http.Handler {
	if payloadLimit <= 0 {
		payloadLimit = DefaultPayloadLimit
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			// The body is consumed for the snapshot and replayed for the
			// handler.
			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
				r.Body = io.NopCloser(bytes.NewReader(body))
			}
			if len(body) > payloadLimit {
				body = body[:payloadLimit]
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			snapshot, err := json.Marshal(payload{
				StatusCode: ww.Status(),
				Query:      r.URL.Query(),
				Body:       string(body),
			})
			if err != nil {
				snapshot = []byte(`{}`)
			}

			event := Event{
				ActorType:  ActorTypeStaff,
				ActorID:    identity.ActorFromContext(r.Context()),
				EventType:  "HTTP_" + r.Method,
				EntityType: "endpoint",
				EntityID:   r.URL.Path,
				Payload:    snapshot,
			}
			if err := sink.Record(r.Context(), event); err != nil {
				observability.AuditFailures.Inc()
				slog.ErrorContext(r.Context(), "audit record failed",
					"path", r.URL.Path, "method", r.Method, "error", err)
			}
		})
	}
}
