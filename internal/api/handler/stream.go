package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/migration"
)

// NewStreamMigrationHandler serves job progress as server-sent events. One
// frame per poll interval; the stream ends after the final frame, after the
// job disappears, or when the client goes away. Unknown ids still get a
// stream, carrying a single error frame, so EventSource clients see a
// payload instead of a broken connection.
func NewStreamMigrationHandler(store *migration.Store, interval time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := jobIDFromRequest(w, r)
		if !ok {
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			response.Error(w, http.StatusInternalServerError, "STREAMING_UNSUPPORTED",
				"Response writer does not support streaming", nil)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for frame := range store.Stream(r.Context(), id, interval) {
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
