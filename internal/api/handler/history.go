package handler

import (
	"net/http"
	"strconv"

	"github.com/dwporter/dwporter/internal/api/response"
	"github.com/dwporter/dwporter/internal/history"
)

// NewMigrationHistoryHandler lists persisted summaries of finished jobs,
// newest first. A nil store (history disabled) yields an empty list.
func NewMigrationHistoryHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			response.Collection(w, []history.JobSummary{}, 0)
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 500 {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
					"limit must be between 1 and 500", nil)
				return
			}
			limit = n
		}

		summaries, err := store.ListJobs(r.Context(), limit)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "HISTORY_UNAVAILABLE",
				"Failed to read migration history", nil)
			return
		}
		response.Collection(w, summaries, len(summaries))
	}
}
