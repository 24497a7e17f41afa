package handler

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/minhson226/qrcode-builder-v2/storage"
)

// GetQRAnalytics handles GET /api/qr/{id}/analytics?range=
//
// range is a named token (last_7d, last_30d, last_90d, last_year); anything
// else falls back to the configured default window.
func (h *QRHandler) GetQRAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	// The code must exist, even if it has never been scanned
	if _, err := h.store.GetByID(ctx, id); err == storage.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "")
		return
	} else if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to retrieve QR code")
		return
	}

	summary, err := h.aggregator.Summarize(ctx, id, r.URL.Query().Get("range"))
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("Failed to aggregate scans")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to aggregate analytics")
		return
	}

	SendJSONSuccess(w, http.StatusOK, summary)
}
