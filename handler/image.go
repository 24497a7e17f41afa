package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/minhson226/qrcode-builder-v2/storage"
)

// GenerateImage handles GET /api/qr/{id}/image - renders the scannable PNG.
// The image encodes the resolution URL, never the destination itself, so
// dynamic retargeting keeps printed codes valid.
func (h *QRHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	qr, err := h.store.GetByID(ctx, mux.Vars(r)["id"])
	if err == storage.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "")
		return
	} else if err != nil {
		log.Error().Err(err).Msg("Failed to fetch record for image")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to retrieve QR code")
		return
	}

	query := r.URL.Query()

	// Size parameter (default: 256, min: 128, max: 1024)
	size := 256
	if sizeStr := query.Get("size"); sizeStr != "" {
		parsedSize, err := strconv.Atoi(sizeStr)
		if err != nil {
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid size parameter"), "Size must be a number")
			return
		}
		if parsedSize < 128 || parsedSize > 1024 {
			SendJSONError(w, http.StatusBadRequest, errors.New("size out of range"), "Size must be between 128 and 1024")
			return
		}
		size = parsedSize
	}

	// Error correction level (default: medium)
	level := qrcode.Medium
	if levelStr := query.Get("level"); levelStr != "" {
		switch levelStr {
		case "low":
			level = qrcode.Low
		case "medium":
			level = qrcode.Medium
		case "high":
			level = qrcode.High
		case "highest":
			level = qrcode.Highest
		default:
			SendJSONError(w, http.StatusBadRequest, errors.New("invalid level parameter"), "Level must be: low, medium, high, or highest")
			return
		}
	}

	resolveURL := fmt.Sprintf("%s/r/%s", h.baseURL, qr.Code)

	png, err := qrcode.Encode(resolveURL, level, size)
	if err != nil {
		log.Error().Err(err).Str("url", resolveURL).Msg("Failed to render QR image")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to render QR image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))

	if _, err := w.Write(png); err != nil {
		log.Error().Err(err).Msg("Failed to write QR image response")
	}
}
