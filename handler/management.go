package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/minhson226/qrcode-builder-v2/model"
	"github.com/minhson226/qrcode-builder-v2/storage"
	"github.com/minhson226/qrcode-builder-v2/utils"
)

// CreateQRRequest is the management payload for creating a code.
type CreateQRRequest struct {
	Type    string                 `json:"type"`              // "static" or "dynamic"
	Content string                 `json:"content,omitempty"` // destination for static codes
	Target  string                 `json:"target,omitempty"`  // initial destination for dynamic codes
	Name    string                 `json:"name,omitempty"`
	Folder  string                 `json:"folder,omitempty"`
	Design  map[string]interface{} `json:"design,omitempty"`
}

// UpdateQRRequest is the management payload for metadata updates.
type UpdateQRRequest struct {
	Name   string                 `json:"name,omitempty"`
	Folder string                 `json:"folder,omitempty"`
	Design map[string]interface{} `json:"design,omitempty"`
}

// UpdateTargetRequest rewrites a dynamic code's destination and expiry.
type UpdateTargetRequest struct {
	Target    string `json:"target,omitempty"`
	ExpiresAt string `json:"expiresAt,omitempty"` // RFC3339; "none" clears the expiry
}

// SetPasswordRequest carries the plaintext to be hashed and stored. The
// plaintext itself is never persisted.
type SetPasswordRequest struct {
	Password string `json:"password"`
}

// QRResponse is the management view of a record. The password hash is never
// exposed, only whether a gate exists.
type QRResponse struct {
	ID                string                 `json:"id"`
	Code              string                 `json:"code"`
	Type              string                 `json:"type"`
	Content           string                 `json:"content,omitempty"`
	Target            string                 `json:"target,omitempty"`
	PasswordProtected bool                   `json:"passwordProtected"`
	ExpiresAt         *time.Time             `json:"expiresAt,omitempty"`
	Name              string                 `json:"name,omitempty"`
	Folder            string                 `json:"folder,omitempty"`
	Design            map[string]interface{} `json:"design,omitempty"`
	CreatedAt         time.Time              `json:"createdAt"`
	ResolveURL        string                 `json:"resolveURL"`
	ImageURL          string                 `json:"imageURL"`
}

func (h *QRHandler) toResponse(qr model.QRCode) QRResponse {
	resp := QRResponse{
		ID:                qr.ID,
		Code:              qr.Code,
		Type:              string(qr.Type),
		Content:           qr.Content,
		Target:            qr.Target,
		PasswordProtected: qr.Protected(),
		Name:              qr.Name,
		Folder:            qr.Folder,
		Design:            qr.Design,
		CreatedAt:         qr.CreatedAt,
		ResolveURL:        fmt.Sprintf("%s/r/%s", h.baseURL, qr.Code),
		ImageURL:          fmt.Sprintf("%s/api/qr/%s/image", h.baseURL, qr.ID),
	}
	if !qr.ExpiresAt.IsZero() {
		expiresAt := qr.ExpiresAt
		resp.ExpiresAt = &expiresAt
	}
	return resp
}

// CreateQR handles POST /api/qr
func (h *QRHandler) CreateQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input CreateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		log.Error().Err(err).Msg("Failed to decode create request")
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	qrType := model.QRType(input.Type)
	if qrType != model.QRTypeStatic && qrType != model.QRTypeDynamic {
		SendJSONError(w, http.StatusBadRequest, errors.New("invalid type"), "Type must be static or dynamic")
		return
	}

	// Static codes need their destination up front since it is immutable;
	// dynamic codes may start without a target.
	if qrType == model.QRTypeStatic {
		if err := utils.ValidateTargetURL(input.Content); err != nil {
			log.Warn().Err(err).Str("content", input.Content).Msg("Invalid static content")
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
	} else if input.Target != "" {
		if err := utils.ValidateTargetURL(input.Target); err != nil {
			log.Warn().Err(err).Str("target", input.Target).Msg("Invalid target URL")
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
	}

	code, err := h.generateUniqueCode(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to generate unique code")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to generate code")
		return
	}

	qr := model.QRCode{
		ID:        uuid.New().String(),
		Code:      code,
		Type:      qrType,
		Name:      input.Name,
		Folder:    input.Folder,
		Content:   input.Content,
		Target:    input.Target,
		Design:    input.Design,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.store.Save(ctx, qr); err != nil {
		log.Error().Err(err).Str("code", code).Msg("Failed to store QR record")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to store QR code")
		return
	}

	log.Info().
		Str("id", qr.ID).
		Str("code", qr.Code).
		Str("type", string(qr.Type)).
		Msg("QR code created")

	SendJSONSuccess(w, http.StatusCreated, h.toResponse(qr))
}

// GetQR handles GET /api/qr/{id}
func (h *QRHandler) GetQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	qr, err := h.store.GetByID(ctx, mux.Vars(r)["id"])
	if err == storage.ErrNotFound {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "")
		return
	} else if err != nil {
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to retrieve QR code")
		return
	}
	if !qr.Active {
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "")
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.toResponse(qr))
}

// ListQRs handles GET /api/qr?folder=&type=
func (h *QRHandler) ListQRs(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	query := r.URL.Query()
	qrs, err := h.store.List(ctx, query.Get("folder"), model.QRType(query.Get("type")))
	if err != nil {
		log.Error().Err(err).Msg("Failed to list QR codes")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to list QR codes")
		return
	}

	responses := make([]QRResponse, 0, len(qrs))
	for _, qr := range qrs {
		responses = append(responses, h.toResponse(qr))
	}
	SendJSONSuccess(w, http.StatusOK, responses)
}

// UpdateQR handles PUT /api/qr/{id}
func (h *QRHandler) UpdateQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	var input UpdateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	qr, err := h.store.UpdateMeta(ctx, mux.Vars(r)["id"], input.Name, input.Folder, input.Design)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	SendJSONSuccess(w, http.StatusOK, h.toResponse(qr))
}

// UpdateTarget handles PUT /api/qr/{id}/target
//
// Rewriting the target of a dynamic code never invalidates the code itself;
// the next scan resolves to the new destination.
func (h *QRHandler) UpdateTarget(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	var input UpdateTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}

	var qr model.QRCode
	var err error
	updated := false

	if input.Target != "" {
		if err := utils.ValidateTargetURL(input.Target); err != nil {
			SendJSONError(w, http.StatusBadRequest, err, "")
			return
		}
		qr, err = h.store.UpdateTarget(ctx, id, input.Target)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		updated = true
	}

	if input.ExpiresAt != "" {
		expiry := time.Time{}
		if input.ExpiresAt != "none" {
			expiry, err = time.Parse(time.RFC3339, input.ExpiresAt)
			if err != nil {
				SendJSONError(w, http.StatusBadRequest, err, "Invalid expiry time format (use RFC3339)")
				return
			}
		}
		qr, err = h.store.SetExpiry(ctx, id, expiry)
		if err != nil {
			h.writeStoreError(w, err)
			return
		}
		updated = true
	}

	if !updated {
		SendJSONError(w, http.StatusBadRequest, errors.New("nothing to update"), "Provide target and/or expiresAt")
		return
	}

	h.cache.Delete(qr.Code)

	log.Info().
		Str("id", id).
		Str("code", qr.Code).
		Msg("Target updated")

	SendJSONSuccess(w, http.StatusOK, h.toResponse(qr))
}

// SetPassword handles PUT /api/qr/{id}/password
func (h *QRHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	var input SetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		SendJSONError(w, http.StatusBadRequest, err, "Invalid request body")
		return
	}
	if input.Password == "" {
		SendJSONError(w, http.StatusBadRequest, errors.New("missing password"), "Password is required")
		return
	}

	// Only the salted hash is stored
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("Failed to hash password")
		SendJSONError(w, http.StatusInternalServerError, err, "Failed to set password")
		return
	}

	qr, err := h.store.SetPassword(ctx, id, string(hashed))
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.cache.Delete(qr.Code)

	log.Info().Str("id", id).Str("code", qr.Code).Msg("Password protection enabled")

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"id":          qr.ID,
		"isProtected": true,
	})
}

// RemovePassword handles DELETE /api/qr/{id}/password
func (h *QRHandler) RemovePassword(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	qr, err := h.store.RemovePassword(ctx, id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.cache.Delete(qr.Code)

	log.Info().Str("id", id).Str("code", qr.Code).Msg("Password protection removed")

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"id":          qr.ID,
		"isProtected": false,
	})
}

// DeleteQR handles DELETE /api/qr/{id}
//
// Deletion is logical: the record stays stored so scan history keeps its
// referent, but resolution treats the code as unknown from now on.
func (h *QRHandler) DeleteQR(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.opCtx(r)
	defer cancel()

	id := mux.Vars(r)["id"]

	qr, err := h.store.Deactivate(ctx, id)
	if err != nil {
		h.writeStoreError(w, err)
		return
	}

	h.cache.Delete(qr.Code)

	log.Info().Str("id", id).Str("code", qr.Code).Msg("QR code deactivated")

	SendJSONSuccess(w, http.StatusOK, map[string]interface{}{
		"id":      qr.ID,
		"deleted": true,
	})
}

// writeStoreError maps store failures to management statuses.
func (h *QRHandler) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		SendJSONError(w, http.StatusNotFound, errors.New("QR code not found"), "")
	case errors.Is(err, storage.ErrNotDynamic):
		SendJSONError(w, http.StatusBadRequest, err, "Only dynamic QR codes support this operation")
	default:
		log.Error().Err(err).Msg("Store operation failed")
		SendJSONError(w, http.StatusInternalServerError, err, "Storage failure")
	}
}
