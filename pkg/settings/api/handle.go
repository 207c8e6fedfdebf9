package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-admin-auth/pkg/client"
	"github.com/tendant/simple-admin-auth/pkg/common"
	apperrors "github.com/tendant/simple-admin-auth/pkg/errors"
	"github.com/tendant/simple-admin-auth/pkg/settings"
	"github.com/tendant/simple-admin-auth/pkg/user"
)

const maxBodyBytes = 1 << 20

// AdminLookup resolves the authenticated admin
type AdminLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.AdminUser, error)
}

// Handler serves the plugin settings endpoints
type Handler struct {
	service *settings.Service
	admins  AdminLookup
}

func NewHandler(service *settings.Service, admins AdminLookup) *Handler {
	return &Handler{service: service, admins: admins}
}

// RegisterRoutes registers the settings routes.
// They must be mounted behind client.Verifier and client.AuthUserMiddleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/email-template", h.GetEmailTemplate)
	r.Put("/email-template", h.UpdateEmailTemplate)
	r.Get("/advanced", h.GetAdvancedSettings)
	r.Put("/advanced", h.UpdateAdvancedSettings)
	r.Get("/providers", h.GetProviders)
	r.Put("/providers", h.UpdateProviders)
	r.Get("/qr-code", h.GetQRCode)
}

type okResponse struct {
	OK bool `json:"ok"`
}

type qrCodeResponse struct {
	QRCode string `json:"qrCode"`
}

// GET /email-template
func (h *Handler) GetEmailTemplate(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.GetEmailTemplate(r.Context())
	if err != nil {
		slog.Error("Failed to get email templates", "err", err)
		common.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, templates)
}

// PUT /email-template
func (h *Handler) UpdateEmailTemplate(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.UpdateEmailTemplate)
}

// GET /advanced
func (h *Handler) GetAdvancedSettings(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.GetAdvancedSettings(r.Context())
	if err != nil {
		slog.Error("Failed to get advanced settings", "err", err)
		common.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, resp)
}

// PUT /advanced
func (h *Handler) UpdateAdvancedSettings(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.UpdateAdvancedSettings)
}

// GET /providers
func (h *Handler) GetProviders(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.GetProviders(r.Context())
	if err != nil {
		slog.Error("Failed to get providers", "err", err)
		common.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, providers)
}

// PUT /providers
func (h *Handler) UpdateProviders(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, h.service.UpdateProviders)
}

// GET /qr-code
func (h *Handler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	authUser, ok := client.GetAuthUser(r)
	if !ok {
		slog.Error("Failed getting AuthUser", "ok", ok)
		common.RenderError(w, r, apperrors.Unauthorized("Missing or invalid credentials"))
		return
	}

	admin, err := h.admins.GetByID(r.Context(), authUser.UserID)
	if err != nil {
		slog.Warn("Authenticated admin not found", "user", authUser, "err", err)
		common.RenderError(w, r, apperrors.Unauthorized("Missing or invalid credentials"))
		return
	}

	qrCode, err := h.service.GetQRCode(r.Context(), admin.Email)
	if err != nil {
		slog.Error("Failed to create QR code", "user", authUser, "err", err)
		common.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, qrCodeResponse{QRCode: qrCode})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request, apply func(context.Context, json.RawMessage) error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		slog.Error("Failed to read request body", "err", err)
		common.RenderError(w, r, apperrors.Validation("Request body cannot be empty"))
		return
	}

	if err := apply(r.Context(), json.RawMessage(body)); err != nil {
		common.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, okResponse{OK: true})
}
