package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/cart-tracker/internal/api/shared"
	"github.com/phrazzld/cart-tracker/internal/config"
	"github.com/phrazzld/cart-tracker/internal/platform/logger"
	"github.com/phrazzld/cart-tracker/internal/platform/metrics"
	"github.com/phrazzld/cart-tracker/internal/service"
)

// CartCookieName is the cookie carrying the cart identity between requests.
const CartCookieName = "cart_id"

// ItemHandler handles the item tracking endpoint.
type ItemHandler struct {
	intake       service.IntakeService
	cookie       config.CookieConfig
	maxBodyBytes int64
	logger       *slog.Logger
}

// NewItemHandler creates a new ItemHandler.
// If logger is nil, a default logger is used.
func NewItemHandler(
	intake service.IntakeService,
	cookie config.CookieConfig,
	maxBodyBytes int64,
	logger *slog.Logger,
) *ItemHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemHandler{
		intake:       intake,
		cookie:       cookie,
		maxBodyBytes: maxBodyBytes,
		logger:       logger.With("component", "item_handler"),
	}
}

// CreateItem handles POST /api/v1/item.
//
// The body is a JSON object with external_id (required), name, value and
// cart_id. Without a cart_id the cart_id cookie is used, and without either
// a new cart identity is minted. On success the queued item is echoed back
// and the resolved identity is set as the cart_id cookie.
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	w.Header().Set("Access-Control-Allow-Origin", "*")

	body, err := shared.ReadBody(w, r, h.maxBodyBytes)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	var cookieCartID *string
	if v, ok := shared.RawCookie(r, CartCookieName); ok {
		cookieCartID = &v
	}

	item, err := h.intake.Track(r.Context(), body, cookieCartID)
	if err != nil {
		h.reject(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    item.CartID,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
	})

	log.Debug("item tracked",
		"cart_id", item.CartID,
		"external_id", item.ExternalID)
	shared.RespondWithJSON(w, r, http.StatusOK, item)
}

// RejectGet handles GET /api/v1/item, which is not supported.
func (h *ItemHandler) RejectGet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	shared.RespondWithError(w, r, http.StatusMethodNotAllowed, ReasonGetNotAllowed)
}

func (h *ItemHandler) reject(w http.ResponseWriter, r *http.Request, err error) {
	status, reason := MapIntakeError(err)
	metrics.RecordRejected(rejectionLabel(err))
	shared.RespondWithErrorAndLog(w, r, status, reason, err)
}
