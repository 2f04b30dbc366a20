package httpapi

import (
	"net/http"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/mail"
	"github.com/MrEthical07/storefront/middleware"
)

type contactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Simulated bool   `json:"simulated,omitempty"`
}

func (h *handlers) contact(w http.ResponseWriter, r *http.Request) {
	var msg mail.ContactMessage
	if !h.decodeJSON(w, r, &msg) {
		return
	}
	d, err := h.engine.Contact(r.Context(), msg)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{Success: true, Simulated: d.Simulated})
}

func (h *handlers) booking(w http.ResponseWriter, r *http.Request) {
	var req mail.BookingRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	d, err := h.engine.Booking(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, contactResponse{
		Success:   true,
		Message:   "Booking request received",
		Simulated: d.Simulated,
	})
}

func (h *handlers) dashboardStats(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, storefront.StatsFor(u))
}

func (h *handlers) securityReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.SecurityReport())
}
