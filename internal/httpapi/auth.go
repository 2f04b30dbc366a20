package httpapi

import (
	"net/http"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool `json:"success"`
	storefront.LoginResult
}

type registerResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    *session.User `json:"user"`
}

// me always answers 200; the body's success flag carries the outcome.
func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	res := h.engine.Me(r.Context(), session.NewHTTPCookieJar(w, r))
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	res, err := h.engine.Login(r.Context(), session.NewHTTPCookieJar(w, r), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, LoginResult: res})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	h.engine.Logout(r.Context(), session.NewHTTPCookieJar(w, r))
	writeJSON(w, http.StatusOK, okMessage{Success: true, Message: "Logged out successfully"})
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req cms.Registration
	if !h.decodeJSON(w, r, &req) {
		return
	}
	u, err := h.engine.Register(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{
		Success: true,
		Message: "Registration successful! You can now log in.",
		User:    u,
	})
}
