package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	storefront "github.com/MrEthical07/storefront"
	"github.com/MrEthical07/storefront/cms"
	"github.com/MrEthical07/storefront/commerce"
	"go.uber.org/zap"
)

type failure struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type okMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

const msgBadBody = "Invalid request body"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a bounded JSON body into dst. Unknown fields are ignored
// so older clients keep working.
func (h *handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, failure{Message: msgBadBody})
		return false
	}
	return true
}

// writeError maps an Engine error onto a status code and a safe message.
func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	status := statusFor(err)
	if status >= 500 {
		h.logger.Error("request failed",
			zap.String("request_id", RequestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeJSON(w, status, failure{Message: storefront.UserMessage(err)})
}

func statusFor(err error) int {
	var (
		re  *cms.RegistrationError
		cse *cms.StatusError
		gqe *commerce.GraphQLError
	)
	switch {
	case errors.Is(err, storefront.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storefront.ErrInvalidCredentials), errors.Is(err, storefront.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, storefront.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, storefront.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storefront.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.As(err, &re):
		if re.Status >= 400 && re.Status < 500 {
			return re.Status
		}
		if re.Status == 0 && re.Err != nil {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	case errors.Is(err, commerce.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &gqe):
		if gqe.Unauthorized() {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case errors.As(err, &cse):
		if cse.Code >= 400 && cse.Code < 500 {
			return cse.Code
		}
		return http.StatusBadGateway
	case errors.Is(err, storefront.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, storefront.ErrEngineNotReady):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
