package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/username/perfolio/src/logger"
	"github.com/username/perfolio/src/security/validation"
	"github.com/username/perfolio/src/services"
	"github.com/username/perfolio/src/utils"
)

const maxJSONBodyBytes = 1 << 20

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", services.ErrInvalidRequest, err)
	}
	return nil
}

// sendServiceError maps service sentinels to a status code. Unknown errors are
// logged and hidden from the client.
func sendServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	log := logger.FromContext(r.Context())
	switch {
	case errors.Is(err, services.ErrInvalidRequest),
		errors.Is(err, services.ErrParsingFailed),
		errors.Is(err, validation.ErrUnsupportedFile):
		log.Warn("Rejected request", "action", action, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrNoHoldings), errors.Is(err, services.ErrNoData):
		log.Info("No data for request", "action", action, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusNotFound)
	default:
		log.Error("Internal error handling request", "action", action, "error", err)
		utils.SendJSONError(w, fmt.Sprintf("An internal error occurred while %s. Please try again later.", action), http.StatusInternalServerError)
	}
}
