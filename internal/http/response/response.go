package response

import (
	"encoding/json"
	"net/http"
)

// ErrorMessage mirrors the public validation-error contract.
type ErrorMessage struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

type validationBody struct {
	ErrorsMessages []ErrorMessage `json:"errorsMessages"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Status writes a bare status code. Auth failures deliberately carry no body
// so the reason can't be probed.
func Status(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

func ValidationError(w http.ResponseWriter, messages ...ErrorMessage) {
	JSON(w, http.StatusBadRequest, validationBody{ErrorsMessages: messages})
}
