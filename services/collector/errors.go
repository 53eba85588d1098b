package collector

import (
	"encoding/json"
	"net/http"

	"homeclimate-go/errcode"
)

// APIError is the JSON body of every error response.
type APIError struct {
	Code       errcode.Code `json:"code"`
	Message    string       `json:"message"`
	StatusCode int          `json:"-"`
}

func (e APIError) Error() string { return "[" + string(e.Code) + "] " + e.Message }

func statusFor(c errcode.Code) int {
	switch c {
	case errcode.InvalidLocation, errcode.InvalidReading:
		return http.StatusBadRequest
	case errcode.NotFound, errcode.NoData:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// apiErrorFrom maps an error chain onto an APIError.
func apiErrorFrom(err error) APIError {
	c := errcode.Of(err)
	if c == errcode.Error {
		c = errcode.IOError
	}
	return APIError{Code: c, Message: err.Error(), StatusCode: statusFor(c)}
}

func respondWithError(w http.ResponseWriter, apiErr APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	if err := json.NewEncoder(w).Encode(apiErr); err != nil {
		log.Errorf("encode error response: %v", err)
	}
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Errorf("encode response: %v", err)
	}
}
