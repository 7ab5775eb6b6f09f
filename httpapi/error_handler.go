package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/SeanSung66/fullstack-langgraph-nextjs-agent/api"
)

//ErrorResponse represents an HTTP error. If the error is 409 Conflict, the DuplicateID field will be populated.
type ErrorResponse struct {
	Code        int    `json:"code"`
	Error       string `json:"error"`
	DuplicateID int64  `json:"duplicate_id,omitempty"`
}

//handleError returns a handlerResponse response for the given code
func handleError(code int, err error) *handlerResponse {
	return &handlerResponse{Code: code, Body: &ErrorResponse{Code: code, Error: http.StatusText(code)}, Err: err}
}

//notFoundHandler returns a 404 handlerResponse
func notFoundHandler(w http.ResponseWriter, r *http.Request) *handlerResponse {
	return handleError(http.StatusNotFound, errors.New("Could not find handler"))
}

//writeError writes an ErrorResponse directly. Handlers that bypass jsonMiddleware use it
func writeError(w http.ResponseWriter, code int, err error) {
	if err != nil {
		log.Println(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	e := json.NewEncoder(w)
	if err := e.Encode(&ErrorResponse{Code: code, Error: http.StatusText(code)}); err != nil {
		log.Println("Error writing error response:", err)
	}
}

//checkAPIError checks an api.Error and returns a handlerResponse for it, or nil if there was no error
func checkAPIError(err error) *handlerResponse {
	if err == nil {
		return nil
	}

	e, ok := err.(*api.Error)
	if !ok {
		return handleError(http.StatusInternalServerError, err)
	}

	if e.Type == api.ErrorTypeServer {
		return handleError(http.StatusInternalServerError, err)
	} else if e.Type == api.ErrorTypeUser {
		return handleError(http.StatusBadRequest, err)
	} else {
		return &handlerResponse{Code: http.StatusConflict, Body: &ErrorResponse{
			Code:        http.StatusConflict,
			Error:       http.StatusText(http.StatusConflict),
			DuplicateID: e.DuplicateID,
		}, Err: err}
	}
}
