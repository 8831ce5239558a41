package httphelp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matrix-org/gomatrix"
)

func RespondWithMatrixError(w http.ResponseWriter, httpStatusCode int, errorCode string, errorMessage string) {
	resp := gomatrix.RespError{
		Err:     errorMessage,
		ErrCode: errorCode,
	}

	RespondWithJSON(w, httpStatusCode, resp)
}

func RespondWithBytes(w http.ResponseWriter, httpStatusCode int, contentType string, payload []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(httpStatusCode)

	w.Write(payload)
}

func RespondWithJSON(w http.ResponseWriter, httpStatusCode int, responsePayload interface{}) {
	responsePayloadBytes, err := json.Marshal(responsePayload)
	if err != nil {
		panic(fmt.Errorf("Could not create JSON response for: %#v", responsePayload))
	}

	RespondWithBytes(w, httpStatusCode, "application/json", responsePayloadBytes)
}
