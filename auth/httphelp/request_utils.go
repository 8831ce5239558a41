package httphelp

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
)

// maxRequestBodyBytes is way more than any credentials-check payload needs.
const maxRequestBodyBytes = 64 * 1024

func GetRequestBody(r *http.Request) ([]byte, error) {
	bodyBytes, err := ioutil.ReadAll(io.LimitReader(r.Body, maxRequestBodyBytes+1))
	r.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("Cannot read request body payload: %s", err)
	}

	if len(bodyBytes) > maxRequestBodyBytes {
		return nil, fmt.Errorf("Request body payload is too large")
	}

	return bodyBytes, nil
}

func GetJsonFromRequestBody(r *http.Request, out interface{}) error {
	bodyBytes, err := GetRequestBody(r)
	if err != nil {
		return err
	}

	err = json.Unmarshal(bodyBytes, out)
	if err != nil {
		return fmt.Errorf("Cannot understand request body payload (not JSON)")
	}

	return nil
}
