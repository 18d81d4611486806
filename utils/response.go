package utils

import (
	"encoding/json"
	"github.com/sirupsen/logrus"
	"io"
	"net/http"
)

type clientError struct {
	ID            string `json:"id,omitempty"`
	MessageToUser string `json:"messageToUser"`
	DeveloperInfo string `json:"developerInfo"`
	Err           string `json:"error"`
	StatusCode    int    `json:"statusCode"`
	IsClientError bool   `json:"isClientError"`
}

func ParseBody(body io.Reader, out interface{}) error {
	return json.NewDecoder(body).Decode(out)
}

func EncodeJSONBody(w io.Writer, data interface{}) error {
	return json.NewEncoder(w).Encode(data)
}

func RespondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if body != nil {
		if err := EncodeJSONBody(w, body); err != nil {
			logrus.Errorf("RespondJSON: failed to encode response err = %v", err)
		}
	}
}

func RespondError(w http.ResponseWriter, statusCode int, err error, messageToUser string) {
	logrus.Errorf("status: %d, message: %s, err: %+v ", statusCode, messageToUser, err)
	clientErr := clientError{
		MessageToUser: messageToUser,
		StatusCode:    statusCode,
		IsClientError: statusCode >= 400 && statusCode < 500,
	}
	if err != nil {
		clientErr.DeveloperInfo = err.Error()
		clientErr.Err = err.Error()
	}
	RespondJSON(w, statusCode, clientErr)
}
