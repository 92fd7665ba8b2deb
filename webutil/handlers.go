package webutil

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
)

// AppHandler is a handler that reports failures by returning an error.
type AppHandler func(w http.ResponseWriter, r *http.Request) error

// MakeHandler adapts an AppHandler to http.HandlerFunc. HTTPErrors are sent
// with their own status and message; anything else becomes a generic 500 so
// internal detail never reaches the client.
func MakeHandler(logger logrus.FieldLogger, handler AppHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}

		statusCode := http.StatusInternalServerError
		publicMessage := msgInternalServer

		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			statusCode = httpErr.Code
			publicMessage = httpErr.Message
		}

		entry := logger.WithFields(logrus.Fields{
			"status": statusCode,
			"path":   r.URL.Path,
			"method": r.Method,
		})
		if httpErr == nil {
			entry = entry.WithError(err)
		} else if cause := httpErr.Unwrap(); cause != nil && cause.Error() != publicMessage {
			entry = entry.WithError(cause)
		}
		if statusCode >= http.StatusInternalServerError {
			entry.Error(publicMessage)
		} else {
			entry.Warn(publicMessage)
		}

		RespondWithMessage(w, statusCode, publicMessage)
	}
}
