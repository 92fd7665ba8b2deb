package webutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is the failure side of DecodeAndValidate.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DecodeAndValidate decodes the JSON request body into dst and checks its
// `validate` struct tags. Any failure is returned as *ValidationError; an
// empty body wraps io.EOF.
func DecodeAndValidate(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return &ValidationError{Err: io.EOF}
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &ValidationError{Err: err}
	}
	if err := validate.Struct(dst); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
