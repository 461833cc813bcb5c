package influx

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	Version = "0.1.0"

	WriteEndpointPath = "/api/v2/write"

	UserAgent = "go-influx-write/" + Version
)

var (
	ErrMissingField         = errors.New("points must contain at least one field")
	ErrMissingTransport     = errors.New("missing transport")
	ErrInvalidAuthorization = errors.New("invalid authorization")
	ErrTimeConversion       = errors.New("time conversion error")
	ErrInvalidCharacter     = errors.New("invalid character")
)

type TimeConversionError struct {
	Time      time.Time
	Precision Precision
}

func (err *TimeConversionError) Error() string {
	return fmt.Sprintf("cannot represent %s with precision %q",
		err.Time.Format(time.RFC3339Nano), err.Precision)
}

func (err *TimeConversionError) Is(target error) bool {
	return target == ErrTimeConversion
}

type URLError struct {
	URI string
	Err error
}

func (err *URLError) Error() string {
	return fmt.Sprintf("invalid uri %q: %v", err.URI, err.Err)
}

func (err *URLError) Unwrap() error {
	return err.Err
}

type TransportError struct {
	Err error
}

func (err *TransportError) Error() string {
	return fmt.Sprintf("cannot send request: %v", err.Err)
}

func (err *TransportError) Unwrap() error {
	return err.Err
}

type WriteError struct {
	StatusCode int
	Body       string
}

func NewWriteError(status int, body []byte) *WriteError {
	return &WriteError{
		StatusCode: status,
		Body:       responseBodyString(body),
	}
}

func (err *WriteError) Error() string {
	body := err.Body

	// Influx can send incredibly long error messages, sometimes including the
	// entire payload received.
	if len(body) > 200 {
		end := 200
		for end > 0 && !utf8.RuneStart(body[end]) {
			end--
		}

		body = body[:end] + " [truncated]"
	}

	if body == "" {
		return fmt.Sprintf("request failed with status %d", err.StatusCode)
	}

	return fmt.Sprintf("request failed with status %d (%s)",
		err.StatusCode, body)
}

func responseBodyString(data []byte) string {
	if !utf8.Valid(data) {
		return fmt.Sprintf("<%d bytes, invalid utf-8>", len(data))
	}

	return string(data)
}
