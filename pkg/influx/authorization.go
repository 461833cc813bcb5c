package influx

import (
	"fmt"

	"golang.org/x/net/http/httpguts"
)

type Authorization struct {
	headerValue string
}

func TokenAuthorization(token string) (Authorization, error) {
	value := "Token " + token

	if !httpguts.ValidHeaderFieldValue(value) {
		return Authorization{},
			fmt.Errorf("%w: token is not a valid header value",
				ErrInvalidAuthorization)
	}

	return Authorization{headerValue: value}, nil
}

func (a Authorization) HeaderValue() string {
	return a.headerValue
}

func (a Authorization) IsZero() bool {
	return a.headerValue == ""
}
