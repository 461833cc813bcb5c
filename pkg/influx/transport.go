package influx

import (
	"context"
	"net/http"
	"net/url"
)

// Request is a description of an HTTP request, independent of the library
// used to send it.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport executes a request and returns the response. Non-2xx responses
// are not errors at this level.
type Transport interface {
	Execute(context.Context, *Request) (*Response, error)
}

type TransportFunc func(context.Context, *Request) (*Response, error)

func (fn TransportFunc) Execute(ctx context.Context, req *Request) (*Response, error) {
	return fn(ctx, req)
}

// AsyncTransport executes requests of the underlying transport in a separate
// goroutine. The caller waits for the result, or returns as soon as its
// context is done; in that case the request keeps running in the background
// and its result is discarded.
type AsyncTransport struct {
	Transport Transport
}

type transportResult struct {
	res *Response
	err error
}

func NewAsyncTransport(t Transport) *AsyncTransport {
	return &AsyncTransport{Transport: t}
}

func (t *AsyncTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	resultChan := make(chan transportResult, 1)

	go func() {
		res, err := t.Transport.Execute(ctx, req)
		resultChan <- transportResult{res: res, err: err}
	}()

	select {
	case result := <-resultChan:
		return result.res, result.err

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
