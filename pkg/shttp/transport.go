package shttp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/galdor/go-influx-write/pkg/influx"
	"github.com/klauspost/compress/gzip"
)

// Execute sends a write request and reads the whole response body. It
// implements influx.Transport; a response with a non-2xx status is not an
// error here.
func (c *Client) Execute(ctx context.Context, req *influx.Request) (*influx.Response, error) {
	body := req.Body

	header := req.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}

	if c.Cfg.Compression && len(body) > 0 {
		data, err := gzipData(body)
		if err != nil {
			return nil, fmt.Errorf("cannot compress request body: %w", err)
		}

		body = data
		header.Set("Content-Encoding", "gzip")
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL.String(),
		bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("cannot create request: %w", err)
	}

	hreq.Header = header

	hres, err := c.Client.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hres.Body.Close()

	resBody, err := io.ReadAll(hres.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read response body: %w", err)
	}

	res := influx.Response{
		StatusCode: hres.StatusCode,
		Header:     hres.Header,
		Body:       resBody,
	}

	return &res, nil
}

func gzipData(data []byte) ([]byte, error) {
	var buf bytes.Buffer

	w := gzip.NewWriter(&buf)

	if _, err := w.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
