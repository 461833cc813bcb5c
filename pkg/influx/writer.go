package influx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/galdor/go-ejson"
	"github.com/galdor/go-influx-write/pkg/utils"
	"github.com/galdor/go-log"
)

type WriterCfg struct {
	Log *log.Logger `json:"-"`

	URI       string    `json:"uri"`
	Org       string    `json:"org"`
	Bucket    string    `json:"bucket"`
	Token     string    `json:"token"`
	Precision Precision `json:"precision,omitempty"`
}

// Writer sends points to the write endpoint of an InfluxDB server, one
// request per call. It does not synchronize calls; callers sharing a writer
// between goroutines must use their own locking if the transport requires it.
type Writer struct {
	Cfg       WriterCfg
	Log       *log.Logger
	Transport Transport

	endpoint      *url.URL
	authorization Authorization
}

func (cfg *WriterCfg) ValidateJSON(v *ejson.Validator) {
	v.CheckStringURI("uri", cfg.URI)
	v.CheckStringNotEmpty("org", cfg.Org)
	v.CheckStringNotEmpty("bucket", cfg.Bucket)
	v.CheckStringNotEmpty("token", cfg.Token)

	if cfg.Precision != "" {
		v.Check("precision", cfg.Precision.IsValid(), "invalidPrecision",
			"precision must be one of \"ns\", \"us\", \"ms\" or \"s\"")
	}
}

func NewWriter(transport Transport, cfg WriterCfg) (*Writer, error) {
	if cfg.Log == nil {
		cfg.Log = log.DefaultLogger("influx")
	}

	if transport == nil {
		return nil, ErrMissingTransport
	}

	uri, err := utils.ParseHTTPURI(cfg.URI)
	if err != nil {
		return nil, &URLError{URI: cfg.URI, Err: err}
	}

	if cfg.Org == "" {
		return nil, fmt.Errorf("missing or empty org")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("missing or empty bucket")
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: missing or empty token",
			ErrInvalidAuthorization)
	}

	authorization, err := TokenAuthorization(cfg.Token)
	if err != nil {
		return nil, err
	}

	if cfg.Precision == "" {
		cfg.Precision = DefaultPrecision
	} else if !cfg.Precision.IsValid() {
		return nil, fmt.Errorf("invalid precision %q", cfg.Precision)
	}

	if uri.Scheme == "http" && !utils.IsLocalHost(uri.Hostname()) {
		cfg.Log.Info("sending credentials to %s over an unencrypted "+
			"connection", uri.Host)
	}

	w := &Writer{
		Cfg:       cfg,
		Log:       cfg.Log,
		Transport: transport,

		endpoint:      utils.URIMergePath(uri, WriteEndpointPath),
		authorization: authorization,
	}

	return w, nil
}

func (w *Writer) Endpoint() *url.URL {
	endpoint := *w.endpoint
	return &endpoint
}

func (w *Writer) NewRequest(points Points, precision Precision) (*Request, error) {
	if precision == "" {
		precision = w.Cfg.Precision
	}

	if !precision.IsValid() {
		return nil, fmt.Errorf("invalid precision %q", precision)
	}

	var body bytes.Buffer
	if err := EncodePoints(points, precision, &body); err != nil {
		return nil, err
	}

	uri := w.Endpoint()

	query := uri.Query()
	query.Set("org", w.Cfg.Org)
	query.Set("bucket", w.Cfg.Bucket)
	query.Set("precision", precision.String())
	uri.RawQuery = query.Encode()

	header := make(http.Header)
	header.Set("User-Agent", UserAgent)
	header.Set("Authorization", w.authorization.HeaderValue())
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Accept", "application/json")

	req := Request{
		Method: http.MethodPost,
		URL:    uri,
		Header: header,
		Body:   body.Bytes(),
	}

	return &req, nil
}

func (w *Writer) WritePoint(ctx context.Context, point *Point) error {
	return w.Write(ctx, Points{point})
}

func (w *Writer) WritePointWithPrecision(ctx context.Context, point *Point, precision Precision) error {
	return w.WriteWithPrecision(ctx, Points{point}, precision)
}

func (w *Writer) Write(ctx context.Context, points Points) error {
	return w.WriteWithPrecision(ctx, points, w.Cfg.Precision)
}

func (w *Writer) WriteWithPrecision(ctx context.Context, points Points, precision Precision) error {
	req, err := w.NewRequest(points, precision)
	if err != nil {
		return err
	}

	res, err := w.Transport.Execute(ctx, req)
	if err != nil {
		return &TransportError{Err: err}
	}

	if res == nil {
		return &TransportError{Err: errors.New("missing response")}
	}

	return CheckResponse(res)
}

// CheckResponse returns a *WriteError if the status code of the response is
// not in the 2xx range.
func CheckResponse(res *Response) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	return NewWriteError(res.StatusCode, res.Body)
}
