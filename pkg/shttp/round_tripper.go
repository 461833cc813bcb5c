package shttp

import (
	"net/http"
	"strconv"
	"time"

	"github.com/galdor/go-influx-write/pkg/utils"
	"github.com/galdor/go-log"
)

// RoundTripper adds the static headers of the client configuration to each
// request and optionally logs requests once the response has been received.
type RoundTripper struct {
	Cfg *ClientCfg
	Log *log.Logger

	http.RoundTripper
}

func NewRoundTripper(rt http.RoundTripper, cfg *ClientCfg) *RoundTripper {
	return &RoundTripper{
		Cfg: cfg,
		Log: cfg.Log,

		RoundTripper: rt,
	}
}

func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	req = rt.finalizeReq(req)

	res, err := rt.RoundTripper.RoundTrip(req)

	if rt.Cfg.LogRequests {
		rt.logRequest(req, res, time.Since(start).Seconds())
	}

	return res, err
}

func (rt *RoundTripper) finalizeReq(req *http.Request) *http.Request {
	if len(rt.Cfg.Header) == 0 {
		return req
	}

	// Round trippers must not modify the original request.
	req = req.Clone(req.Context())

	for name, values := range rt.Cfg.Header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}

	return req
}

func (rt *RoundTripper) logRequest(req *http.Request, res *http.Response, seconds float64) {
	var statusString string
	if res == nil {
		statusString = "-"
	} else {
		statusString = strconv.Itoa(res.StatusCode)
	}

	rt.Log.Info("%s %s %s %s", req.Method, req.URL.Redacted(), statusString,
		utils.FormatSeconds(seconds, 1))
}
