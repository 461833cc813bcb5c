package utils

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/exp/slices"
)

func ParseAbsoluteURI(s string, schemes []string) (*url.URL, error) {
	if s == "" {
		return nil, fmt.Errorf("empty uri")
	}

	uri, err := url.Parse(s)
	if err != nil {
		return nil, err
	}

	if uri.Host == "" {
		return nil, fmt.Errorf("uri is not an absolute uri")
	}

	scheme := strings.ToLower(uri.Scheme)
	if !slices.Contains(schemes, scheme) {
		return nil, fmt.Errorf("invalid uri scheme %q", scheme)
	}

	return uri, nil
}

func ParseHTTPURI(s string) (*url.URL, error) {
	return ParseAbsoluteURI(s, []string{"http", "https"})
}

func URIMerge(base, ref *url.URL) *url.URL {
	uri := *base

	if ref.Scheme != "" {
		uri.Scheme = ref.Scheme
	}

	if ref.Host != "" {
		uri.Host = ref.Host
	}

	if ref.User != nil {
		uri.User = Ref(*ref.User)
	}

	if ref.Path != "" {
		uri.Path = path.Join(base.Path, ref.Path)
	}

	query := base.Query()
	for name, values := range ref.Query() {
		for _, value := range values {
			query.Add(name, value)
		}
	}
	uri.RawQuery = query.Encode()

	if ref.Fragment != "" {
		uri.Fragment = ref.Fragment
	}

	return &uri
}

func URIMergePath(uri *url.URL, uriPath string) *url.URL {
	return URIMerge(uri, &url.URL{Path: uriPath})
}
