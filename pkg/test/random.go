package test

import (
	"strings"

	"github.com/galdor/go-uuid"
)

// RandomToken returns a value usable as an API token in tests.
func RandomToken() string {
	id := uuid.MustGenerate(uuid.V7).String()
	return strings.ReplaceAll(id, "-", "")
}
