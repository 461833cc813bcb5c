package test

import (
	"github.com/galdor/go-uuid"
)

// RandomName returns a unique name, used for organizations, buckets and
// measurements in tests.
func RandomName(prefix, suffix string) string {
	var name string

	if prefix != "" {
		name += prefix + "-"
	}

	name += uuid.MustGenerate(uuid.V7).String()

	if suffix != "" {
		name += "-" + suffix
	}

	return name
}
