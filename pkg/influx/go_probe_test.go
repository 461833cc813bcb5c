package influx

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/galdor/go-ejson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoProbeProbe(t *testing.T) {
	assert := assert.New(t)

	transport := &testTransport{}

	probe, err := NewGoProbe(GoProbeCfg{
		Writer: newTestWriter(t, transport),
		Tags:   map[string]string{"host": "test"},
	})
	require.NoError(t, err)

	now := time.Unix(1700000000, 0)
	require.NoError(t, probe.Probe(context.Background(), now))
	require.Len(t, transport.Requests, 1)

	lines := strings.Split(string(transport.Requests[0].Body), "\n")
	require.Len(t, lines, 2)

	assert.True(strings.HasPrefix(lines[0], "go_goroutines,host=test count="))
	assert.True(strings.HasSuffix(lines[0], "i 1700000000000000000"))

	assert.True(strings.HasPrefix(lines[1], "go_memory,host=test "))
	assert.Contains(lines[1], "gc_cpu_time_fraction=")
	assert.Contains(lines[1], "heap_alloc=")
	assert.Contains(lines[1], "nb_gcs=")
}

func TestGoProbeStartStop(t *testing.T) {
	assert := assert.New(t)

	var mu sync.Mutex
	var bodies []string

	transport := TransportFunc(func(ctx context.Context, req *Request) (*Response, error) {
		mu.Lock()
		bodies = append(bodies, string(req.Body))
		mu.Unlock()

		return &Response{StatusCode: 204}, nil
	})

	probe, err := NewGoProbe(GoProbeCfg{
		Writer: newTestWriter(t, transport),
	})
	require.NoError(t, err)

	assert.Equal(DefaultGoProbeInterval*time.Second, probe.interval)

	probe.Start()

	assert.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(bodies) > 0
	}, time.Second, 10*time.Millisecond)

	probe.Stop()

	mu.Lock()
	defer mu.Unlock()

	if assert.Len(bodies, 1) {
		assert.Contains(bodies[0], "go_goroutines count=")
	}
}

func TestGoProbeBreaker(t *testing.T) {
	assert := assert.New(t)

	transport := &testTransport{Err: errors.New("connection refused")}

	probe, err := NewGoProbe(GoProbeCfg{
		Writer: newTestWriter(t, transport),
	})
	require.NoError(t, err)

	probe.safeProbe()
	assert.Len(transport.Requests, 1)

	// The breaker is open, no write is attempted until the reset delay
	// expires.
	probe.safeProbe()
	assert.Len(transport.Requests, 1)
}

func TestGoProbeCfgValidation(t *testing.T) {
	assert := assert.New(t)

	var cfg GoProbeCfg
	err := ejson.Unmarshal([]byte(`{"interval": 0, "tags": {"host": "a"}}`),
		&cfg)
	if assert.NoError(err) {
		assert.Equal(map[string]string{"host": "a"}, cfg.Tags)
	}

	var cfg2 GoProbeCfg
	err = ejson.Unmarshal([]byte(`{"interval": -1}`), &cfg2)
	assert.Error(err)

	var cfg3 GoProbeCfg
	err = ejson.Unmarshal([]byte(`{"tags": {"host": ""}}`), &cfg3)
	assert.Error(err)

	_, err = NewGoProbe(GoProbeCfg{})
	assert.Error(err)
}
