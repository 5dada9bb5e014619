package connectivity

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct{ net.Conn }

func (fakeConn) Close() error { return nil }

func TestProberOnline(t *testing.T) {
	p := NewProber()
	p.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		assert.Equal(t, "tcp", network)
		assert.Equal(t, DefaultProbeAddr, addr)
		assert.Equal(t, DefaultProbeTimeout, timeout)
		return fakeConn{}, nil
	}

	assert.True(t, p.IsOnline())
}

func TestProberOffline(t *testing.T) {
	p := NewProber()
	p.dial = func(network, addr string, timeout time.Duration) (net.Conn, error) {
		return nil, errors.New("i/o timeout")
	}

	assert.False(t, p.IsOnline())
}

func TestNewProberForAddrDefaultsTimeout(t *testing.T) {
	p := NewProberForAddr("example.com:80", 0)
	assert.Equal(t, DefaultProbeTimeout, p.timeout)
}

func TestKeepAlivePing(t *testing.T) {
	alive := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer alive.Close()

	k := NewKeepAlive(map[string]string{
		"alive": alive.URL,
		"dead":  "http://127.0.0.1:1",
	}, time.Minute, nil)

	results := k.Ping(context.Background())
	require.Len(t, results, 2)

	byName := map[string]PingResult{}
	for _, r := range results {
		byName[r.Service] = r
	}

	assert.True(t, byName["alive"].Alive)
	assert.Equal(t, http.StatusOK, byName["alive"].StatusCode)
	assert.False(t, byName["dead"].Alive)
	assert.NotEmpty(t, byName["dead"].Error)
}

func TestKeepAliveStartStopIdempotent(t *testing.T) {
	k := NewKeepAlive(nil, time.Minute, nil)

	assert.False(t, k.Running())
	k.Start()
	k.Start()
	assert.True(t, k.Running())

	k.Stop()
	k.Stop()
	assert.False(t, k.Running())
}

func TestKeepAliveDefaults(t *testing.T) {
	k := NewKeepAlive(map[string]string{"a": "http://a", "b": "http://b"}, 0, nil)

	assert.Equal(t, 14*time.Minute, k.Interval())
	assert.ElementsMatch(t, []string{"a", "b"}, k.Services())
}
