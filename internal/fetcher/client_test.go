package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeXML = `<company><name>Acme</name></company>`

func newUpstream(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_URLFor(t *testing.T) {
	c := New(Options{BaseURL: "https://example.com/xml-api/"})
	assert.Equal(t, "https://example.com/xml-api/1.xml", c.URLFor("1"))
	assert.Equal(t, "https://example.com/xml-api/a b.xml", c.URLFor("a b"))
	assert.Equal(t, "https://example.com/xml-api", c.BaseURL())
}

func TestClient_FetchSuccess(t *testing.T) {
	var gotPath, gotUA string
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(acmeXML))
	})

	c := New(Options{BaseURL: srv.URL + "/xml-api"})
	body, err := c.Fetch(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, acmeXML, string(body))
	assert.Equal(t, "/xml-api/42.xml", gotPath)
	assert.Equal(t, DefaultUserAgent, gotUA)
}

func TestClient_EmptyIdentifierMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	c := New(Options{BaseURL: srv.URL})
	_, err := c.Fetch(context.Background(), "")
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, KindInvalidInput, Kind(err))
	assert.Zero(t, hits.Load())
}

func TestClient_UpstreamStatus(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden} {
		srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		})
		c := New(Options{BaseURL: srv.URL})

		_, err := c.Fetch(context.Background(), "1")
		var upstreamErr *UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, code, upstreamErr.StatusCode)
		assert.Equal(t, srv.URL+"/1.xml", upstreamErr.URL)
		assert.Equal(t, KindUpstreamStatus, Kind(err))
		assert.Equal(t, code == http.StatusNotFound, IsNotFound(err))
	}
}

func TestClient_RedirectWithoutLocationIsUpstreamError(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	})
	c := New(Options{BaseURL: srv.URL})

	_, err := c.Fetch(context.Background(), "1")
	var upstreamErr *UpstreamError
	require.ErrorAs(t, err, &upstreamErr)
	assert.Equal(t, http.StatusFound, upstreamErr.StatusCode)
}

func TestClient_FollowsRelativeAndAbsoluteRedirects(t *testing.T) {
	target := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/final/1.xml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(acmeXML))
	})
	origin := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/1.xml":
			http.Redirect(w, r, "/moved/1.xml", http.StatusMovedPermanently)
		case "/moved/1.xml":
			http.Redirect(w, r, target.URL+"/final/1.xml", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	})

	c := New(Options{BaseURL: origin.URL})
	body, err := c.Fetch(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, acmeXML, string(body))
}

func TestClient_RedirectLoopIsBounded(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, r.URL.Path, http.StatusFound)
	})

	c := New(Options{BaseURL: srv.URL, MaxRedirects: 3})
	_, err := c.Fetch(context.Background(), "loop")
	require.ErrorIs(t, err, ErrRedirectLoop)
	assert.Equal(t, KindRedirectLoop, Kind(err))
	assert.Equal(t, int32(4), hits.Load())
}

func TestClient_DefaultRedirectLimit(t *testing.T) {
	var hits atomic.Int32
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Redirect(w, r, r.URL.Path, http.StatusTemporaryRedirect)
	})

	c := New(Options{BaseURL: srv.URL})
	_, err := c.Fetch(context.Background(), "loop")
	require.ErrorIs(t, err, ErrRedirectLoop)
	assert.Equal(t, int32(DefaultMaxRedirects+1), hits.Load())
}

func TestClient_TimeoutReleasesConnection(t *testing.T) {
	released := make(chan struct{})
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			close(released)
		case <-time.After(5 * time.Second):
		}
	})

	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := c.Fetch(context.Background(), "slow")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, KindTimeout, Kind(err))
	assert.Less(t, time.Since(start), 2*time.Second)

	select {
	case <-released:
	case <-time.After(2 * time.Second):
		t.Fatal("upstream connection was not released after timeout")
	}
}

func TestClient_TimeoutDuringBody(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<company>"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	})

	c := New(Options{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := c.Fetch(context.Background(), "slow-body")
	require.ErrorIs(t, err, ErrTimeout)
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(Options{BaseURL: base})
	_, err := c.Fetch(context.Background(), "1")
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, KindTransport, Kind(err))
	assert.Equal(t, base+"/1.xml", transportErr.URL)
}

func TestClient_CallerCancellationIsNotTimeout(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	c := New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	_, err := c.Fetch(ctx, "1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTimeout))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_BodyTooLarge(t *testing.T) {
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	})

	c := New(Options{BaseURL: srv.URL, MaxBodyBytes: 16})
	_, err := c.Fetch(context.Background(), "big")
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Equal(t, KindBodyTooLarge, Kind(err))
}

func TestClient_BinarySafeBody(t *testing.T) {
	payload := []byte{0x3c, 0x61, 0x3e, 0x00, 0xff, 0xfe, 0x3c, 0x2f, 0x61, 0x3e}
	srv := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	c := New(Options{BaseURL: srv.URL})
	body, err := c.Fetch(context.Background(), "bin")
	require.NoError(t, err)
	assert.Equal(t, payload, body)
}

func TestKind_Unknown(t *testing.T) {
	assert.Equal(t, KindOK, Kind(nil))
	assert.Equal(t, KindUnknown, Kind(errors.New("boom")))
}
