package main

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgallion1/companyapi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, config.LogConfig{Level: "warn", Format: config.LogFormatJSON})
	log.Info("hidden")
	log.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	log = newLogger(&buf, config.LogConfig{Level: "debug", Format: config.LogFormatText})
	log.Debug("text line")
	assert.Contains(t, buf.String(), "msg=\"text line\"")
	assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
}

func upstream(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/7.xml" {
			w.Write([]byte(`<company id="7"><name>Acme</name></company>`))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGetCommand(t *testing.T) {
	up := upstream(t)
	t.Setenv("COMPANYAPI_UPSTREAM_BASE_URL", up.URL)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"get", "7"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "{\"company\":{\"@_id\":7,\"name\":\"Acme\"}}\n", out.String())
}

func TestGetCommandNotFound(t *testing.T) {
	up := upstream(t)
	t.Setenv("COMPANYAPI_UPSTREAM_BASE_URL", up.URL)

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"get", "99"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.JSONEq(t, `{"error":"Company with ID 99 not found"}`, out.String())
}

func TestInvalidConfigRejected(t *testing.T) {
	t.Setenv("COMPANYAPI_UPSTREAM_BASE_URL", "ftp://example.com")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"get", "1"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestNewAppMetricsToggle(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	cfg := config.Config{Upstream: config.UpstreamConfig{BaseURL: "http://example.com"}}

	a := newApp(cfg, log)
	defer a.Close()
	assert.Nil(t, a.metrics)
	assert.NotNil(t, a.stats)

	cfg.Metrics.Enabled = true
	b := newApp(cfg, log)
	defer b.Close()
	assert.NotNil(t, b.metrics)
}
