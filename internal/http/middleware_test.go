package httpx

import (
	"bytes"
	"compress/gzip"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, body)
	})
}

func compressed(t *testing.T, h http.Handler, method, acceptEncoding string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/jobs/stats", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func gunzip(t *testing.T, b []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestCompression(t *testing.T) {
	payload := `{"jobs":[` + strings.Repeat(`{"id":"job","final_price":130},`, 200) + `{}]}`

	tests := []struct {
		name           string
		acceptEncoding string
		method         string
		level          int
		wantGzip       bool
	}{
		{name: "gzip accepted", acceptEncoding: "gzip, deflate", method: http.MethodGet, level: 6, wantGzip: true},
		{name: "fastest level", acceptEncoding: "gzip", method: http.MethodGet, level: 1, wantGzip: true},
		{name: "out of range level falls back", acceptEncoding: "gzip", method: http.MethodGet, level: 42, wantGzip: true},
		{name: "gzip not offered", acceptEncoding: "deflate", method: http.MethodGet, level: 6},
		{name: "gzip refused with q=0", acceptEncoding: "gzip;q=0, deflate", method: http.MethodGet, level: 6},
		{name: "no header", method: http.MethodGet, level: 6},
		{name: "head request", acceptEncoding: "gzip", method: http.MethodHead, level: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Compression(CompressionConfig{Level: tt.level})(jsonHandler(payload))

			rec := compressed(t, h, tt.method, tt.acceptEncoding)

			require.Equal(t, http.StatusOK, rec.Code)
			if !tt.wantGzip {
				assert.Empty(t, rec.Header().Get("Content-Encoding"))
				if tt.method != http.MethodHead {
					assert.Equal(t, payload, rec.Body.String())
				}
				return
			}
			assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
			assert.Contains(t, rec.Header().Values("Vary"), "Accept-Encoding")
			assert.Less(t, rec.Body.Len(), len(payload))
			assert.Equal(t, payload, gunzip(t, rec.Body.Bytes()))
		})
	}
}

func TestCompression_SkipsShortBodies(t *testing.T) {
	h := Compression(CompressionConfig{Level: 6, MinSize: 1024})(jsonHandler(`{"status":"ok"}`))

	rec := compressed(t, h, http.MethodGet, "gzip")

	assert.Empty(t, rec.Header().Get("Content-Encoding"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCompression_SkipsIncompressibleResponses(t *testing.T) {
	t.Run("binary content type", func(t *testing.T) {
		h := Compression(CompressionConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(bytes.Repeat([]byte{0x89}, 4096))
		}))

		rec := compressed(t, h, http.MethodGet, "gzip")

		assert.Empty(t, rec.Header().Get("Content-Encoding"))
		assert.Equal(t, 4096, rec.Body.Len())
	})

	t.Run("no content", func(t *testing.T) {
		h := Compression(CompressionConfig{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		rec := compressed(t, h, http.MethodGet, "gzip")

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("Content-Encoding"))
	})
}

func TestCompression_PreservesErrorStatus(t *testing.T) {
	h := Compression(CompressionConfig{Level: 6})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusConflict, acceptResponse{JobID: "job-1", Accepted: false})
	}))

	rec := compressed(t, h, http.MethodGet, "gzip")

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"job_id":"job-1","worker_id":"","accepted":false}`, gunzip(t, rec.Body.Bytes()))
}

func TestAcceptsGzip(t *testing.T) {
	assert.True(t, acceptsGzip("gzip"))
	assert.True(t, acceptsGzip("br, GZIP;q=0.5"))
	assert.False(t, acceptsGzip("gzip;q=0"))
	assert.False(t, acceptsGzip("gzip;q=0.0"))
	assert.False(t, acceptsGzip("x-gzip-ish"))
	assert.False(t, acceptsGzip(""))
}

func TestRecover(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := Recover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("nil pricing config")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "nil pricing config")
}

func TestLoggingLevels(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Contains(t, logs.String(), "level=WARN")
	assert.Contains(t, logs.String(), "status=503")
	assert.Equal(t, slog.LevelInfo, levelForStatus(http.StatusConflict))
}
