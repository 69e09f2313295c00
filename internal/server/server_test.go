package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := NewServer("test")
	s.Options.TileSize = 16
	ts := httptest.NewServer(s.Router(30 * time.Second))
	t.Cleanup(ts.Close)
	return ts
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func post(t *testing.T, ts *httptest.Server, query string, body []byte) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/v1/emoji?"+query, "image/png", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	assert.NotEmpty(t, e.RequestId)
	return e
}

func zipNames(t *testing.T, resp *http.Response) []string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)
}

func TestLegacyHealthRedirects(t *testing.T) {
	ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/api/v1/health", resp.Request.URL.Path)
}

func TestCreateEmoji(t *testing.T) {
	ts := setupTestServer(t)

	resp := post(t, ts, "name=cat&sizes=2", encodePNG(t, 64, 48))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zip", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "cat.zip")

	assert.Equal(t, []string{
		"cat/original.png",
		"cat/2x2/cat-0-0.png",
		"cat/2x2/cat-0-1.png",
		"cat/2x2/cat-1-0.png",
		"cat/2x2/cat-1-1.png",
	}, zipNames(t, resp))
}

func TestCreateEmojiRectangle(t *testing.T) {
	ts := setupTestServer(t)

	resp := post(t, ts, "name=wide&mode=rectangle&tile_size=16", encodePNG(t, 48, 32))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	names := zipNames(t, resp)
	assert.Len(t, names, 7)
	assert.Contains(t, names, "wide/3x2/wide-1-2.png")
}

func TestCreateEmojiErrors(t *testing.T) {
	ts := setupTestServer(t)
	valid := encodePNG(t, 64, 48)

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
		code   string
	}{
		{"missing name", "sizes=2", valid, http.StatusBadRequest, "INVALID_NAME"},
		{"path in name", "name=..", valid, http.StatusBadRequest, "INVALID_NAME"},
		{"bad size", "name=cat&sizes=huge", valid, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"size above maximum", "name=cat&sizes=300", valid, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"size above tile limit", "name=cat&sizes=9&tile_size=512", encodePNG(t, 512, 512), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad mode", "name=cat&mode=circle", valid, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad tile size", "name=cat&tile_size=-3", valid, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"not an image", "name=cat", []byte("definitely not an image"), http.StatusUnsupportedMediaType, "UNSUPPORTED_IMAGE"},
		{"too small", "name=cat", encodePNG(t, 8, 8), http.StatusUnprocessableEntity, "IMAGE_TOO_SMALL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts, tt.query, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Error)
		})
	}
}

func TestCreateEmojiTooLarge(t *testing.T) {
	s := NewServer("test")
	s.MaxUploadBytes = 64
	ts := httptest.NewServer(s.Router(30 * time.Second))
	defer ts.Close()

	resp := post(t, ts, "name=cat", encodePNG(t, 64, 48))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decodeError(t, resp).Error)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/emoji", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
