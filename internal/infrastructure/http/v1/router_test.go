package v1

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geoforge/dyntile/internal/chunkstore"
	"github.com/geoforge/dyntile/internal/infrastructure/http/v1/handler"
	"github.com/geoforge/dyntile/internal/render"
	"github.com/geoforge/dyntile/internal/repository/tilerecord"
	"github.com/geoforge/dyntile/internal/usecase"
	"github.com/geoforge/dyntile/pkg/logger"
)

const testMaxUpload = 1024

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	l := logger.NoOp()
	store := chunkstore.New(10, l)
	renderer := render.New(store, 256)
	records := tilerecord.NewMemory()
	uc := usecase.NewTileUseCase(store, renderer, records, l)
	h := handler.NewHandler(validator.New(), uc, testMaxUpload)

	return NewRouter(h, l, 2*time.Minute)
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := testRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFetchTile(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{
			name:     "minimal valid request",
			query:    "LAYER=base&TILECOL=550&TILEROW=335&ZOOM=10",
			wantCode: http.StatusOK,
		},
		{
			name:     "explicit fixed parameters",
			query:    "SERVICE=WMTS&REQUESTTYPE=GetTile&VERSION=1.0.0&LAYER=base&STYLE=raster&MIMETYPE=image/png&TILEMATRIXSET=EPSG:900913&TILEMATRIX=EPSG:900913&TILECOL=0&TILEROW=0&ZOOM=3",
			wantCode: http.StatusOK,
		},
		{
			name:     "missing layer",
			query:    "TILECOL=550&TILEROW=335&ZOOM=10",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "missing tile coordinates",
			query:    "LAYER=base&ZOOM=10",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong service",
			query:    "SERVICE=WMS&LAYER=base&TILECOL=550&TILEROW=335&ZOOM=10",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "wrong tile matrix set",
			query:    "TILEMATRIXSET=EPSG:4326&LAYER=base&TILECOL=550&TILEROW=335&ZOOM=10",
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "non integer tile column",
			query:    "LAYER=base&TILECOL=abc&TILEROW=335&ZOOM=10",
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, httptest.NewRequest(http.MethodGet, "/fetch?"+tt.query, nil))

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
				img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
				require.NoError(t, err)
				assert.Equal(t, 256, img.Bounds().Dx())
				assert.Equal(t, 256, img.Bounds().Dy())
			}
		})
	}
}

func TestSessionCookie(t *testing.T) {
	router := testRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var issued *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			issued = c
		}
	}
	require.NotNil(t, issued)
	assert.NotEmpty(t, issued.Value)
	assert.True(t, issued.HttpOnly)

	// A returning client keeps its identifier.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.AddCookie(issued)
	w = do(router, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			assert.Equal(t, issued.Value, c.Value)
		}
	}
}

func TestUpdatedTiles(t *testing.T) {
	router := testRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet,
		"/dynamicboundingbox?LAYER=base&BBOX=-10,-10,10,10,5", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	// An empty store yields an empty list, not null.
	assert.JSONEq(t, "[]", string(body.Data))
}

func TestUpdatedTilesValidation(t *testing.T) {
	router := testRouter(t)

	tests := []struct {
		name  string
		query string
	}{
		{name: "missing layer", query: "BBOX=-10,-10,10,10,5"},
		{name: "missing bbox", query: "LAYER=base"},
		{name: "malformed bbox", query: "LAYER=base&BBOX=1,2,3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, httptest.NewRequest(http.MethodGet,
				"/dynamicboundingbox?"+tt.query, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestIngestImageValidation(t *testing.T) {
	router := testRouter(t)

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/image", strings.NewReader("data"))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/image", nil)
		req.Header.Set("Content-Type", "image/tiff")
		assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
	})

	t.Run("not a tiff", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/image", strings.NewReader("junk"))
		req.Header.Set("Content-Type", "image/tiff")
		assert.Equal(t, http.StatusBadRequest, do(router, req).Code)
	})

	t.Run("oversized upload", func(t *testing.T) {
		big := strings.NewReader(strings.Repeat("x", testMaxUpload+1))
		req := httptest.NewRequest(http.MethodPost, "/image", big)
		req.Header.Set("Content-Type", "image/tiff")
		assert.Equal(t, http.StatusRequestEntityTooLarge, do(router, req).Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	router := testRouter(t)

	w := do(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
