package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/service"
	"github.com/yourname/geoplus/internal/store"
)

func testRouter(mem *store.Memory) *gin.Engine {
	gin.SetMode(gin.TestMode)

	geometry := service.NewGeometryService(mem)
	h := NewHandler(
		service.NewNavService(mem),
		geometry,
		service.NewGeoJSONService(mem, geometry),
		service.NewXYZService(mem),
		service.NewTrackService(mem, "geotrack:"),
	)

	router := gin.New()
	h.Register(router.Group("/api/v1"))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestBearingEndpoint(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.MemberUpsert(context.Background(), "cities",
		store.Member{Name: "a", Point: geo.Point{Lon: 0, Lat: 0}},
		store.Member{Name: "b", Point: geo.Point{Lon: 0, Lat: 1}},
	)
	require.NoError(t, err)
	router := testRouter(mem)

	rec := doJSON(t, router, "/api/v1/bearing", gin.H{"index": "cities", "from": "a", "to": "b"})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Bearing *service.BearingResult `json:"bearing"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Bearing)
	// Due north all the way: both azimuths are 0.
	assert.InDelta(t, 0.0, body.Bearing.Initial, 1e-9)
	assert.InDelta(t, 0.0, body.Bearing.Final, 1e-9)
}

func TestBearingEndpointRejectsMissingFields(t *testing.T) {
	router := testRouter(store.NewMemory())

	rec := doJSON(t, router, "/api/v1/bearing", gin.H{"index": "cities"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeometryEndpoints(t *testing.T) {
	mem := store.NewMemory()
	router := testRouter(mem)

	ring := []float64{0, 0, 0, 1, 1, 1, 1, 0, 0, 0}
	rec := doJSON(t, router, "/api/v1/geometry", gin.H{
		"geometry_key": "geoms", "type": "Polygon", "id": "square", "ring": ring,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"added": 1}`, rec.Body.String())

	_, err := mem.MemberUpsert(context.Background(), "points",
		store.Member{Name: "inside", Point: geo.Point{Lon: 0.5, Lat: 0.5}},
		store.Member{Name: "outside", Point: geo.Point{Lon: 40, Lat: 40}},
	)
	require.NoError(t, err)

	rec = doJSON(t, router, "/api/v1/geometry/filter", gin.H{
		"geometry_key": "geoms", "index": "points", "id": "square", "with_coordinates": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var filter struct {
		Matches []service.FilterMatch `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filter))
	require.Len(t, filter.Matches, 1)
	assert.Equal(t, "inside", filter.Matches[0].Member)
	require.NotNil(t, filter.Matches[0].Coord)

	rec = doJSON(t, router, "/api/v1/geometry/get", gin.H{
		"geometry_key": "geoms", "ids": []string{"square"}, "with_perimeter": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"perimeter"`)
}

func TestGeometryFilterNotFoundStatus(t *testing.T) {
	router := testRouter(store.NewMemory())

	rec := doJSON(t, router, "/api/v1/geometry/filter", gin.H{
		"geometry_key": "geoms", "index": "points", "id": "nope",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWrongKindStatus(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.FieldSet(context.Background(), "cities", "f", []byte("v"))
	require.NoError(t, err)
	router := testRouter(mem)

	rec := doJSON(t, router, "/api/v1/bearing", gin.H{"index": "cities", "from": "a", "to": "b"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGeoJSONImportEndpoint(t *testing.T) {
	router := testRouter(store.NewMemory())

	rec := doJSON(t, router, "/api/v1/geojson/import", gin.H{
		"index":        "points",
		"geometry_key": "geoms",
		"collection": gin.H{
			"type": "FeatureCollection",
			"features": []gin.H{
				{
					"type":       "Feature",
					"geometry":   gin.H{"type": "Point", "coordinates": []float64{1, 2}},
					"properties": gin.H{"id": "p1"},
				},
			},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"imported": 1}`, rec.Body.String())
}

func TestGeoJSONExportUnsupportedCommandStatus(t *testing.T) {
	router := testRouter(store.NewMemory())

	rec := doJSON(t, router, "/api/v1/geojson/export", gin.H{
		"command": "georem", "index": "points",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestXYZAndTrackEndpoints(t *testing.T) {
	mem := store.NewMemory()
	router := testRouter(mem)

	rec := doJSON(t, router, "/api/v1/xyz", gin.H{
		"index": "fleet",
		"members": []gin.H{
			{"name": "d1", "lon": 1.0, "lat": 2.0, "alt": 30.0},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, "/api/v1/xyz/position", gin.H{
		"index": "fleet", "members": []string{"d1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"alt":30`)

	rec = doJSON(t, router, "/api/v1/track", gin.H{
		"index": "vehicles",
		"members": []gin.H{
			{"name": "bus-7", "lon": 13.5, "lat": 38.25},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, mem.Messages, 1)
	assert.Equal(t, "geotrack:bus-7", mem.Messages[0].Channel)
	assert.Equal(t, "13.5:38.25", mem.Messages[0].Payload)

	rec = doJSON(t, router, "/api/v1/xyz/remove", gin.H{
		"index": "fleet", "members": []string{"d1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 1}`, rec.Body.String())
}

// prometheusTestRegistry keeps metric registration test-local.
func prometheusTestRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func TestMetricsMiddlewareCounts(t *testing.T) {
	mem := store.NewMemory()
	gin.SetMode(gin.TestMode)

	reg := prometheusTestRegistry()
	collector := NewMetricsCollector(reg)

	geometry := service.NewGeometryService(mem)
	h := NewHandler(
		service.NewNavService(mem),
		geometry,
		service.NewGeoJSONService(mem, geometry),
		service.NewXYZService(mem),
		service.NewTrackService(mem, "geotrack:"),
	)
	router := gin.New()
	router.Use(collector.Middleware())
	h.Register(router.Group("/api/v1"))
	router.GET("/metrics", collector.Handler())

	doJSON(t, router, "/api/v1/geojson/export", gin.H{"command": "georem", "index": "points"})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "geoplus_requests_total")
}
