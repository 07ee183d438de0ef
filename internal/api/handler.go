package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/model"
	"github.com/yourname/geoplus/internal/service"
	"github.com/yourname/geoplus/internal/store"
)

// Handler bundles the operation services behind the HTTP surface.
type Handler struct {
	nav      *service.NavService
	geometry *service.GeometryService
	geojson  *service.GeoJSONService
	xyz      *service.XYZService
	track    *service.TrackService
}

// NewHandler creates the handler.
func NewHandler(
	nav *service.NavService,
	geometry *service.GeometryService,
	geojson *service.GeoJSONService,
	xyz *service.XYZService,
	track *service.TrackService,
) *Handler {
	return &Handler{
		nav:      nav,
		geometry: geometry,
		geojson:  geojson,
		xyz:      xyz,
		track:    track,
	}
}

// Register mounts every operation route on the group.
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/bearing", h.Bearing)
	g.POST("/path-length", h.PathLength)
	g.POST("/geometry", h.GeometryUpsert)
	g.POST("/geometry/get", h.GeometryGet)
	g.POST("/geometry/filter", h.GeometryFilter)
	g.POST("/geojson/import", h.GeoJSONImport)
	g.POST("/geojson/export", h.GeoJSONExport)
	g.POST("/xyz", h.XYZUpsert)
	g.POST("/xyz/remove", h.XYZRemove)
	g.POST("/xyz/position", h.XYZPosition)
	g.POST("/track", h.TrackUpsert)
}

// errorResponse maps an operation error to a status code and a stable
// error label. Errors without a known kind are upstream store failures.
func errorResponse(c *gin.Context, err error) {
	status := http.StatusBadGateway
	label := "upstream failure"

	switch {
	case errors.Is(err, model.ErrInvalidGeometry):
		status, label = http.StatusBadRequest, "invalid geometry"
	case errors.Is(err, service.ErrInvalidGeoJSON):
		status, label = http.StatusBadRequest, "invalid geojson"
	case errors.Is(err, service.ErrUnsupportedGeometry):
		status, label = http.StatusBadRequest, "unsupported geometry"
	case errors.Is(err, service.ErrUnsupportedCommand):
		status, label = http.StatusBadRequest, "unsupported command"
	case errors.Is(err, service.ErrMissingCoordinates):
		status, label = http.StatusBadRequest, "missing coordinates"
	case errors.Is(err, service.ErrGeometryNotFound):
		status, label = http.StatusNotFound, "geometry not found"
	case errors.Is(err, store.ErrWrongKind):
		status, label = http.StatusConflict, "wrong key kind"
	case errors.Is(err, model.ErrCorruptGeometry):
		status, label = http.StatusInternalServerError, "corrupt geometry"
	}

	c.JSON(status, gin.H{
		"error":   label,
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid request",
		"details": err.Error(),
	})
}

// BearingRequest names two indexed members.
type BearingRequest struct {
	Index string `json:"index" binding:"required"`
	From  string `json:"from" binding:"required"`
	To    string `json:"to" binding:"required"`
}

// Bearing handles POST /bearing.
func (h *Handler) Bearing(c *gin.Context) {
	var req BearingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.nav.Bearing(c.Request.Context(), req.Index, req.From, req.To)
	if err != nil {
		errorResponse(c, err)
		return
	}
	// Null bearing when either member is absent.
	c.JSON(http.StatusOK, gin.H{"bearing": res})
}

// PathLengthRequest names an ordered member chain.
type PathLengthRequest struct {
	Index   string   `json:"index" binding:"required"`
	Members []string `json:"members" binding:"required,min=2"`
}

// PathLength handles POST /path-length.
func (h *Handler) PathLength(c *gin.Context) {
	var req PathLengthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	total, ok, err := h.nav.PathLength(c.Request.Context(), req.Index, req.Members)
	if err != nil {
		errorResponse(c, err)
		return
	}
	if !ok {
		// Some segment was unmeasurable: empty result, not a partial sum.
		c.JSON(http.StatusOK, gin.H{"length_m": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"length_m": total})
}

// GeometryUpsertRequest carries one polygon ring.
type GeometryUpsertRequest struct {
	GeometryKey string    `json:"geometry_key" binding:"required"`
	Type        string    `json:"type" binding:"required"`
	ID          string    `json:"id" binding:"required"`
	Ring        []float64 `json:"ring" binding:"required"`
}

// GeometryUpsert handles POST /geometry.
func (h *Handler) GeometryUpsert(c *gin.Context) {
	var req GeometryUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	added, err := h.geometry.Upsert(c.Request.Context(), req.GeometryKey, req.Type, req.ID, req.Ring)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

// GeometryGetRequest selects geometries and optional metrics.
type GeometryGetRequest struct {
	GeometryKey   string   `json:"geometry_key" binding:"required"`
	IDs           []string `json:"ids" binding:"required,min=1"`
	WithPerimeter bool     `json:"with_perimeter"`
	WithBox       bool     `json:"with_box"`
	WithCircle    bool     `json:"with_circle"`
}

// GeometryGet handles POST /geometry/get.
func (h *Handler) GeometryGet(c *gin.Context) {
	var req GeometryGetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	views, err := h.geometry.Get(c.Request.Context(), req.GeometryKey, req.IDs, service.GetFlags{
		WithPerimeter: req.WithPerimeter,
		WithBox:       req.WithBox,
		WithCircle:    req.WithCircle,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"geometries": views})
}

// GeometryFilterRequest selects a stored polygon and an index to filter.
type GeometryFilterRequest struct {
	GeometryKey     string `json:"geometry_key" binding:"required"`
	Index           string `json:"index" binding:"required"`
	ID              string `json:"id" binding:"required"`
	WithCoordinates bool   `json:"with_coordinates"`
	StoreTarget     string `json:"store_target"`
}

// GeometryFilter handles POST /geometry/filter.
func (h *Handler) GeometryFilter(c *gin.Context) {
	var req GeometryFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.geometry.Filter(c.Request.Context(), req.GeometryKey, req.Index, req.ID, service.FilterOptions{
		WithCoordinates: req.WithCoordinates,
		StoreTarget:     req.StoreTarget,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}
	if req.StoreTarget != "" {
		c.JSON(http.StatusOK, gin.H{"stored": res.Stored})
		return
	}
	c.JSON(http.StatusOK, gin.H{"matches": res.Matches})
}

// GeoJSONImportRequest wraps a FeatureCollection with its target keys.
type GeoJSONImportRequest struct {
	Index       string                  `json:"index" binding:"required"`
	GeometryKey string                  `json:"geometry_key" binding:"required"`
	Collection  model.FeatureCollection `json:"collection" binding:"required"`
}

// GeoJSONImport handles POST /geojson/import.
func (h *Handler) GeoJSONImport(c *gin.Context) {
	var req GeoJSONImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	count, err := h.geojson.Import(c.Request.Context(), req.Index, req.GeometryKey, req.Collection)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

// GeoJSONExport handles POST /geojson/export.
func (h *Handler) GeoJSONExport(c *gin.Context) {
	var req service.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	fc, err := h.geojson.Export(c.Request.Context(), req)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

// XYZUpsertRequest carries three-axis members.
type XYZUpsertRequest struct {
	Index   string              `json:"index" binding:"required"`
	Members []service.XYZMember `json:"members" binding:"required,min=1"`
}

// XYZUpsert handles POST /xyz.
func (h *Handler) XYZUpsert(c *gin.Context) {
	var req XYZUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	added, err := h.xyz.Upsert(c.Request.Context(), req.Index, req.Members)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}

// XYZMembersRequest names members of an index.
type XYZMembersRequest struct {
	Index   string   `json:"index" binding:"required"`
	Members []string `json:"members" binding:"required,min=1"`
}

// XYZRemove handles POST /xyz/remove.
func (h *Handler) XYZRemove(c *gin.Context) {
	var req XYZMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	removed, err := h.xyz.Remove(c.Request.Context(), req.Index, req.Members)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// XYZPosition handles POST /xyz/position.
func (h *Handler) XYZPosition(c *gin.Context) {
	var req XYZMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	positions, err := h.xyz.Position(c.Request.Context(), req.Index, req.Members)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

// TrackMember is one tracked location.
type TrackMember struct {
	Name string  `json:"name" binding:"required"`
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
}

// TrackUpsertRequest carries tracked locations.
type TrackUpsertRequest struct {
	Index   string        `json:"index" binding:"required"`
	Members []TrackMember `json:"members" binding:"required,min=1,dive"`
}

// TrackUpsert handles POST /track.
func (h *Handler) TrackUpsert(c *gin.Context) {
	var req TrackUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	members := make([]store.Member, len(req.Members))
	for i, m := range req.Members {
		members[i] = store.Member{Name: m.Name, Point: geo.Point{Lon: m.Lon, Lat: m.Lat}}
	}

	added, err := h.track.Upsert(c.Request.Context(), req.Index, members)
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added})
}
