package service

import "errors"

// Operation-level error kinds. Ring and codec failures come from the model
// package (model.ErrInvalidGeometry, model.ErrCorruptGeometry) and kind
// mismatches from store.ErrWrongKind; everything else an operation can
// reject is here. Store failures are passed through unmodified.
var (
	ErrUnsupportedGeometry = errors.New("unsupported geometry kind")
	ErrGeometryNotFound    = errors.New("geometry not found")
	ErrInvalidGeoJSON      = errors.New("invalid geojson")
	ErrUnsupportedCommand  = errors.New("unsupported export command")
	ErrMissingCoordinates  = errors.New("reply carries no coordinates")
)
