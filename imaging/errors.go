package imaging

import (
	"errors"

	"pixview/raster"
)

var (
	ErrUnknownFormat         = raster.ErrUnknownFormat
	ErrDisposed              = raster.ErrDisposed
	ErrDimensionMismatch     = errors.New("dimension mismatch")
	ErrChannelLengthMismatch = errors.New("channel length mismatch")
	ErrUnsupportedBitDepth   = errors.New("unsupported bit depth")
	ErrInvalidBounds         = errors.New("invalid bounds")

	// ErrStaleHandle is returned by pixel handles whose image changed color
	// type after the handle was made.
	ErrStaleHandle = errors.New("stale pixel handle")
)
