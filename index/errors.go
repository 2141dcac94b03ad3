package index

import "errors"

var (
	ErrIndexMetadataMismatch = errors.New("index and metadata record counts differ")
	ErrLengthMismatch        = errors.New("vectors and metadata length mismatch")
	ErrDimensionMismatch     = errors.New("vector dimension mismatch")
	ErrMissingVector         = errors.New("missing vector")
	ErrCorruptSnapshot       = errors.New("corrupt index snapshot")
)
