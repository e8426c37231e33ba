package capture

import (
	"errors"
	"fmt"
)

var (
	ErrNoContentNode = errors.New("no content node attached")
	ErrClosed        = errors.New("capture service closed")
	ErrEmptyRaster   = errors.New("rasterization produced an empty image")
)

// CaptureError is a failed rasterization. The previously installed texture
// stays current.
type CaptureError struct {
	Version   uint64
	RequestID string
	Err       error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture v%d (%s) failed: %v", e.Version, e.RequestID, e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}
