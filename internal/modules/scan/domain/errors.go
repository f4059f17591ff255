package domain

import "errors"

// ErrCanvasUnavailable is a frame capture failure: the frame cannot be
// copied into a pixel buffer.
var ErrCanvasUnavailable = errors.New("canvas context unavailable")
