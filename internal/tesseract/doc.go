// Package tesseract provides a local OCR backend built on gosseract.
//
// The real engine needs libtesseract and is only compiled with the
// "tesseract" build tag. Default builds get a stub whose DetectText
// always fails, so deployments without the native library still link.
package tesseract

import "errors"

// ErrUnavailable is returned when the binary was built without the tesseract tag.
var ErrUnavailable = errors.New("tesseract OCR not available: rebuild with -tags tesseract")
