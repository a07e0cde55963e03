// Package imageprocessor loads images and turns them into perceptual
// fingerprints that can be compared by Hamming distance.
package imageprocessor

import "errors"

var (
	// ErrDecode is returned when a file cannot be parsed as an image
	ErrDecode = errors.New("cannot decode image")

	// ErrIncompatibleFingerprint is returned when comparing fingerprints of different lengths
	ErrIncompatibleFingerprint = errors.New("incompatible fingerprints")
)
