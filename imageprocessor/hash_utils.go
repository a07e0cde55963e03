package imageprocessor

import (
	"fmt"
	"image"
	"math/bits"
	"strconv"
	"strings"

	"github.com/corona10/goimagehash"
)

// DefaultHashSize is the side of the DCT low-frequency block; 8 gives a 64-bit fingerprint
const DefaultHashSize = 8

// Fingerprint is an immutable perceptual hash of an image
type Fingerprint struct {
	words []uint64
	bits  int
}

// NewFingerprint builds a fingerprint from raw hash words
func NewFingerprint(words []uint64, length int) Fingerprint {
	w := make([]uint64, len(words))
	copy(w, words)
	return Fingerprint{words: w, bits: length}
}

// Len returns the number of bits in the fingerprint
func (f Fingerprint) Len() int {
	return f.bits
}

// IsZero reports whether the fingerprint was never computed
func (f Fingerprint) IsZero() bool {
	return f.bits == 0
}

// String renders the fingerprint as lowercase hex, 16 digits per word
func (f Fingerprint) String() string {
	var sb strings.Builder
	for _, w := range f.words {
		fmt.Fprintf(&sb, "%016x", w)
	}
	return sb.String()
}

// ParseFingerprint is the inverse of Fingerprint.String
func ParseFingerprint(s string, length int) (Fingerprint, error) {
	if len(s) == 0 || len(s)%16 != 0 {
		return Fingerprint{}, fmt.Errorf("invalid fingerprint %q", s)
	}
	words := make([]uint64, 0, len(s)/16)
	for i := 0; i < len(s); i += 16 {
		w, err := strconv.ParseUint(s[i:i+16], 16, 64)
		if err != nil {
			return Fingerprint{}, fmt.Errorf("invalid fingerprint %q: %w", s, err)
		}
		words = append(words, w)
	}
	if length <= 0 || length > len(words)*64 {
		return Fingerprint{}, fmt.Errorf("invalid fingerprint length %d for %q", length, s)
	}
	return Fingerprint{words: words, bits: length}, nil
}

// Hasher computes DCT perceptual hashes of a fixed size
type Hasher struct {
	hashSize int
}

// NewHasher validates the hash size: it must be a power of two, at least 8
func NewHasher(hashSize int) (*Hasher, error) {
	if hashSize < DefaultHashSize || hashSize&(hashSize-1) != 0 {
		return nil, fmt.Errorf("hash size must be a power of two >= %d, got %d", DefaultHashSize, hashSize)
	}
	return &Hasher{hashSize: hashSize}, nil
}

// Bits returns the fingerprint length produced by this hasher
func (h *Hasher) Bits() int {
	return h.hashSize * h.hashSize
}

// Fingerprint computes the perceptual hash of a decoded image
func (h *Hasher) Fingerprint(img image.Image) (Fingerprint, error) {
	if img == nil || img.Bounds().Empty() {
		return Fingerprint{}, fmt.Errorf("%w: empty image", ErrDecode)
	}

	hash, err := goimagehash.ExtPerceptionHash(img, h.hashSize, h.hashSize)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("cannot compute perceptual hash: %w", err)
	}

	return NewFingerprint(hash.GetHash(), hash.Bits()), nil
}

// FingerprintFile loads the image at path and fingerprints it
func (h *Hasher) FingerprintFile(path string) (Fingerprint, ImageMeta, error) {
	img, meta, err := LoadImage(path)
	if err != nil {
		return Fingerprint{}, ImageMeta{}, err
	}

	fp, err := h.Fingerprint(img)
	if err != nil {
		return Fingerprint{}, ImageMeta{}, fmt.Errorf("%s: %w", path, err)
	}
	return fp, meta, nil
}

// ComputeFingerprint hashes img with the default 64-bit hasher
func ComputeFingerprint(img image.Image) (Fingerprint, error) {
	h := &Hasher{hashSize: DefaultHashSize}
	return h.Fingerprint(img)
}

// HammingDistance counts the bit positions at which a and b differ
func HammingDistance(a, b Fingerprint) (int, error) {
	if a.bits != b.bits || len(a.words) != len(b.words) {
		return 0, fmt.Errorf("%w: %d bits vs %d bits", ErrIncompatibleFingerprint, a.bits, b.bits)
	}

	var distance int
	for i := range a.words {
		distance += bits.OnesCount64(a.words[i] ^ b.words[i])
	}
	return distance, nil
}

// Score converts a Hamming distance into a similarity percentage in [0, 100]
func Score(distance, length int) float64 {
	return (1 - float64(distance)/float64(length)) * 100
}

// Similarity compares two fingerprints and returns their score
func Similarity(a, b Fingerprint) (float64, error) {
	distance, err := HammingDistance(a, b)
	if err != nil {
		return 0, err
	}
	return Score(distance, a.Len()), nil
}
