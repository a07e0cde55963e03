package imageprocessor

import (
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// FormatType is the decoder name reported by image.DecodeConfig
type FormatType string

// Known image format constants
const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatBMP     FormatType = "bmp"
	FormatTIFF    FormatType = "tiff"
	FormatWEBP    FormatType = "webp"
)

var formatExtensions = map[FormatType][]string{
	FormatJPEG: {".jpg", ".jpeg"},
	FormatPNG:  {".png"},
	FormatGIF:  {".gif"},
	FormatBMP:  {".bmp"},
	FormatTIFF: {".tif", ".tiff"},
	FormatWEBP: {".webp"},
}

// ImageMeta describes a decoded image
type ImageMeta struct {
	Format FormatType
	Width  int
	Height int
}

// ParseFormat maps a decoder name onto a known format
func ParseFormat(name string) FormatType {
	format := FormatType(name)
	if _, ok := formatExtensions[format]; ok {
		return format
	}
	return FormatUnknown
}

// SupportedFormats returns the decodable formats in a stable order
func SupportedFormats() []FormatType {
	formats := make([]FormatType, 0, len(formatExtensions))
	for format := range formatExtensions {
		formats = append(formats, format)
	}
	sort.Slice(formats, func(i, j int) bool {
		return formats[i] < formats[j]
	})
	return formats
}
