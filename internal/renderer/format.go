package renderer

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is an image format the external renderer can produce.
type Format string

// Supported output formats.
const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatSVG, FormatPNG}

// ParseFormat converts a user supplied format name into a Format.
// Matching is case-insensitive and tolerates a leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported format %q: must be one of svg, png", s)
	}
}

// FormatFromPath infers the format from the extension of path.
func FormatFromPath(path string) (Format, bool) {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return "", false
	}

	return f, true
}

// WithExtension returns path with the format's extension appended unless it
// already ends with it.
func WithExtension(path string, f Format) string {
	if strings.HasSuffix(strings.ToLower(path), "."+string(f)) {
		return path
	}

	return path + "." + string(f)
}

// Flag returns the renderer command line flag selecting this format.
func (f Format) Flag() string {
	return "-t" + string(f)
}

func (f Format) String() string {
	return string(f)
}
