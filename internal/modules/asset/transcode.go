package asset

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"strings"
)

// JPEGQuality is the fixed re-encode quality.
const JPEGQuality = 80

// shouldTranscode reports whether an image type is re-encoded. Animated and vector
// formats are stored as-is.
func shouldTranscode(contentType string) bool {
	if !strings.HasPrefix(contentType, "image/") {
		return false
	}
	switch contentType {
	case "image/gif", "image/svg+xml", "image/x-icon", "image/vnd.microsoft.icon":
		return false
	}
	return true
}

// transcodeJPEG decodes an image and re-encodes it as JPEG, flattening transparency
// onto white.
func transcodeJPEG(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()
	canvas := image.NewRGBA(bounds)
	draw.Draw(canvas, bounds, &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(canvas, bounds, src, bounds.Min, draw.Over)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, canvas, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
