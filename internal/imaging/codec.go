package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif" // Register GIF format decoder
	"image/jpeg"
	_ "image/png" // Register PNG format decoder

	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// jpegQuality is used for all encoded crops. High enough to preserve
// printed card detail for later inspection.
const jpegQuality = 95

// Decode turns uploaded bytes into a pixel grid. PNG, JPEG, GIF and WebP
// are recognized.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG encodes a pixel grid as JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGDataURL encodes a pixel grid as a base64 JPEG data URL, the format
// the crop API returns to browsers.
func JPEGDataURL(img image.Image) (string, error) {
	data, err := EncodeJPEG(img)
	if err != nil {
		return "", err
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(data), nil
}
