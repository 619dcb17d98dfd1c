package texture

import (
	"bytes"
	"fmt"
	"image"

	"github.com/HugoSmits86/nativewebp"
)

// EncodeWebP encodes an image as a lossless WebP payload for embedding
// in the output stream.
func EncodeWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, img, nil); err != nil {
		return nil, fmt.Errorf("texture: webp encode: %w", err)
	}
	return buf.Bytes(), nil
}
