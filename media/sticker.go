// Image conversion for chat stickers.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// sticker canvas edge, in pixels
const StickerSize = 512

var ErrEmptyImage = errors.New("empty image")

// ConvertImageToSticker decodes a JPEG, PNG, GIF (first frame) or WebP image, scales it to fit a StickerSize square preserving aspect ratio, centres it on a transparent canvas, and encodes it as lossless WebP.
func ConvertImageToSticker(ctx context.Context, raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyImage
	}
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(image.Rect(0, 0, StickerSize, StickerSize))
	draw.CatmullRom.Scale(canvas, fitRect(src.Bounds(), StickerSize), src, src.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := nativewebp.Encode(&buf, canvas, nil); err != nil {
		return nil, fmt.Errorf("encoding %s as webp: %w", format, err)
	}
	return buf.Bytes(), nil
}

// destination rectangle for `src` scaled to fit inside a size x size square, centred
func fitRect(src image.Rectangle, size int) image.Rectangle {
	w, h := src.Dx(), src.Dy()
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	dw, dh := size, size
	if w > h {
		dh = max(1, h*size/w)
	} else if h > w {
		dw = max(1, w*size/h)
	}
	x0 := (size - dw) / 2
	y0 := (size - dh) / 2
	return image.Rect(x0, y0, x0+dw, y0+dh)
}
