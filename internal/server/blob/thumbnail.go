package blob

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/draw"
)

// ProfilePictureSize is the bounding box for account pictures.
const ProfilePictureSize = 256

// MaxImagePixels bounds the decoded size of an image, checked from its
// header before any pixel data is read.
const MaxImagePixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions too large")

// Thumbnail decodes a jpeg, png or gif image, fits it into a box x box square
// keeping its aspect ratio and re-encodes it in the source format. Images
// that already fit are re-encoded at their original size.
func Thumbnail(r io.Reader, box int) ([]byte, string, error) {
	var head bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, "", fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, format, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > box || h > box {
		if w >= h {
			h = max(1, h*box/w)
			w = box
		} else {
			w = max(1, w*box/h)
			h = box
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90})
	case "png":
		err = png.Encode(&buf, dst)
	case "gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		return nil, "", fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", format, err)
	}

	return buf.Bytes(), format, nil
}
