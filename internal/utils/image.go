package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/nfnt/resize"
)

// ResizeImageBytes downscales an encoded JPEG or PNG so that neither side
// exceeds maxDimension, preserving the aspect ratio. Images already within
// bounds are returned unchanged.
func ResizeImageBytes(data []byte, filename string, maxDimension uint) ([]byte, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if format != "jpg" && format != "jpeg" && format != "png" {
		return data, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if uint(cfg.Width) <= maxDimension && uint(cfg.Height) <= maxDimension {
		return data, nil
	}

	img, err := decodeImage(bytes.NewReader(data), format)
	if err != nil {
		return nil, err
	}

	var resized image.Image
	if cfg.Width >= cfg.Height {
		resized = resize.Resize(maxDimension, 0, img, resize.Lanczos3)
	} else {
		resized = resize.Resize(0, maxDimension, img, resize.Lanczos3)
	}

	var out bytes.Buffer
	if err := EncodeImage(resized, format, &out, 85); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func decodeImage(r io.Reader, format string) (image.Image, error) {
	switch format {
	case "jpg", "jpeg":
		return jpeg.Decode(r)
	case "png":
		return png.Decode(r)
	default:
		img, _, err := image.Decode(r)
		return img, err
	}
}

func EncodeImage(img image.Image, format string, writer io.Writer, quality int) error {
	switch strings.ToLower(format) {
	case "jpg", "jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: quality})
	case "png":
		return png.Encode(writer, img)
	default:
		return errors.New("unsupported image format")
	}
}
