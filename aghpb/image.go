package aghpb

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DecodeImage decodes raw bytes into a raster image and reports the format
// name. Malformed input always yields a *DecodeError.
func DecodeImage(data []byte) (img image.Image, format string, err error) {
	if len(data) == 0 {
		return nil, "", &DecodeError{Err: errors.New("empty image data")}
	}

	defer func() {
		if r := recover(); r != nil {
			img, format = nil, ""
			err = &DecodeError{Err: fmt.Errorf("codec panic: %v", r)}
		}
	}()

	img, format, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &DecodeError{Err: err}
	}
	return img, format, nil
}
