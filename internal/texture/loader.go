// Package texture loads backdrop images for previews.
package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
)

// alphaRank orders formats for Index: a format that can carry alpha wins
// over one that cannot when two files share a stem.
var alphaRank = map[string]int{
	".jpg":  0,
	".jpeg": 0,
	".bmp":  1,
	".tga":  2,
	".png":  3,
}

// Supported reports whether path has a loadable image extension.
func Supported(path string) bool {
	_, ok := alphaRank[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Load reads a PNG, JPEG, BMP or TGA file and returns an NRGBA image.
func Load(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(path) {
		return nil, fmt.Errorf("texture: unknown extension: %s", ext)
	}

	var img image.Image
	if ext == ".tga" {
		// TGA has no magic number, so image.Decode cannot sniff it.
		img, err = tga.Decode(bytes.NewReader(raw))
	} else {
		img, _, err = image.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", path, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA converts any image to NRGBA. Opaque sources come out with alpha 255.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	draw.Draw(dst, b, src, b.Min, draw.Src)
	return dst
}
