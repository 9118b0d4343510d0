// Package imagex normalizes photos for inline storage: it downsizes an
// image to fit a bounding box, re-encodes it as JPEG and wraps the result in
// a data URI so it can be embedded directly in a persisted record.
package imagex

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"

	"github.com/fieldops/fieldlog/internal/common"
)

// SizeBudget is the ceiling for an inline photo's encoded bytes. It sits
// below the document store's 1 MB per-document limit to leave headroom for
// the rest of the record.
const SizeBudget = 900 * 1024

// Pass describes one normalization attempt.
type Pass struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64
}

// DefaultPasses is the standard two-pass schedule: a regular pass and a
// tighter retry for photos that still blow the budget.
var DefaultPasses = []Pass{
	{MaxWidth: 800, MaxHeight: 600, Quality: 0.7},
	{MaxWidth: 600, MaxHeight: 400, Quality: 0.5},
}

const dataURIPrefix = "data:image/jpeg;base64,"

// Normalize decodes data (JPEG or PNG), scales it down (never up) so both
// dimensions fit maxWidth × maxHeight while preserving the aspect ratio,
// and returns the result as a JPEG data URI encoded at quality (0–1).
func Normalize(data []byte, maxWidth, maxHeight int, quality float64) (string, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	out := src
	if width != bounds.Dx() || height != bounds.Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), src, bounds, draw.Over, nil)
		out = scaled
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: jpegQuality(quality)}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// NormalizeWithBudget runs the default pass schedule against SizeBudget.
func NormalizeWithBudget(data []byte) (string, error) {
	return NormalizePasses(data, DefaultPasses, SizeBudget)
}

// NormalizePasses tries each pass in order and returns the first result
// whose encoded payload fits budget. If the final pass is still over budget
// it returns common.ErrPhotoTooLarge: the caller must surface that, never
// persist the oversized blob.
func NormalizePasses(data []byte, passes []Pass, budget int) (string, error) {
	var uri string
	for _, p := range passes {
		var err error
		uri, err = Normalize(data, p.MaxWidth, p.MaxHeight, p.Quality)
		if err != nil {
			return "", err
		}
		if EncodedBytes(uri) <= budget {
			return uri, nil
		}
	}
	return "", fmt.Errorf("%d bytes after final pass: %w", EncodedBytes(uri), common.ErrPhotoTooLarge)
}

// EncodedBytes reports the decoded byte length of a data URI's base64
// payload. Non-data-URI strings report zero.
func EncodedBytes(dataURI string) int {
	i := indexAfterComma(dataURI)
	if i < 0 {
		return 0
	}
	return base64.StdEncoding.DecodedLen(len(dataURI) - i)
}

func indexAfterComma(dataURI string) int {
	if len(dataURI) < 5 || dataURI[:5] != "data:" {
		return -1
	}
	for i := 5; i < len(dataURI); i++ {
		if dataURI[i] == ',' {
			return i + 1
		}
	}
	return -1
}

// fitWithin scales (w, h) down to fit (maxW, maxH), keeping the aspect
// ratio. Images already inside the box are untouched.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}

	scale := float64(maxW) / float64(w)
	if s := float64(maxH) / float64(h); s < scale {
		scale = s
	}

	w = int(float64(w) * scale)
	h = int(float64(h) * scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

func jpegQuality(quality float64) int {
	q := int(quality * 100)
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
