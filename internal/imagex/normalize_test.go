package imagex

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/fieldlog/internal/common"
)

// makeJPEG renders a w×h JPEG. Noisy pixels compress poorly, which lets
// tests drive the encoded size up without huge dimensions.
func makeJPEG(t *testing.T, w, h int, noisy bool) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rnd := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if noisy {
				img.Set(x, y, color.RGBA{uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), uint8(rnd.Intn(256)), 255})
			} else {
				img.Set(x, y, color.RGBA{40, 90, 200, 255})
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func decodeDataURI(t *testing.T, uri string) image.Image {
	t.Helper()
	require.True(t, strings.HasPrefix(uri, "data:image/jpeg;base64,"))
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, "data:image/jpeg;base64,"))
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func TestNormalize_ScalesDownWithinBounds(t *testing.T) {
	src := makeJPEG(t, 1600, 1200, false)

	uri, err := Normalize(src, 800, 600, 0.7)
	require.NoError(t, err)

	img := decodeDataURI(t, uri)
	assert.LessOrEqual(t, img.Bounds().Dx(), 800)
	assert.LessOrEqual(t, img.Bounds().Dy(), 600)

	// aspect ratio preserved within one pixel of rounding
	wantH := img.Bounds().Dx() * 1200 / 1600
	assert.InDelta(t, wantH, img.Bounds().Dy(), 1)
}

func TestNormalize_PortraitBothDimensionsBounded(t *testing.T) {
	src := makeJPEG(t, 900, 2400, false)

	uri, err := Normalize(src, 800, 600, 0.7)
	require.NoError(t, err)

	img := decodeDataURI(t, uri)
	assert.LessOrEqual(t, img.Bounds().Dx(), 800)
	assert.LessOrEqual(t, img.Bounds().Dy(), 600)
}

func TestNormalize_NeverScalesUp(t *testing.T) {
	src := makeJPEG(t, 200, 100, false)

	uri, err := Normalize(src, 800, 600, 0.7)
	require.NoError(t, err)

	img := decodeDataURI(t, uri)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("not an image"), 800, 600, 0.7)
	require.Error(t, err)
}

func TestNormalizeWithBudget_LargeImageFits(t *testing.T) {
	// scenario: 5000×4000 capture with no cloud config must come back as an
	// inline data URI within the budget
	src := makeJPEG(t, 5000, 4000, false)

	uri, err := NormalizeWithBudget(src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "data:image/"))
	assert.LessOrEqual(t, EncodedBytes(uri), SizeBudget)
}

func TestEncodedBytes(t *testing.T) {
	assert.Equal(t, 0, EncodedBytes("https://example.com/a.jpg"))
	assert.Equal(t, 0, EncodedBytes("data:image/jpeg;base64"))

	payload := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, 300))
	assert.Equal(t, 300, EncodedBytes("data:image/jpeg;base64,"+payload))
}

func TestNormalizePasses_SecondPassKicksIn(t *testing.T) {
	src := makeJPEG(t, 1200, 900, true)

	passes := []Pass{
		{MaxWidth: 1200, MaxHeight: 900, Quality: 0.95},
		{MaxWidth: 300, MaxHeight: 200, Quality: 0.5},
	}

	// budget chosen so the noisy first pass misses and the second fits
	first, err := Normalize(src, 1200, 900, 0.95)
	require.NoError(t, err)
	budget := EncodedBytes(first) - 1

	uri, err := NormalizePasses(src, passes, budget)
	require.NoError(t, err)

	img := decodeDataURI(t, uri)
	assert.LessOrEqual(t, img.Bounds().Dx(), 300)
	assert.LessOrEqual(t, img.Bounds().Dy(), 200)
}

func TestNormalizePasses_SurfacesSizeExceeded(t *testing.T) {
	src := makeJPEG(t, 800, 600, true)

	_, err := NormalizePasses(src, DefaultPasses, 64)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPhotoTooLarge)
}
