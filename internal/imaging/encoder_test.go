package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256)), 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"my photo.png":          "my_photo.png",
		"a  \t b.jpg":           "a_b.jpg",
		"crème brûlée (1).jpeg": "cr_me_br_l_e__1_.jpeg",
		"ok-name_1.webp":        "ok-name_1.webp",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeFilename(in), in)
	}
}

func TestPrepareSmallFilePassesThrough(t *testing.T) {
	data := []byte("not even an image")
	out := Prepare(File{Name: "tiny file.png", ContentType: "image/png", Data: data}, 1<<20)
	assert.Equal(t, "tiny_file.png", out.Name)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, data, out.Data)
}

func TestPrepareUndecodableKeepsOriginal(t *testing.T) {
	data := bytes.Repeat([]byte{0xff}, 4096)
	out := Prepare(File{Name: "broken.png", Data: data}, 1024)
	assert.Equal(t, data, out.Data)
	assert.Equal(t, "broken.png", out.Name)
}

func TestPrepareCompressesOversizedImage(t *testing.T) {
	src := noisyPNG(t, 400, 300)
	limit := int64(len(src) / 2)

	out := Prepare(File{Name: "big shot.png", ContentType: "image/png", Data: src}, limit)
	assert.Equal(t, "big_shot.jpg", out.Name)
	assert.Equal(t, "image/jpeg", out.ContentType)
	assert.Less(t, len(out.Data), len(src))

	img, format, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 300, img.Bounds().Dy())
}

func TestFitCapsLongerSide(t *testing.T) {
	wide := fit(image.NewRGBA(image.Rect(0, 0, 4096, 1024)), MaxDimension)
	assert.Equal(t, 2048, wide.Bounds().Dx())
	assert.Equal(t, 512, wide.Bounds().Dy())

	tall := fit(image.NewRGBA(image.Rect(0, 0, 1000, 3000)), MaxDimension)
	assert.Equal(t, 682, tall.Bounds().Dx())
	assert.Equal(t, 2048, tall.Bounds().Dy())

	small := fit(image.NewRGBA(image.Rect(0, 0, 300, 200)), MaxDimension)
	assert.Equal(t, 300, small.Bounds().Dx())
}

func TestCompressIsBounded(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(noisyPNG(t, 256, 256)))
	require.NoError(t, err)

	out, attempts := compress(img, 1)
	assert.Equal(t, 7, attempts)
	assert.NotEmpty(t, out, "floor quality is accepted regardless of size")

	_, attempts = compress(img, 1<<30)
	assert.Equal(t, 1, attempts)
}
