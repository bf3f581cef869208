// Package imaging shrinks oversized product photos before they are uploaded.
package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"path/filepath"
	"regexp"
	"strings"

	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultMaxBytes is the upload ceiling used when none is configured.
	DefaultMaxBytes = 9 << 20
	// MaxDimension caps the longer side of a re-encoded image.
	MaxDimension = 2048

	startQuality = 90
	minQuality   = 30
	qualityStep  = 10
)

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafeChar = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// SanitizeFilename turns whitespace runs into one underscore, then replaces
// every remaining character outside [a-zA-Z0-9._-].
func SanitizeFilename(name string) string {
	name = whitespace.ReplaceAllString(name, "_")
	return unsafeChar.ReplaceAllString(name, "_")
}

// Prepare returns a file that fits maxBytes where possible. Small files only
// get their name sanitized. When the image cannot be decoded or re-encoded
// the original bytes are returned.
func Prepare(f File, maxBytes int64) File {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	f.Name = SanitizeFilename(f.Name)
	if f.Size() <= maxBytes {
		return f
	}

	img, _, err := image.Decode(bytes.NewReader(f.Data))
	if err != nil {
		return f
	}
	data, _ := compress(fit(img, MaxDimension), maxBytes)
	if len(data) == 0 {
		return f
	}
	return File{
		Name:        strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) + ".jpg",
		ContentType: "image/jpeg",
		Data:        data,
	}
}

// fit scales img down so its longer side is at most max, onto a white
// background since JPEG has no alpha.
func fit(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > max || h > max {
		if w >= h {
			h = h * max / w
			w = max
		} else {
			w = w * max / h
			h = max
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// compress walks quality down from 90 to 30 and stops at the first encoding
// that fits. The last attempt is kept whatever its size.
func compress(img image.Image, maxBytes int64) ([]byte, int) {
	var (
		out      []byte
		attempts int
		buf      bytes.Buffer
	)
	for q := startQuality; q >= minQuality; q -= qualityStep {
		attempts++
		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
			continue
		}
		out = append(out[:0], buf.Bytes()...)
		if int64(len(out)) <= maxBytes {
			break
		}
	}
	return out, attempts
}
