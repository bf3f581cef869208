package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharma-catalog/internal/imaging"
)

func TestNewCloudinaryRequiresConfig(t *testing.T) {
	_, err := NewCloudinary("", "preset", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = NewCloudinary("demo", "", "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCloudinaryUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))
		assert.Equal(t, "products", r.FormValue("folder"))
		assert.True(t, strings.HasPrefix(r.FormValue("public_id"), "box_shot_"))

		file, header, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer file.Close()
			data, _ := io.ReadAll(file)
			assert.Equal(t, "box_shot.jpg", header.Filename)
			assert.Equal(t, []byte("jpeg-bytes"), data)
		}
		fmt.Fprint(w, `{"secure_url":"https://res.cloudinary.com/demo/image/upload/box_shot.jpg"}`)
	}))
	defer srv.Close()

	c, err := NewCloudinary("demo", "unsigned", "products")
	require.NoError(t, err)
	c.endpoint = srv.URL

	url, err := c.Upload(context.Background(), imaging.File{Name: "box_shot.jpg", ContentType: "image/jpeg", Data: []byte("jpeg-bytes")})
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/box_shot.jpg", url)
}

func TestCloudinaryUploadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"Upload preset not found"}}`)
	}))
	defer srv.Close()

	c, err := NewCloudinary("demo", "missing", "")
	require.NoError(t, err)
	c.endpoint = srv.URL

	_, err = c.Upload(context.Background(), imaging.File{Name: "a.png", Data: []byte("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

type fakeUploader struct {
	calls int32
	fail  string
}

func (f *fakeUploader) Upload(_ context.Context, file imaging.File) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if file.Name == f.fail {
		return "", errors.New("cdn rejected " + file.Name)
	}
	return "https://cdn.test/" + file.Name, nil
}

func TestUploadAllPreservesOrder(t *testing.T) {
	up := &fakeUploader{}
	files := []imaging.File{{Name: "front view.png"}, {Name: "back.png"}, {Name: "leaflet.png"}}

	urls, err := UploadAll(context.Background(), up, files, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://cdn.test/front_view.png",
		"https://cdn.test/back.png",
		"https://cdn.test/leaflet.png",
	}, urls)
	assert.Equal(t, int32(3), atomic.LoadInt32(&up.calls))
}

func TestUploadAllFailsWholeBatch(t *testing.T) {
	up := &fakeUploader{fail: "back.png"}
	files := []imaging.File{{Name: "front.png"}, {Name: "back.png"}}

	urls, err := UploadAll(context.Background(), up, files, 0)
	require.Error(t, err)
	assert.Nil(t, urls)
	assert.Contains(t, err.Error(), "back.png")
}
