package imagehost

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	clierrors "github.com/codestack/cli/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0600))
	return path
}

func TestUploadSendsPresetAndFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/image/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "UserImage", r.FormValue("upload_preset"))
		assert.Equal(t, "demo", r.FormValue("cloud_name"))

		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer f.Close()
			body, _ := io.ReadAll(f)
			assert.Equal(t, "avatar.png", hdr.Filename)
			assert.Equal(t, "\x89PNG fake", string(body))
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"http://img/a.png","secure_url":"https://img/a.png","public_id":"a"}`))
	}))
	defer srv.Close()

	up := NewCloudinary(srv.URL, "demo", "UserImage", 5*time.Second)
	url, err := up.Upload(context.Background(), writeImage(t, "avatar.png"))
	require.NoError(t, err)
	assert.Equal(t, "https://img/a.png", url)
}

func TestUploadFallsBackToURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"url":"http://img/b.png"}`))
	}))
	defer srv.Close()

	up := NewCloudinary(srv.URL, "demo", "UserImage", 5*time.Second)
	url, err := up.UploadReader(context.Background(), "b.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "http://img/b.png", url)
}

func TestUploadRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Upload preset not found"}`))
	}))
	defer srv.Close()

	up := NewCloudinary(srv.URL, "demo", "nope", 5*time.Second)
	_, err := up.Upload(context.Background(), writeImage(t, "a.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")
}

func TestCheckImage(t *testing.T) {
	good := writeImage(t, "ok.JPEG")
	require.NoError(t, CheckImage(good))

	for _, bad := range []string{"", "  ", writeImage(t, "notes.txt"), "/does/not/exist.png", t.TempDir() + "/"} {
		err := CheckImage(bad)
		assert.True(t, clierrors.IsValidation(err), "%q should fail validation, got %v", bad, err)
	}
}
