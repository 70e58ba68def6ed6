package asset

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/microsolutions/showcase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "https://site.example")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "icons/a.png", []byte("png"), "image/png"))
	data, err := os.ReadFile(filepath.Join(dir, "icons", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, "https://site.example/objects/icons/a.png", store.PublicURL("icons/a.png"))

	require.NoError(t, store.Delete(ctx, "icons/a.png"))
	require.NoError(t, store.Delete(ctx, "icons/a.png"))
	_, err = os.Stat(filepath.Join(dir, "icons", "a.png"))
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, store.Put(ctx, "../escape.png", nil, ""), ErrInvalidKey)
}

type s3Request struct {
	method      string
	path        string
	contentType string
	body        string
}

func TestS3StoreAgainstPathStyleEndpoint(t *testing.T) {
	var mu sync.Mutex
	var got []s3Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, s3Request{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(body)})
		mu.Unlock()
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := NewS3Store(context.Background(), config.S3Config{
		Bucket:          "assets",
		Region:          "us-east-1",
		Endpoint:        srv.URL,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Prefix:          "showcase",
	}, "")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "icons/a.jpg", []byte("jpeg-bytes"), "image/jpeg"))
	require.NoError(t, store.Delete(ctx, "icons/a.jpg"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/assets/showcase/icons/a.jpg", got[0].path)
	assert.Equal(t, "image/jpeg", got[0].contentType)
	assert.Equal(t, "jpeg-bytes", got[0].body)
	assert.Equal(t, http.MethodDelete, got[1].method)
	assert.Equal(t, "/assets/showcase/icons/a.jpg", got[1].path)

	assert.Equal(t, srv.URL+"/assets/showcase/icons/a.jpg", store.PublicURL("icons/a.jpg"))
}

func TestS3StorePublicURL(t *testing.T) {
	virtual, err := NewS3Store(context.Background(), config.S3Config{Bucket: "b", Region: "eu-west-1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "https://b.s3.eu-west-1.amazonaws.com/icons/x.jpg", virtual.PublicURL("icons/x.jpg"))

	custom, err := NewS3Store(context.Background(), config.S3Config{Bucket: "b", Region: "eu-west-1"}, "https://cdn.example.com/")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/icons/x.jpg", custom.PublicURL("icons/x.jpg"))

	_, err = NewS3Store(context.Background(), config.S3Config{Region: "eu-west-1"}, "")
	assert.Error(t, err)
}
