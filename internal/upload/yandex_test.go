package upload

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDisk struct {
	mu       sync.Mutex
	calls    []string
	uploaded map[string]string
	failPut  bool
}

func (f *fakeDisk) handler(srv **httptest.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.calls = append(f.calls, r.Method+" "+r.URL.Path)
		if r.URL.Path != "/blob" && r.Header.Get("Authorization") != "OAuth secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		p := r.URL.Query().Get("path")
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/res":
			w.WriteHeader(http.StatusConflict)
		case r.Method == http.MethodGet && r.URL.Path == "/res/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"href": (*srv).URL + "/blob?path=" + p})
		case r.Method == http.MethodPut && r.URL.Path == "/blob":
			if f.failPut {
				w.WriteHeader(http.StatusInsufficientStorage)
				return
			}
			b, _ := io.ReadAll(r.Body)
			f.uploaded[p] = string(b)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/res/publish":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"href":"x"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/res":
			_ = json.NewEncoder(w).Encode(map[string]string{"public_url": "https://yadi.sk/d/" + p})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newFake(t *testing.T) (*fakeDisk, *YandexDisk) {
	fd := &fakeDisk{uploaded: map[string]string{}}
	var srv *httptest.Server
	srv = httptest.NewServer(fd.handler(&srv))
	t.Cleanup(srv.Close)
	y := NewYandexDisk("secret", "Label")
	y.BaseURL = srv.URL + "/res"
	y.Client = srv.Client()
	return fd, y
}

func TestYandexUploadFlow(t *testing.T) {
	fd, y := newFake(t)
	link, err := y.Upload(context.Background(), strings.NewReader("png-bytes"), "cover: final.png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "https://yadi.sk/d/Label/"), link)
	assert.True(t, strings.HasSuffix(link, "_cover_ final.png"), link)

	assert.Equal(t, []string{"PUT /res", "GET /res/upload", "PUT /blob", "PUT /res/publish", "GET /res"}, fd.calls)
	require.Len(t, fd.uploaded, 1)
	for _, body := range fd.uploaded {
		assert.Equal(t, "png-bytes", body)
	}
}

func TestYandexUploadFailure(t *testing.T) {
	fd, y := newFake(t)
	fd.failPut = true
	_, err := y.Upload(context.Background(), strings.NewReader("x"), "a.pdf")
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInsufficientStorage, apiErr.Status)

	y.Token = "wrong"
	_, err = y.Upload(context.Background(), strings.NewReader("x"), "a.pdf")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
}

func TestDisabledUploader(t *testing.T) {
	_, err := Disabled.Upload(context.Background(), strings.NewReader(""), "x")
	assert.ErrorIs(t, err, ErrDisabled)
}
