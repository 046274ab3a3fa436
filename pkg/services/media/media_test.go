package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

var dc = domain.Region{Code: "US-DC", Description: "District of Columbia, United States"}

func newCatalogServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media/catalog.json":
			assert.Equal(t, "US-DC", r.URL.Query().Get("regionCode"))
			assert.Equal(t, "2020", r.URL.Query().Get("by"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(Settings{})
	assert.Error(t, err)
}

func TestProvider_TopPhotos(t *testing.T) {
	ctx := context.Background()

	t.Run("downloads best rated photos", func(t *testing.T) {
		mux := http.NewServeMux()
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)
		mux.HandleFunc("/media/catalog.json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"results":{"content":[
				{"assetId":1,"mediaUrl":"` + srv.URL + `/asset/1","commonName":"Snowy Owl","userDisplayName":"Jane Doe","rating":4.8},
				{"assetId":2,"mediaUrl":"` + srv.URL + `/asset/2","commonName":"Blue Jay","userDisplayName":"John Roe","rating":4.5}
			]}}`))
		})
		mux.HandleFunc("/asset/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("jpeg:" + r.URL.Path))
		})

		dir := t.TempDir()
		p, err := NewProvider(Settings{BaseURL: srv.URL, Dir: dir})
		require.NoError(t, err)

		photos, err := p.TopPhotos(ctx, dc, 2020, 1)
		require.NoError(t, err)
		require.Len(t, photos, 1)

		assert.Equal(t, "Snowy Owl - The top-rated photo in District of Columbia, United States for 2020", photos[0].Caption)
		assert.Equal(t, "2020 Jane Doe", photos[0].Credit)
		assert.Equal(t, filepath.Join(dir, "top-image-US-DC-2020-1.jpg"), photos[0].Path)

		data, err := os.ReadFile(photos[0].Path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg:/asset/1", string(data))
	})

	t.Run("empty catalog", func(t *testing.T) {
		srv := newCatalogServer(t, `{"results":{"content":[]}}`)
		p, err := NewProvider(Settings{BaseURL: srv.URL, Dir: t.TempDir()})
		require.NoError(t, err)

		_, err = p.TopPhotos(ctx, dc, 2020, 1)
		assert.Error(t, err)
	})

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		t.Cleanup(srv.Close)

		p, err := NewProvider(Settings{BaseURL: srv.URL, Dir: t.TempDir()})
		require.NoError(t, err)

		_, err = p.TopPhotos(ctx, dc, 2020, 1)
		assert.Error(t, err)
	})
}
