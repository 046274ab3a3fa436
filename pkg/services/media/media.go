// Package media finds the top rated photos of a region and year in the
// eBird media catalog for the title page.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/ses4j/ebird-statistical-report/pkg/models/domain"
)

type Settings struct {
	BaseURL string        `mapstructure:"base_url"`
	Dir     string        `mapstructure:"dir"`
	Retries int           `mapstructure:"retries"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Provider struct {
	client  *retryablehttp.Client
	baseURL string
	dir     string
}

func NewProvider(settings Settings) (*Provider, error) {
	if settings.Dir == "" {
		return nil, fmt.Errorf("media directory is not set")
	}
	base := strings.TrimRight(settings.BaseURL, "/")
	if base == "" {
		base = "https://ebird.org"
	}

	client := retryablehttp.NewClient()
	client.RetryMax = settings.Retries
	client.Logger = nil
	if settings.Timeout > 0 {
		client.HTTPClient.Timeout = settings.Timeout
	}
	return &Provider{client: client, baseURL: base, dir: settings.Dir}, nil
}

type catalog struct {
	Results struct {
		Content []asset `json:"content"`
	} `json:"results"`
}

type asset struct {
	AssetID         json.Number `json:"assetId"`
	MediaURL        string      `json:"mediaUrl"`
	CommonName      string      `json:"commonName"`
	UserDisplayName string      `json:"userDisplayName"`
	Rating          json.Number `json:"rating"`
}

// CatalogURL is the gallery search for photos taken in region during year,
// best rated first.
func (p *Provider) CatalogURL(regionCode string, year int) string {
	q := url.Values{}
	q.Set("regionCode", regionCode)
	q.Set("mediaType", "p")
	q.Set("sort", "rating_rank_desc")
	q.Set("yr", "YCUSTOM")
	q.Set("by", strconv.Itoa(year))
	q.Set("ey", strconv.Itoa(year))
	q.Set("bmo", "1")
	q.Set("emo", "12")
	q.Set("includeUnconfirmed", "T")
	q.Set("view", "Gallery")
	return p.baseURL + "/media/catalog.json?" + q.Encode()
}

// TopPhotos downloads the n best rated photos of region in year.
func (p *Provider) TopPhotos(ctx context.Context, region domain.Region, year, n int) ([]domain.Photo, error) {
	if n <= 0 {
		return nil, nil
	}

	var c catalog
	if err := p.getJSON(ctx, p.CatalogURL(region.Code, year), &c); err != nil {
		return nil, err
	}
	if len(c.Results.Content) == 0 {
		return nil, fmt.Errorf("no photos for %s in %d", region.Code, year)
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}

	var photos []domain.Photo
	for i, a := range c.Results.Content {
		if len(photos) == n {
			break
		}
		if a.MediaURL == "" {
			continue
		}
		path := filepath.Join(p.dir, fmt.Sprintf("top-image-%s-%d-%d.jpg", region.Code, year, i+1))
		if err := p.download(ctx, a.MediaURL, path); err != nil {
			return nil, err
		}
		photos = append(photos, domain.Photo{
			Path:    path,
			URL:     a.MediaURL,
			Caption: fmt.Sprintf("%s - The top-rated photo in %s for %d", a.CommonName, region.Description, year),
			Credit:  fmt.Sprintf("%d %s", year, a.UserDisplayName),
		})
		zerolog.Ctx(ctx).Debug().Str("asset_id", a.AssetID.String()).Str("path", path).Msg("downloaded photo")
	}
	return photos, nil
}

func (p *Provider) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}
	return resp, nil
}

func (p *Provider) getJSON(ctx context.Context, target string, v any) error {
	resp, err := p.get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

func (p *Provider) download(ctx context.Context, target, path string) error {
	resp, err := p.get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
