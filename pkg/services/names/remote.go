package names

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// ChecklistFinder finds any checklist submitted by an observer.
type ChecklistFinder interface {
	AnyChecklist(ctx context.Context, observerID string) (string, error)
}

// Remote resolves a name from the author tag of one of the observer's
// public checklist pages.
type Remote struct {
	client     *retryablehttp.Client
	baseURL    string
	checklists ChecklistFinder
}

type RemoteSettings struct {
	BaseURL string
	Retries int
	Timeout time.Duration
}

func NewRemote(settings RemoteSettings, checklists ChecklistFinder) (*Remote, error) {
	if checklists == nil {
		return nil, fmt.Errorf("checklist finder is nil")
	}
	base := strings.TrimRight(settings.BaseURL, "/")
	if base == "" {
		base = "https://ebird.org"
	}

	client := retryablehttp.NewClient()
	client.RetryMax = settings.Retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	if settings.Timeout > 0 {
		client.HTTPClient.Timeout = settings.Timeout
	}

	return &Remote{client: client, baseURL: base, checklists: checklists}, nil
}

func (r *Remote) ChecklistURL(samplingEventID string) string {
	return fmt.Sprintf("%s/checklist/%s", r.baseURL, samplingEventID)
}

func (r *Remote) Resolve(ctx context.Context, observerID string) (string, error) {
	checklist, err := r.checklists.AnyChecklist(ctx, observerID)
	if err != nil {
		return "", err
	}

	url := r.ChecklistURL(checklist)
	zerolog.Ctx(ctx).Debug().Str("url", url).Msg("fetching checklist")

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	name, err := authorMeta(resp.Body)
	if err != nil {
		return "", fmt.Errorf("checklist %s: %w", checklist, err)
	}
	zerolog.Ctx(ctx).Debug().
		Str("observer_id", observerID).
		Str("checklist", checklist).
		Str("name", name).
		Msg("identified observer")
	return name, nil
}

// authorMeta returns the content of the first <meta name="author"> tag.
func authorMeta(body io.Reader) (string, error) {
	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return "", fmt.Errorf("no author meta tag")
			}
			return "", fmt.Errorf("parse page: %w", z.Err())
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var isAuthor bool
			var content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					isAuthor = strings.EqualFold(a.Val, "author")
				case "content":
					content = a.Val
				}
			}
			if isAuthor {
				return strings.TrimSpace(content), nil
			}
		}
	}
}
