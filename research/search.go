package research

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher runs a web search and returns at most count results.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

type Provider string

const (
	ProviderSerper Provider = "serper"
	ProviderBrave  Provider = "brave"
	ProviderNone   Provider = "none"
)

var ErrUnsupportedProvider = errors.New("unsupported search provider")

const (
	serperEndpoint = "https://google.serper.dev/search"
	braveEndpoint  = "https://api.search.brave.com/res/v1/web/search"
)

type searcherOptions struct {
	client   *http.Client
	endpoint string
}

type SearcherOption func(*searcherOptions)

func WithHTTPClient(c *http.Client) SearcherOption {
	return func(o *searcherOptions) {
		if c != nil {
			o.client = c
		}
	}
}

// WithEndpoint overrides the provider URL.
func WithEndpoint(endpoint string) SearcherOption {
	return func(o *searcherOptions) {
		o.endpoint = endpoint
	}
}

func NewSearcher(provider Provider, apiKey string, opts ...SearcherOption) (Searcher, error) {
	o := searcherOptions{client: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	switch provider {
	case ProviderSerper:
		if o.endpoint == "" {
			o.endpoint = serperEndpoint
		}
		return &Serper{APIKey: apiKey, Endpoint: o.endpoint, Client: o.client}, nil
	case ProviderBrave:
		if o.endpoint == "" {
			o.endpoint = braveEndpoint
		}
		return &Brave{APIKey: apiKey, Endpoint: o.endpoint, Client: o.client}, nil
	case ProviderNone, "":
		return NopSearcher{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, provider)
	}
}

// NopSearcher finds nothing. Research then relies on the model alone.
type NopSearcher struct{}

func (NopSearcher) Search(context.Context, string, int) ([]Result, error) {
	return nil, nil
}

type Serper struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func (s *Serper) Search(ctx context.Context, query string, count int) ([]Result, error) {
	body, err := sonic.Marshal(map[string]any{"q": query, "num": count})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := do(s.Client, req, &raw); err != nil {
		return nil, fmt.Errorf("serper search failed: %w", err)
	}

	out := make([]Result, 0, len(raw.Organic))
	for i, r := range raw.Organic {
		if i >= count {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.Link, Snippet: r.Snippet})
	}
	return out, nil
}

type Brave struct {
	APIKey   string
	Endpoint string
	Client   *http.Client
}

func (b *Brave) Search(ctx context.Context, query string, count int) ([]Result, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("count", strconv.Itoa(count))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.APIKey)

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := do(b.Client, req, &raw); err != nil {
		return nil, fmt.Errorf("brave search failed: %w", err)
	}

	out := make([]Result, 0, len(raw.Web.Results))
	for i, r := range raw.Web.Results {
		if i >= count {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return out, nil
}

func do(client *http.Client, req *http.Request, out any) error {
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return sonic.Unmarshal(data, out)
}
