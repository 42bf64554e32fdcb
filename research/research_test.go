package research

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbxark/mediaplan/internal/llmtest"
	"github.com/tbxark/mediaplan/types"
)

func TestSerperSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"q":"coffee"`)
		_, _ = w.Write([]byte(`{"organic":[
			{"title":"A","link":"https://a.example","snippet":"first"},
			{"title":"B","link":"https://b.example","snippet":"second"},
			{"title":"C","link":"https://c.example","snippet":"third"}]}`))
	}))
	defer srv.Close()

	s, err := NewSearcher(ProviderSerper, "secret", WithEndpoint(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	results, err := s.Search(context.Background(), "coffee", 2)
	require.NoError(t, err)
	assert.Equal(t, []Result{
		{Title: "A", URL: "https://a.example", Snippet: "first"},
		{Title: "B", URL: "https://b.example", Snippet: "second"},
	}, results)
}

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "token", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, "coffee shops", r.URL.Query().Get("q"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		_, _ = w.Write([]byte(`{"web":{"results":[{"title":"A","url":"https://a.example","description":"first"}]}}`))
	}))
	defer srv.Close()

	s, err := NewSearcher(ProviderBrave, "token", WithEndpoint(srv.URL))
	require.NoError(t, err)
	results, err := s.Search(context.Background(), "coffee shops", 3)
	require.NoError(t, err)
	assert.Equal(t, []Result{{Title: "A", URL: "https://a.example", Snippet: "first"}}, results)
}

func TestSearchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s, err := NewSearcher(ProviderSerper, "k", WithEndpoint(srv.URL))
	require.NoError(t, err)
	_, err = s.Search(context.Background(), "q", 1)
	assert.ErrorContains(t, err, "429")
}

func TestNewSearcherProviders(t *testing.T) {
	s, err := NewSearcher("", "")
	require.NoError(t, err)
	assert.IsType(t, NopSearcher{}, s)

	_, err = NewSearcher("bing", "")
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
}

type stubSearcher struct {
	queries []string
	err     error
}

func (s *stubSearcher) Search(_ context.Context, query string, count int) ([]Result, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return []Result{{Title: "Hit for " + query, URL: "https://hit.example"}}, nil
}

func TestBusinessResearch(t *testing.T) {
	var prompt string
	m := llmtest.New().On(businessToolName, func(msgs []*schema.Message) (*schema.Message, error) {
		prompt = llmtest.LastUser(msgs)
		return llmtest.ToolCall(businessToolName, `{"industry":" Coffee ","products":["Beans"],"target_audience":"Commuters","existing_marketing":"Instagram"}`)(msgs)
	})
	search := &stubSearcher{}
	r, err := NewResearcher(m, search, WithResultsPerQuery(3))
	require.NoError(t, err)

	profile, err := r.Business(context.Background(), "https://brew.example")
	require.NoError(t, err)
	assert.Equal(t, "Coffee", profile.Industry)
	assert.Equal(t, []string{"Beans"}, profile.Products)
	assert.Len(t, search.queries, 2)
	assert.Contains(t, prompt, "https://brew.example")
	assert.Contains(t, prompt, "Hit for")
}

func TestBusinessResearchToleratesSearchFailure(t *testing.T) {
	m := llmtest.New().On(businessToolName, llmtest.ToolCall(businessToolName, `{"industry":"Bakery"}`))
	r, err := NewResearcher(m, &stubSearcher{err: errors.New("down")})
	require.NoError(t, err)

	profile, err := r.Business(context.Background(), "bread.example")
	require.NoError(t, err)
	assert.Equal(t, "Bakery", profile.Industry)
	assert.True(t, strings.Contains(llmtest.LastUser(m.Calls()[0].Messages), "No results."))
}

func TestBusinessResearchModelFailure(t *testing.T) {
	m := llmtest.New().On(businessToolName, llmtest.Fail())
	r, err := NewResearcher(m, nil)
	require.NoError(t, err)

	_, err = r.Business(context.Background(), "bread.example")
	assert.ErrorIs(t, err, llmtest.ErrUnavailable)
}

func TestCompetitorResearch(t *testing.T) {
	m := llmtest.New().On(competitorToolName, llmtest.ToolCall(competitorToolName, `{
		"competitors":[{"competitor_name":"Bean Co","ad_platforms":["Instagram"]},{"competitor_name":" "}],
		"trends":["cold brew"],
		"industry_strategy":"Lean on short video."}`))
	r, err := NewResearcher(m, &stubSearcher{})
	require.NoError(t, err)

	report, err := r.Competitors(context.Background(), types.BusinessProfile{Industry: "Coffee"})
	require.NoError(t, err)
	require.Len(t, report.Competitors, 1)
	assert.Equal(t, "Bean Co", report.Competitors[0].Name)
	assert.Equal(t, "Lean on short video.", report.IndustryStrategy)

	report, err = r.Competitors(context.Background(), types.BusinessProfile{})
	require.NoError(t, err)
	assert.Empty(t, report.Competitors)
	assert.Equal(t, 1, m.CallCount(competitorToolName))
}
