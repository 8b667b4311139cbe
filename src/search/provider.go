package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider is one search backend in the fallback chain. Search returns
// the provider's best textual answer; an empty or sentinel answer counts
// as a miss and the chain moves on.
type Provider struct {
	ID     string
	Search func(ctx context.Context, query string) (string, error)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "aide-agent/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// DuckDuckGo queries the instant-answer API. Abstracts are preferred,
// falling back to the first related-topic snippet.
func DuckDuckGo(baseURL string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = "https://api.duckduckgo.com"
	}
	client := newHTTPClient(timeout)
	return Provider{
		ID: "duckduckgo",
		Search: func(ctx context.Context, query string) (string, error) {
			var body struct {
				AbstractText  string `json:"AbstractText"`
				Answer        string `json:"Answer"`
				RelatedTopics []struct {
					Text string `json:"Text"`
				} `json:"RelatedTopics"`
			}
			u := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", baseURL, url.QueryEscape(query))
			if err := getJSON(ctx, client, u, &body); err != nil {
				return "", err
			}
			switch {
			case body.AbstractText != "":
				return body.AbstractText, nil
			case body.Answer != "":
				return body.Answer, nil
			case len(body.RelatedTopics) > 0 && body.RelatedTopics[0].Text != "":
				return body.RelatedTopics[0].Text, nil
			}
			return "", nil
		},
	}
}

// Wikipedia uses the REST summary endpoint with the query as the title.
func Wikipedia(baseURL string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org/api/rest_v1"
	}
	client := newHTTPClient(timeout)
	return Provider{
		ID: "wikipedia",
		Search: func(ctx context.Context, query string) (string, error) {
			var body struct {
				Extract string `json:"extract"`
			}
			title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(query), " ", "_"))
			u := fmt.Sprintf("%s/page/summary/%s", baseURL, title)
			if err := getJSON(ctx, client, u, &body); err != nil {
				return "", err
			}
			return body.Extract, nil
		},
	}
}

// SearxNG queries a self-hosted metasearch instance.
func SearxNG(baseURL string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = "http://localhost:8888"
	}
	client := newHTTPClient(timeout)
	return Provider{
		ID: "searxng",
		Search: func(ctx context.Context, query string) (string, error) {
			var body struct {
				Results []struct {
					Title   string `json:"title"`
					Content string `json:"content"`
					URL     string `json:"url"`
				} `json:"results"`
			}
			u := fmt.Sprintf("%s/search?q=%s&format=json", baseURL, url.QueryEscape(query))
			if err := getJSON(ctx, client, u, &body); err != nil {
				return "", err
			}
			if len(body.Results) == 0 {
				return "", nil
			}
			var b strings.Builder
			for i, r := range body.Results {
				if i == 3 {
					break
				}
				fmt.Fprintf(&b, "%s: %s (%s)\n", r.Title, r.Content, r.URL)
			}
			return strings.TrimSpace(b.String()), nil
		},
	}
}

// WolframAlpha uses the short-answers API and needs an app ID.
func WolframAlpha(baseURL, appID string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = "https://api.wolframalpha.com"
	}
	client := newHTTPClient(timeout)
	return Provider{
		ID: "wolframalpha",
		Search: func(ctx context.Context, query string) (string, error) {
			if appID == "" {
				return "", fmt.Errorf("wolframalpha app id not configured")
			}
			u := fmt.Sprintf("%s/v1/result?appid=%s&i=%s", baseURL, url.QueryEscape(appID), url.QueryEscape(query))
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
			if err != nil {
				return "", err
			}
			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
			if err != nil {
				return "", err
			}
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("status %d", resp.StatusCode)
			}
			return strings.TrimSpace(string(body)), nil
		},
	}
}

// OpenMeteo answers weather-shaped queries with current conditions. It
// declines anything that does not mention weather so the chain can move
// on without a wasted request.
func OpenMeteo(baseURL string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	client := newHTTPClient(timeout)
	return Provider{
		ID: "openmeteo",
		Search: func(ctx context.Context, query string) (string, error) {
			lower := strings.ToLower(query)
			if !strings.Contains(lower, "weather") && !strings.Contains(lower, "temperature") {
				return "", nil
			}
			var body struct {
				CurrentWeather struct {
					Temperature float64 `json:"temperature"`
					Windspeed   float64 `json:"windspeed"`
				} `json:"current_weather"`
			}
			u := fmt.Sprintf("%s/v1/forecast?latitude=0&longitude=0&current_weather=true", baseURL)
			if err := getJSON(ctx, client, u, &body); err != nil {
				return "", err
			}
			return fmt.Sprintf("Current temperature %.1f°C, wind %.1f km/h",
				body.CurrentWeather.Temperature, body.CurrentWeather.Windspeed), nil
		},
	}
}

// Perplexity calls the chat completions API with the query as a single
// user message and needs an API key.
func Perplexity(baseURL, apiKey string, timeout time.Duration) Provider {
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	client := newHTTPClient(timeout)
	return Provider{
		ID: "perplexity",
		Search: func(ctx context.Context, query string) (string, error) {
			if apiKey == "" {
				return "", fmt.Errorf("perplexity api key not configured")
			}
			payload, err := json.Marshal(map[string]any{
				"model": "sonar",
				"messages": []map[string]string{
					{"role": "user", "content": query},
				},
			})
			if err != nil {
				return "", err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				baseURL+"/chat/completions", strings.NewReader(string(payload)))
			if err != nil {
				return "", err
			}
			req.Header.Set("Authorization", "Bearer "+apiKey)
			req.Header.Set("Content-Type", "application/json")
			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("status %d", resp.StatusCode)
			}
			var body struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				return "", err
			}
			if len(body.Choices) == 0 {
				return "", nil
			}
			return body.Choices[0].Message.Content, nil
		},
	}
}
