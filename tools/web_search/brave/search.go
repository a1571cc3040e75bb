package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"trendscout/tools/web_search/models"
	"trendscout/utils"
)

type Search struct {
	ApiKey  string
	Timeout time.Duration
}

func (s Search) Search(ctx context.Context, req models.Request) ([]models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	url := fmt.Sprintf("https://api.search.brave.com/res/v1/web/search?q=%s&count=%d", utils.UrlQuery(searchQuery(req)), req.MaxResults)
	if f := freshness(req.TimeRange); f != "" {
		url += "&freshness=" + f
	}
	httpReq, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Subscription-Token", s.ApiKey)

	client := &http.Client{Timeout: s.Timeout}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []models.Result
	for i, r := range raw.Web.Results {
		if req.MaxResults > 0 && i >= req.MaxResults {
			break
		}
		// Brave reports no relevance score; rank order stands in.
		out = append(out, models.Result{
			Title:   r.Title,
			URL:     r.URL,
			Score:   1 - float64(i)/float64(len(raw.Web.Results)),
			Content: r.Snippet,
		})
	}
	return out, nil
}

// searchQuery appends site: operators for the allowed domains; brave has no
// include_domains parameter, so the restriction rides in the query string.
func searchQuery(req models.Request) string {
	if len(req.IncludeDomains) == 0 {
		return req.Query
	}
	sites := make([]string, len(req.IncludeDomains))
	for i, d := range req.IncludeDomains {
		sites[i] = "site:" + d
	}
	return req.Query + " (" + strings.Join(sites, " OR ") + ")"
}

func freshness(timeRange string) string {
	switch timeRange {
	case "day":
		return "pd"
	case "week":
		return "pw"
	case "month":
		return "pm"
	default:
		return ""
	}
}
