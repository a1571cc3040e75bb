package taxonomy

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"trendscout/models"
)

// Loader fetches the remote category/subcategory/topic tree. Every failure
// mode degrades to an empty taxonomy: callers must treat empty as "not
// ready" rather than an error.
type Loader struct {
	URL     string
	Timeout time.Duration
	Client  *http.Client // optional
	Logger  *log.Logger  // optional
}

func NewLoader(url string, timeout time.Duration) *Loader {
	return &Loader{URL: url, Timeout: timeout}
}

func (l *Loader) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.New(log.Writer(), "[TAXONOMY] ", log.LstdFlags)
}

// Load fetches and validates the taxonomy. On a missing endpoint, network
// error, or schema-validation failure it logs and returns an empty tree.
func (l *Loader) Load(ctx context.Context) models.Taxonomy {
	logger := l.logger()
	if l.URL == "" {
		logger.Printf("taxonomy url not configured, taxonomy stays empty")
		return models.Taxonomy{}
	}

	tax, err := l.fetch(ctx)
	if err != nil {
		logger.Printf("taxonomy load failed: %v", err)
		return models.Taxonomy{}
	}
	logger.Printf("taxonomy loaded (%d categories)", len(tax.Categories))
	return tax
}

func (l *Loader) fetch(ctx context.Context) (models.Taxonomy, error) {
	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "GET", l.URL, nil)
	if err != nil {
		return models.Taxonomy{}, err
	}
	req.Header.Set("Accept", "application/json")

	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Taxonomy{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Taxonomy{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var tax models.Taxonomy
	if err := json.NewDecoder(resp.Body).Decode(&tax); err != nil {
		return models.Taxonomy{}, fmt.Errorf("decode: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return models.Taxonomy{}, err
	}
	return tax, nil
}
