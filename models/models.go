package models

import (
	"errors"
	"fmt"
	"time"
)

// Trend statuses. A trend starts unreviewed and is promoted by editorial
// tooling outside this service.
const (
	TrendStatusUnreviewed = "unreviewed"
)

// Research session statuses.
const (
	SessionStatusScouting = "scouting"
	SessionStatusDone     = "done"
)

var (
	// ErrCategoryNotFound is returned when the policy's active category is
	// missing from the taxonomy or carries no subcategories.
	ErrCategoryNotFound = errors.New("active category not found")

	// ErrTopicsExhausted is returned when every topic of the chosen
	// subcategory is excluded.
	ErrTopicsExhausted = errors.New("no topics available after exclusions")
)

// ParentDetails records where in the taxonomy a trend was discovered.
type ParentDetails struct {
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Topics      []string `json:"topics"`
}

// Trend is a named, evidence-grounded emerging topic synthesized by the LLM
// from search results. ID is empty until the store assigns one.
type Trend struct {
	ID            string        `json:"id,omitempty"`
	Name          string        `json:"name"`
	Context       string        `json:"context"`
	ParentDetails ParentDetails `json:"parent_details"`
	Status        string        `json:"status"`
}

// ResearchSession represents one scouting run for one topic.
type ResearchSession struct {
	ID        string    `json:"id,omitempty"`
	Topic     string    `json:"topic"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ScrapedArticle is a single feed entry kept by a scouting run. Articles are
// ephemeral until batch-inserted under a session id and never mutated after.
type ScrapedArticle struct {
	Source      string `json:"source"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Summary     string `json:"summary"`
	PublishedAt string `json:"published_at"`
}

// Subcategory holds an ordered topic list and the source URLs search is
// allowed to cite for it.
type Subcategory struct {
	Name   string   `json:"name"`
	Topics []string `json:"topics"`
	URLs   []string `json:"urls"`
}

// Category is one node of the remote taxonomy tree.
type Category struct {
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

// Taxonomy is the category -> subcategory -> topics/urls tree driving topic
// selection. An empty taxonomy means "not ready"; callers must not select
// against it.
type Taxonomy struct {
	Categories []Category `json:"categories"`
}

// Validate enforces the structural invariants of a remote taxonomy payload:
// named categories and subcategory names unique within each category.
func (t Taxonomy) Validate() error {
	for _, cat := range t.Categories {
		if cat.Name == "" {
			return errors.New("taxonomy: category with empty name")
		}
		seen := make(map[string]struct{}, len(cat.Subcategories))
		for _, sub := range cat.Subcategories {
			if sub.Name == "" {
				return fmt.Errorf("taxonomy: category %q has a subcategory with empty name", cat.Name)
			}
			if _, ok := seen[sub.Name]; ok {
				return fmt.Errorf("taxonomy: duplicate subcategory %q in category %q", sub.Name, cat.Name)
			}
			seen[sub.Name] = struct{}{}
		}
	}
	return nil
}

// Empty reports whether the taxonomy carries no categories at all.
func (t Taxonomy) Empty() bool { return len(t.Categories) == 0 }
