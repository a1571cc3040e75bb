package models

import "testing"

func TestTaxonomyValidate(t *testing.T) {
	cases := []struct {
		name    string
		tax     Taxonomy
		wantErr bool
	}{
		{"empty tree", Taxonomy{}, false},
		{"valid tree", Taxonomy{Categories: []Category{{
			Name: "technology",
			Subcategories: []Subcategory{
				{Name: "ai", Topics: []string{"agents"}},
				{Name: "infra"},
			},
		}}}, false},
		{"unnamed category", Taxonomy{Categories: []Category{{Name: ""}}}, true},
		{"unnamed subcategory", Taxonomy{Categories: []Category{{
			Name:          "technology",
			Subcategories: []Subcategory{{Name: ""}},
		}}}, true},
		{"duplicate subcategory", Taxonomy{Categories: []Category{{
			Name: "technology",
			Subcategories: []Subcategory{
				{Name: "ai"},
				{Name: "ai"},
			},
		}}}, true},
		{"same name across categories is fine", Taxonomy{Categories: []Category{
			{Name: "technology", Subcategories: []Subcategory{{Name: "news"}}},
			{Name: "science", Subcategories: []Subcategory{{Name: "news"}}},
		}}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.tax.Validate()
			if tc.wantErr && err == nil {
				t.Fatalf("expected an error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestTaxonomyEmpty(t *testing.T) {
	if !(Taxonomy{}).Empty() {
		t.Fatalf("a zero taxonomy must be empty")
	}
	if (Taxonomy{Categories: []Category{{Name: "x"}}}).Empty() {
		t.Fatalf("a populated taxonomy must not be empty")
	}
}
