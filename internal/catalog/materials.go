// Package catalog holds the learning materials shown next to the quizzes.
package catalog

import "strings"

type MaterialType string

const (
	TypePDF   MaterialType = "pdf"
	TypeVideo MaterialType = "video"
)

type Material struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Type        MaterialType `json:"type"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	Link        string       `json:"link"`
}

type Catalog struct {
	items []Material
}

func New(items []Material) *Catalog {
	cp := make([]Material, len(items))
	copy(cp, items)
	return &Catalog{items: cp}
}

// Default returns the built-in materials, one per quiz topic.
func Default() *Catalog {
	return New([]Material{
		{
			ID:          1,
			Title:       "Engaging Your Audience & Drafting Openers",
			Type:        TypePDF,
			Category:    "Foundation",
			Description: "Learn how to hook your audience from the very first second.",
			Link:        "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
		},
		{
			ID:          2,
			Title:       "Delivery Techniques",
			Type:        TypeVideo,
			Category:    "Delivery",
			Description: "Mastering voice, tone, and pacing for impactful speech.",
			Link:        "https://www.youtube.com/watch?v=Unzc731iCUY",
		},
		{
			ID:          3,
			Title:       "Visual Aids & Drafting Body",
			Type:        TypePDF,
			Category:    "Visuals",
			Description: "How to create slides that support, not distract.",
			Link:        "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf",
		},
		{
			ID:          4,
			Title:       "Handling Questions",
			Type:        TypeVideo,
			Category:    "Q&A",
			Description: "Strategies to handle tough questions with confidence.",
			Link:        "https://www.youtube.com/watch?v=ad79nYk2keg",
		},
	})
}

// Filter matches kind against the material type ("" or "all" match any) and
// search as a case-insensitive substring of the title.
func (c *Catalog) Filter(kind, search string) []Material {
	kind = strings.ToLower(strings.TrimSpace(kind))
	search = strings.ToLower(search)
	out := make([]Material, 0, len(c.items))
	for _, m := range c.items {
		if kind != "" && kind != "all" && strings.ToLower(string(m.Type)) != kind {
			continue
		}
		if !strings.Contains(strings.ToLower(m.Title), search) {
			continue
		}
		out = append(out, m)
	}
	return out
}
