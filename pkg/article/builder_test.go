package article

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdhe/comparison-poster/pkg/catalog"
)

func buildContent(products []catalog.Product) Content {
	c := Content{
		Intro:   "An intro about hoses.",
		Guide:   Guide{Title: "How to choose", Sections: []GuideSection{{Heading: "Length", Bullets: []string{"measure the yard"}}}},
		FAQs:    []FAQ{{Question: "Does it kink?", Answer: "Rarely."}},
		Reviews: map[string]string{},
	}
	for i, p := range products {
		c.Badges.Badges = append(c.Badges.Badges, Badge{ASIN: p.ASIN, Badge: "small yards"})
		c.Reviews[p.ASIN] = "Review of " + p.ASIN
		if i == 0 {
			c.Badges.TopRecommendation.ASIN = p.ASIN
		}
	}
	return c
}

func TestBuild(t *testing.T) {
	products := testProducts(3)
	html, err := Build("garden hoses", products, buildContent(products))
	require.NoError(t, err)

	assert.Contains(t, html, "<p>An intro about hoses.</p>")
	assert.Contains(t, html, "Editor's Choice")
	assert.Contains(t, html, "Product Comparison: Garden Hoses")
	assert.Contains(t, html, "How to choose")
	assert.Contains(t, html, "Does it kink?")
	for _, p := range products {
		assert.Contains(t, html, p.URL)
		assert.Contains(t, html, "Review of "+p.ASIN)
	}

	// Cards preserve product order.
	first := strings.Index(html, "Review of "+products[0].ASIN)
	last := strings.Index(html, "Review of "+products[2].ASIN)
	assert.Less(t, first, last)
}

func TestBuildNoTopRecommendationMatch(t *testing.T) {
	products := testProducts(2)
	c := buildContent(products)
	c.Badges.TopRecommendation.ASIN = "NOTFOUND"

	html, err := Build("garden hoses", products, c)
	require.NoError(t, err)
	assert.NotContains(t, html, "acap-bestfor-box--ec", "no editor's choice box without a matching product")
}

func TestBuildEscapesProductText(t *testing.T) {
	products := testProducts(1)
	products[0].Title = `Hose <script>alert("x")</script>`
	c := buildContent(products)

	html, err := Build("garden hoses", products, c)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestShortTitle(t *testing.T) {
	assert.Equal(t, "Expandable Hose", shortTitle("Expandable Hose, 50ft, Leakproof, 2026 Upgrade"))
	assert.Equal(t, "Plain Title", shortTitle("Plain Title"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Garden Hoses", titleCase("garden hoses"))
	assert.Equal(t, "USB Hubs", titleCase("USB hubs"))
}
