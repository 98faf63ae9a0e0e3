// Package article turns catalog products into marketing copy and assembles
// the final HTML post.
package article

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/abdhe/comparison-poster/pkg/catalog"
	"github.com/abdhe/comparison-poster/pkg/llm"
)

// Badge assigns a short "best for X" label to one product.
type Badge struct {
	ASIN  string `json:"asin"`
	Badge string `json:"badge"`
}

// Badges is the per-article badge assignment plus the editor's-choice pick.
type Badges struct {
	Badges            []Badge `json:"badges"`
	TopRecommendation struct {
		ASIN string `json:"asin"`
	} `json:"top_recommendation"`
}

// GuideSection is one heading with its bullet points in the buying guide.
type GuideSection struct {
	Heading string   `json:"heading"`
	Bullets []string `json:"bullets"`
}

// Guide is the generated buying guide.
type Guide struct {
	Title    string         `json:"title"`
	Sections []GuideSection `json:"sections"`
}

// FAQ is one question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Content is everything the builder needs for one article.
type Content struct {
	Intro   string
	Badges  Badges
	Guide   Guide
	FAQs    []FAQ
	Reviews map[string]string // ASIN → review paragraph
}

// reviewBatchSize bounds how many products go into one review prompt; the
// models start truncating JSON past roughly four products.
const reviewBatchSize = 4

// Generator produces article copy through a generation backend.
type Generator struct {
	gen llm.Generator
	log logrus.FieldLogger
}

// NewGenerator creates a content generator over gen.
func NewGenerator(gen llm.Generator, log logrus.FieldLogger) *Generator {
	return &Generator{gen: gen, log: log}
}

// GenerateAll produces every section for a keyword, sequentially. The
// external generation quota is the bottleneck, so there is no fan-out; a
// failed section fails the article.
func (g *Generator) GenerateAll(ctx context.Context, keyword string, products []catalog.Product) (Content, error) {
	var c Content
	var err error

	g.log.Infof("generating intro for %q", keyword)
	if c.Intro, err = g.Intro(ctx, keyword); err != nil {
		return Content{}, fmt.Errorf("intro: %w", err)
	}

	g.log.Infof("generating badges for %d products", len(products))
	if c.Badges, err = g.Badges(ctx, keyword, products); err != nil {
		return Content{}, fmt.Errorf("badges: %w", err)
	}

	g.log.Info("generating buying guide")
	if c.Guide, err = g.BuyingGuide(ctx, keyword, products); err != nil {
		return Content{}, fmt.Errorf("buying guide: %w", err)
	}

	g.log.Info("generating FAQs")
	if c.FAQs, err = g.FAQs(ctx, keyword, products); err != nil {
		return Content{}, fmt.Errorf("faqs: %w", err)
	}

	c.Reviews = make(map[string]string, len(products))
	for start := 0; start < len(products); start += reviewBatchSize {
		end := start + reviewBatchSize
		if end > len(products) {
			end = len(products)
		}
		g.log.Infof("generating reviews %d-%d", start+1, end)
		batch, err := g.Reviews(ctx, keyword, products[start:end])
		if err != nil {
			return Content{}, fmt.Errorf("reviews: %w", err)
		}
		for asin, review := range batch {
			c.Reviews[asin] = review
		}
	}

	return c, nil
}

// Intro generates the opening paragraph.
func (g *Generator) Intro(ctx context.Context, keyword string) (string, error) {
	res, err := g.gen.Generate(ctx, llm.Request{
		SystemPrompt: "You write concise, engaging introductions for product comparison articles. Respond with the paragraph only, no headings and no markdown.",
		Prompt:       fmt.Sprintf("Write a single introduction paragraph (60-90 words) for a comparison article about %q. Address the reader directly and mention what the article compares.", keyword),
		MaxTokens:    400,
		Temperature:  0.7,
	})
	if err != nil {
		return "", err
	}

	intro := strings.TrimSpace(res.Text)
	// Models occasionally echo a heading above the paragraph.
	if i := strings.LastIndex(intro, "\n"); i >= 0 && strings.HasPrefix(intro, "#") {
		intro = strings.TrimSpace(intro[i+1:])
	}
	if intro == "" {
		return "", fmt.Errorf("article: empty intro")
	}
	return intro, nil
}

// Badges assigns one short use-case badge per product and picks the top
// recommendation.
func (g *Generator) Badges(ctx context.Context, keyword string, products []catalog.Product) (Badges, error) {
	var sb strings.Builder
	for _, p := range products {
		fmt.Fprintf(&sb, "- %s: %s\n", p.ASIN, p.Title)
	}

	prompt := fmt.Sprintf(`For a comparison article about %q, assign each product below a short badge (2-4 words) naming what it is best for, and pick one overall top recommendation.

Products:
%s
Respond with JSON only, exactly this shape:
{"badges": [{"asin": "...", "badge": "..."}], "top_recommendation": {"asin": "..."}}`, keyword, sb.String())

	res, err := g.gen.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: 1200, Temperature: 0.5})
	if err != nil {
		return Badges{}, err
	}

	var badges Badges
	if err := decodeJSON(res.Text, &badges); err != nil {
		return Badges{}, err
	}
	if len(badges.Badges) == 0 {
		return Badges{}, fmt.Errorf("article: no badges in response")
	}
	if badges.TopRecommendation.ASIN == "" {
		badges.TopRecommendation.ASIN = badges.Badges[0].ASIN
	}
	return badges, nil
}

// BuyingGuide generates the buying guide section.
func (g *Generator) BuyingGuide(ctx context.Context, keyword string, products []catalog.Product) (Guide, error) {
	prompt := fmt.Sprintf(`Write a buying guide for %q (%d products compared). Cover 3-4 decision factors, each with 2-4 short bullets.

Respond with JSON only, exactly this shape:
{"title": "...", "sections": [{"heading": "...", "bullets": ["...", "..."]}]}`, keyword, len(products))

	res, err := g.gen.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: 1500, Temperature: 0.6})
	if err != nil {
		return Guide{}, err
	}

	var guide Guide
	if err := decodeJSON(res.Text, &guide); err != nil {
		return Guide{}, err
	}
	if guide.Title == "" || len(guide.Sections) == 0 {
		return Guide{}, fmt.Errorf("article: incomplete buying guide")
	}
	return guide, nil
}

// FAQs generates question/answer pairs for the article.
func (g *Generator) FAQs(ctx context.Context, keyword string, products []catalog.Product) ([]FAQ, error) {
	prompt := fmt.Sprintf(`Write 4-6 frequently asked questions with short answers for buyers researching %q.

Respond with JSON only, exactly this shape:
[{"question": "...", "answer": "..."}]`, keyword)

	res, err := g.gen.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: 1500, Temperature: 0.6})
	if err != nil {
		return nil, err
	}

	var faqs []FAQ
	if err := decodeJSON(res.Text, &faqs); err != nil {
		return nil, err
	}
	if len(faqs) == 0 {
		return nil, fmt.Errorf("article: no FAQs in response")
	}
	return faqs, nil
}

// Reviews generates one review paragraph per product in the batch, keyed by
// ASIN.
func (g *Generator) Reviews(ctx context.Context, keyword string, batch []catalog.Product) (map[string]string, error) {
	var sb strings.Builder
	for _, p := range batch {
		fmt.Fprintf(&sb, "- %s: %s", p.ASIN, p.Title)
		if len(p.Features) > 0 {
			fmt.Fprintf(&sb, " (features: %s)", strings.Join(p.Features, "; "))
		}
		sb.WriteString("\n")
	}

	prompt := fmt.Sprintf(`Write a 60-100 word review paragraph for each product below, in the context of a comparison article about %q. Base each review on the listed features.

Products:
%s
Respond with JSON only: an object mapping each asin to its review paragraph.`, keyword, sb.String())

	res, err := g.gen.Generate(ctx, llm.Request{Prompt: prompt, MaxTokens: 2500, Temperature: 0.7})
	if err != nil {
		return nil, err
	}

	reviews := make(map[string]string)
	if err := decodeJSON(res.Text, &reviews); err != nil {
		return nil, err
	}
	for _, p := range batch {
		if strings.TrimSpace(reviews[p.ASIN]) == "" {
			return nil, fmt.Errorf("article: missing review for %s", p.ASIN)
		}
	}
	return reviews, nil
}
