package article

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/abdhe/comparison-poster/pkg/catalog"
)

// postTemplate renders the full article body. The markup mirrors the
// acap-* class structure the target sites style.
var postTemplate = template.Must(template.New("post").Funcs(template.FuncMap{
	"shortTitle": shortTitle,
	"lower":      strings.ToLower,
}).Parse(`<p>{{.Intro}}</p>
<div class="acap-picks">
{{- if .Top}}
  <div class="acap-bestfor-box acap-bestfor-box--ec">
    <div class="acap-bestfor-title"><span class="acap-label acap-label--ec">Editor's Choice</span></div>
    <div class="acap-ec">
{{- if .Top.ImageURL}}
      <a class="acap-ec-thumb" href="{{.Top.URL}}" target="_blank" rel="nofollow sponsored noopener"><img src="{{.Top.ImageURL}}" alt="{{shortTitle .Top.Title}}" width="240" height="240" loading="lazy" /></a>
{{- end}}
      <a class="acap-ec-title" href="{{.Top.URL}}" target="_blank" rel="nofollow sponsored noopener">{{shortTitle .Top.Title}}</a>
{{- if .TopBadge}}
      <span class="acap-badge-inline">{{.TopBadge}}</span>
{{- end}}
    </div>
  </div>
{{- end}}
  <div class="acap-bestfor-box">
    <div class="acap-bestfor-title">Best for a specific purpose</div>
    <ul class="acap-list">
{{- range .Cards}}{{if .Badge}}
      <li><strong>Best for {{lower .Badge}}:</strong> <a href="{{.Product.URL}}" target="_blank" rel="nofollow sponsored noopener" class="acap-bestfor-link">{{shortTitle .Product.Title}}</a></li>
{{- end}}{{end}}
    </ul>
  </div>
</div>
<div class="acap-compare-wrap">
  <h2>Product Comparison: {{.Keyword}}</h2>
  <div class="acap-vstack">
{{- range .Cards}}
    <div class="acap-box">
{{- if .Badge}}
      <div class="acap-badge">{{.Badge}}</div>
{{- end}}
      <h3 class="acap-title">{{.Product.Title}}</h3>
{{- if .Product.ImageURL}}
      <img class="acap-img" src="{{.Product.ImageURL}}" alt="{{.Product.Title}}" loading="lazy" />
{{- end}}
      <div class="acap-brand">{{if .Product.Brand}}{{.Product.Brand}}{{else}}&mdash;{{end}}</div>
{{- if .Review}}
      <p class="acap-review">{{.Review}}</p>
{{- end}}
{{- if .Product.Features}}
      <ul class="acap-features">
{{- range .Product.Features}}
        <li>{{.}}</li>
{{- end}}
      </ul>
{{- end}}
      <a class="acap-btn" href="{{.Product.URL}}" rel="nofollow sponsored noopener" target="_blank">Check price</a>
    </div>
{{- end}}
  </div>
  <p class="acap-note"><em>Product prices and availability are accurate as of the date/time indicated and are subject to change.</em></p>
</div>
<h2>Buying Guide</h2>
<div class="acap-buying-guide">
  <h3>{{.Guide.Title}}</h3>
{{- range .Guide.Sections}}
{{- if .Heading}}
  <h4>{{.Heading}}</h4>
{{- end}}
  <ul>
{{- range .Bullets}}
    <li>{{.}}</li>
{{- end}}
  </ul>
{{- end}}
</div>
<h2>FAQs</h2>
<div class="acap-faqs">
{{- range .FAQs}}
  <details>
    <summary>{{.Question}}</summary>
    <p>{{.Answer}}</p>
  </details>
{{- end}}
</div>
`))

type card struct {
	Product catalog.Product
	Badge   string
	Review  string
}

type postData struct {
	Keyword  string
	Intro    string
	Top      *catalog.Product
	TopBadge string
	Cards    []card
	Guide    Guide
	FAQs     []FAQ
}

// Build assembles the complete post body from generated content and the
// product list. Product order is preserved.
func Build(keyword string, products []catalog.Product, c Content) (string, error) {
	badgeMap := make(map[string]string, len(c.Badges.Badges))
	for _, b := range c.Badges.Badges {
		badgeMap[b.ASIN] = b.Badge
	}

	data := postData{
		Keyword: titleCase(keyword),
		Intro:   c.Intro,
		Guide:   c.Guide,
		FAQs:    c.FAQs,
	}
	for i := range products {
		p := products[i]
		if p.ASIN == c.Badges.TopRecommendation.ASIN {
			data.Top = &products[i]
			data.TopBadge = badgeMap[p.ASIN]
		}
		data.Cards = append(data.Cards, card{
			Product: p,
			Badge:   badgeMap[p.ASIN],
			Review:  c.Reviews[p.ASIN],
		})
	}

	var sb strings.Builder
	if err := postTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("article: render post: %w", err)
	}
	return sb.String(), nil
}

// shortTitle cuts a marketplace title at the first comma, which is where
// the keyword-stuffed tail usually starts.
func shortTitle(title string) string {
	if i := strings.Index(title, ","); i >= 0 {
		return strings.TrimSpace(title[:i])
	}
	return title
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
			r[0] = r[0] - 'a' + 'A'
		}
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
