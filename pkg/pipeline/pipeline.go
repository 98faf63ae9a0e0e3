// Package pipeline runs the sequential article workflow: claim a keyword,
// search the catalog, generate copy, assemble HTML, publish, record the
// outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/abdhe/comparison-poster/pkg/article"
	"github.com/abdhe/comparison-poster/pkg/catalog"
	"github.com/abdhe/comparison-poster/pkg/config"
	"github.com/abdhe/comparison-poster/pkg/metrics"
	"github.com/abdhe/comparison-poster/pkg/publish"
	"github.com/abdhe/comparison-poster/pkg/queue"
)

// Publisher is the slice of the CMS client the pipeline needs.
type Publisher interface {
	TestConnection(ctx context.Context) error
	CreatePost(ctx context.Context, p publish.Post) (publish.Created, error)
}

// Options configures a Pipeline.
type Options struct {
	Catalog     catalog.Searcher
	Generator   *article.Generator
	Publishers  map[int]Publisher // site ID → publisher
	Store       *queue.Store
	Sites       []config.Site
	MaxProducts int
	PostDelay   time.Duration
	Log         logrus.FieldLogger
}

// Pipeline processes queued keywords one at a time, rotating across target
// sites. One article is in flight at any moment; the external quotas are
// the bottleneck, not this process.
type Pipeline struct {
	catalog     catalog.Searcher
	gen         *article.Generator
	publishers  map[int]Publisher
	store       *queue.Store
	sites       []config.Site
	maxProducts int
	limiter     *rate.Limiter
	log         logrus.FieldLogger

	// pausePoll is how often the paused flag is re-read while paused.
	pausePoll time.Duration
	// maxConsecutiveFailures stops the batch to avoid burning catalog quota
	// on a systemic failure.
	maxConsecutiveFailures int
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	if opts.MaxProducts <= 0 {
		opts.MaxProducts = 10
	}
	if opts.PostDelay <= 0 {
		opts.PostDelay = 12 * time.Second
	}
	return &Pipeline{
		catalog:                opts.Catalog,
		gen:                    opts.Generator,
		publishers:             opts.Publishers,
		store:                  opts.Store,
		sites:                  opts.Sites,
		maxProducts:            opts.MaxProducts,
		limiter:                rate.NewLimiter(rate.Every(opts.PostDelay), 1),
		log:                    opts.Log,
		pausePoll:              5 * time.Second,
		maxConsecutiveFailures: 2,
	}
}

// ProcessKeyword runs the full workflow for one keyword against one site.
func (p *Pipeline) ProcessKeyword(ctx context.Context, site config.Site, keyword string) (publish.Created, error) {
	runID := uuid.NewString()
	log := p.log.WithFields(logrus.Fields{"run": runID, "site": site.Name, "keyword": keyword})

	log.Info("searching catalog")
	products, err := p.catalog.Search(ctx, keyword, p.maxProducts)
	if err != nil {
		return publish.Created{}, fmt.Errorf("catalog search: %w", err)
	}
	if len(products) == 0 {
		return publish.Created{}, fmt.Errorf("no products found for %q", keyword)
	}
	log.Infof("found %d products", len(products))

	content, err := p.gen.GenerateAll(ctx, keyword, products)
	if err != nil {
		return publish.Created{}, fmt.Errorf("generate content: %w", err)
	}

	body, err := article.Build(keyword, products, content)
	if err != nil {
		return publish.Created{}, err
	}

	pub, ok := p.publishers[site.ID]
	if !ok {
		return publish.Created{}, fmt.Errorf("no publisher for site %d", site.ID)
	}

	var categories []int
	if site.CategoryID > 0 {
		categories = []int{site.CategoryID}
	}

	log.Info("publishing")
	created, err := pub.CreatePost(ctx, publish.Post{
		Title:       "Comparison: " + titleOf(keyword),
		Content:     body,
		Status:      site.Status,
		AuthorID:    site.AuthorID,
		CategoryIDs: categories,
		Slug:        keyword,
	})
	if err != nil {
		return publish.Created{}, fmt.Errorf("publish: %w", err)
	}

	log.WithFields(logrus.Fields{"post_id": created.ID, "url": created.URL}).Info("posted")
	return created, nil
}

// Run drains the queue: it claims the oldest pending article for the
// current site, processes it, records the outcome, advances the site
// pointer, and paces itself. It returns nil when every site's queue is
// empty, and an error after too many consecutive failures or on context
// cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	consecutive := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		paused, err := p.store.Paused()
		if err != nil {
			return err
		}
		if paused {
			p.log.Debug("paused, waiting")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.pausePoll):
			}
			continue
		}

		art, site, err := p.claimNext()
		if err != nil {
			if errors.Is(err, queue.ErrNoPending) {
				p.log.Info("queue drained")
				return nil
			}
			return err
		}

		created, perr := p.ProcessKeyword(ctx, site, art.Keyword)
		if perr != nil {
			p.log.WithField("keyword", art.Keyword).Errorf("article failed: %v", perr)
			metrics.PostsPublishedTotal.WithLabelValues(site.Name, "failed").Inc()
			if err := p.store.MarkFailed(art.ID, perr); err != nil {
				return err
			}
			consecutive++
			if consecutive >= p.maxConsecutiveFailures {
				return fmt.Errorf("pipeline: stopping after %d consecutive failures: %w", consecutive, perr)
			}
		} else {
			metrics.PostsPublishedTotal.WithLabelValues(site.Name, "posted").Inc()
			if err := p.store.MarkPosted(art.ID, created.ID, created.URL); err != nil {
				return err
			}
			consecutive = 0
		}

		if _, err := p.store.AdvanceSite(len(p.sites)); err != nil {
			return err
		}
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
	}
}

// claimNext finds the oldest pending article, starting at the current site
// pointer and scanning the rotation order. Returns queue.ErrNoPending when
// every site is drained.
func (p *Pipeline) claimNext() (*queue.Article, config.Site, error) {
	cur, err := p.store.CurrentSite()
	if err != nil {
		return nil, config.Site{}, err
	}

	for i := 0; i < len(p.sites); i++ {
		site := p.sites[(cur+i)%len(p.sites)]
		art, err := p.store.NextPending(site.ID)
		if errors.Is(err, queue.ErrNoPending) {
			continue
		}
		if err != nil {
			return nil, config.Site{}, err
		}
		return art, site, nil
	}
	return nil, config.Site{}, queue.ErrNoPending
}

// titleOf uppercases the first letter of each word of the keyword for the
// post title.
func titleOf(keyword string) string {
	out := []rune(keyword)
	upNext := true
	for i, r := range out {
		if upNext && r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
		upNext = r == ' '
	}
	return string(out)
}
