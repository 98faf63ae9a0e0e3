// Package queue coordinates multi-site posting through a small relational
// store: the keyword queue, per-article status, the paused flag, and the
// pointer to the current target site.
package queue

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Article statuses.
const (
	StatusPending = "pending"
	StatusPosted  = "posted"
	StatusFailed  = "failed"
)

// ErrNoPending is returned when a site has no pending articles left.
var ErrNoPending = errors.New("queue: no pending articles")

// Article is one queued keyword for one site.
type Article struct {
	ID        uint   `gorm:"primaryKey"`
	SiteID    int    `gorm:"index:idx_site_status"`
	Keyword   string `gorm:"index"`
	Status    string `gorm:"index:idx_site_status"`
	PostID    int
	PostURL   string
	LastError string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Control is the single coordination row: the paused flag and the rotation
// pointer across sites.
type Control struct {
	ID          uint `gorm:"primaryKey"`
	Paused      bool
	CurrentSite int
	UpdatedAt   time.Time
}

// Store wraps the sqlite database.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the store at path and migrates the
// schema. The control row is created on first open.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("queue: open %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Article{}, &Control{}); err != nil {
		return nil, fmt.Errorf("queue: migrate: %w", err)
	}

	var control Control
	if err := db.First(&control).Error; errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(&Control{}).Error; err != nil {
			return nil, fmt.Errorf("queue: init control row: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("queue: load control row: %w", err)
	}

	return &Store{db: db}, nil
}

// Enqueue adds keywords for a site, skipping ones already queued or posted
// for that site.
func (s *Store) Enqueue(siteID int, keywords []string) (int, error) {
	added := 0
	for _, kw := range keywords {
		var count int64
		if err := s.db.Model(&Article{}).
			Where("site_id = ? AND keyword = ?", siteID, kw).
			Count(&count).Error; err != nil {
			return added, fmt.Errorf("queue: check keyword %q: %w", kw, err)
		}
		if count > 0 {
			continue
		}
		if err := s.db.Create(&Article{SiteID: siteID, Keyword: kw, Status: StatusPending}).Error; err != nil {
			return added, fmt.Errorf("queue: enqueue %q: %w", kw, err)
		}
		added++
	}
	return added, nil
}

// NextPending returns the oldest pending article for a site, or
// ErrNoPending.
func (s *Store) NextPending(siteID int) (*Article, error) {
	var a Article
	err := s.db.Where("site_id = ? AND status = ?", siteID, StatusPending).
		Order("id").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoPending
	}
	if err != nil {
		return nil, fmt.Errorf("queue: next pending: %w", err)
	}
	return &a, nil
}

// MarkPosted records a successful publish for an article.
func (s *Store) MarkPosted(id uint, postID int, postURL string) error {
	return s.updateArticle(id, map[string]any{
		"status":     StatusPosted,
		"post_id":    postID,
		"post_url":   postURL,
		"last_error": "",
	})
}

// MarkFailed records a failed attempt. The article stays in the queue with
// status failed; re-enqueueing is an explicit operator action.
func (s *Store) MarkFailed(id uint, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.updateArticle(id, map[string]any{
		"status":     StatusFailed,
		"last_error": msg,
	})
}

func (s *Store) updateArticle(id uint, fields map[string]any) error {
	res := s.db.Model(&Article{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("queue: update article %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("queue: article %d not found", id)
	}
	return nil
}

// SetPaused sets the paused flag.
func (s *Store) SetPaused(paused bool) error {
	if err := s.db.Model(&Control{}).Where("1 = 1").Update("paused", paused).Error; err != nil {
		return fmt.Errorf("queue: set paused: %w", err)
	}
	return nil
}

// Paused reports the paused flag.
func (s *Store) Paused() (bool, error) {
	var c Control
	if err := s.db.First(&c).Error; err != nil {
		return false, fmt.Errorf("queue: read control: %w", err)
	}
	return c.Paused, nil
}

// CurrentSite returns the rotation pointer.
func (s *Store) CurrentSite() (int, error) {
	var c Control
	if err := s.db.First(&c).Error; err != nil {
		return 0, fmt.Errorf("queue: read control: %w", err)
	}
	return c.CurrentSite, nil
}

// AdvanceSite moves the rotation pointer to the next site modulo siteCount
// and returns the new value.
func (s *Store) AdvanceSite(siteCount int) (int, error) {
	if siteCount <= 0 {
		return 0, fmt.Errorf("queue: advance site: no sites configured")
	}
	cur, err := s.CurrentSite()
	if err != nil {
		return 0, err
	}
	next := (cur + 1) % siteCount
	if err := s.db.Model(&Control{}).Where("1 = 1").Update("current_site", next).Error; err != nil {
		return 0, fmt.Errorf("queue: advance site: %w", err)
	}
	return next, nil
}

// Counts returns pending/posted/failed totals for a site.
func (s *Store) Counts(siteID int) (pending, posted, failed int64, err error) {
	count := func(status string) (int64, error) {
		var n int64
		err := s.db.Model(&Article{}).
			Where("site_id = ? AND status = ?", siteID, status).
			Count(&n).Error
		return n, err
	}
	if pending, err = count(StatusPending); err != nil {
		return 0, 0, 0, fmt.Errorf("queue: counts: %w", err)
	}
	if posted, err = count(StatusPosted); err != nil {
		return 0, 0, 0, fmt.Errorf("queue: counts: %w", err)
	}
	if failed, err = count(StatusFailed); err != nil {
		return 0, 0, 0, fmt.Errorf("queue: counts: %w", err)
	}
	return pending, posted, failed, nil
}
