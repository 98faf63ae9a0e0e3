// Package publish posts finished articles to a WordPress-compatible CMS
// over its REST API.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Post is the payload for creating an article.
type Post struct {
	Title       string
	Content     string
	Status      string // "draft", "publish", "pending", "private"
	AuthorID    int
	CategoryIDs []int
	Slug        string
}

// Created describes the resource the CMS created.
type Created struct {
	ID     int
	URL    string
	Status string
}

// Client talks to one site's wp-json/wp/v2 API using an application
// password.
type Client struct {
	client   *http.Client
	apiBase  string
	username string
	password string
	log      logrus.FieldLogger
}

// NewClient creates a publisher for one site.
func NewClient(siteURL, username, appPassword string, log logrus.FieldLogger) *Client {
	for len(siteURL) > 0 && siteURL[len(siteURL)-1] == '/' {
		siteURL = siteURL[:len(siteURL)-1]
	}
	return &Client{
		client:   &http.Client{Timeout: 30 * time.Second},
		apiBase:  siteURL + "/wp-json/wp/v2",
		username: username,
		password: appPassword,
		log:      log,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "comparison-poster/1.0")
	return req, nil
}

// TestConnection verifies the credentials by fetching the current user.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/users/me", nil)
	if err != nil {
		return fmt.Errorf("publish: create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish: connection test: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("publish: auth failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&user); err == nil && user.Name != "" {
		c.log.Infof("connected to CMS as %s", user.Name)
	}
	return nil
}

type postPayload struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Status     string `json:"status"`
	Slug       string `json:"slug,omitempty"`
	Author     int    `json:"author,omitempty"`
	Categories []int  `json:"categories,omitempty"`
}

type postResponse struct {
	ID     int    `json:"id"`
	Link   string `json:"link"`
	Status string `json:"status"`
}

// CreatePost creates a new article and returns its identifier.
func (c *Client) CreatePost(ctx context.Context, p Post) (Created, error) {
	body, err := json.Marshal(postPayload{
		Title:      p.Title,
		Content:    p.Content,
		Status:     p.Status,
		Slug:       p.Slug,
		Author:     p.AuthorID,
		Categories: p.CategoryIDs,
	})
	if err != nil {
		return Created{}, fmt.Errorf("publish: marshal post: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/posts", bytes.NewReader(body))
	if err != nil {
		return Created{}, fmt.Errorf("publish: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Created{}, fmt.Errorf("publish: create post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return Created{}, fmt.Errorf("publish: create post failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var pr postResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Created{}, fmt.Errorf("publish: decode response: %w", err)
	}
	return Created{ID: pr.ID, URL: pr.Link, Status: pr.Status}, nil
}

// DeletePost moves a post to the trash. With force it is deleted outright.
func (c *Client) DeletePost(ctx context.Context, postID int, force bool) error {
	path := fmt.Sprintf("/posts/%d", postID)
	if force {
		path += "?force=true"
	}
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("publish: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish: delete post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("publish: delete post failed with status %d", resp.StatusCode)
	}
	return nil
}

// UpdatePost updates fields of an existing post. Empty fields are left
// unchanged.
func (c *Client) UpdatePost(ctx context.Context, postID int, p Post) (Created, error) {
	update := map[string]any{}
	if p.Title != "" {
		update["title"] = p.Title
	}
	if p.Content != "" {
		update["content"] = p.Content
	}
	if p.Status != "" {
		update["status"] = p.Status
	}

	body, err := json.Marshal(update)
	if err != nil {
		return Created{}, fmt.Errorf("publish: marshal update: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/posts/%d", postID), bytes.NewReader(body))
	if err != nil {
		return Created{}, fmt.Errorf("publish: create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Created{}, fmt.Errorf("publish: update post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return Created{}, fmt.Errorf("publish: update post failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var pr postResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return Created{}, fmt.Errorf("publish: decode response: %w", err)
	}
	return Created{ID: pr.ID, URL: pr.Link, Status: pr.Status}, nil
}
