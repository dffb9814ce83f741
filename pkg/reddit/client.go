// Package reddit provides a client for Reddit's public JSON listings.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the Reddit listing operations used by the scraper.
type Client interface {
	// NewPosts fetches the newest submissions from a subreddit.
	NewPosts(ctx context.Context, subreddit string, limit int) ([]Post, error)
	// Comments fetches the comment tree of a submission, flattened.
	Comments(ctx context.Context, subreddit, postID string, limit int) ([]Comment, error)
}

// Post is a single subreddit submission.
type Post struct {
	ID          string  `json:"id"`
	Fullname    string  `json:"name"` // t3_<id>
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
}

// Comment is a single comment from a submission's tree.
type Comment struct {
	ID         string  `json:"id"`
	Fullname   string  `json:"name"` // t1_<id>
	ParentID   string  `json:"parent_id"`
	Subreddit  string  `json:"subreddit"`
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	Score      int     `json:"score"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`

	Replies json.RawMessage `json:"replies"`
}

// listing mirrors Reddit's Listing envelope.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

// thing is one element of a listing; Data decodes per Kind.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Option configures the Reddit client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	userAgent string
	baseURL   string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a new Reddit client. Reddit throttles clients without a
// descriptive User-Agent, so callers should pass one identifying the tool.
func NewClient(userAgent string, opts ...Option) Client {
	c := &httpClient{
		userAgent: userAgent,
		baseURL:   "https://www.reddit.com",
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// retryableStatusCode returns true if the HTTP status code should trigger a retry.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// get executes a rate-limited GET with exponential backoff retries on
// transient failures (429, 500, 502, 503). Returns the response body on
// success or the last error after exhausting retries.
func (c *httpClient) get(ctx context.Context, reqURL string) ([]byte, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "reddit: rate limiter")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "reddit: create request")
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			if attempt < maxAttempts {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(backoff):
				}
				backoff *= 2
				continue
			}
			return nil, lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			return nil, eris.Wrap(readErr, "reddit: read response body")
		}

		if retryableStatusCode(resp.StatusCode) && attempt < maxAttempts {
			lastErr = eris.Errorf("reddit: status %d: %s", resp.StatusCode, string(body))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("reddit: unexpected status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, lastErr
}

func (c *httpClient) NewPosts(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	reqURL := fmt.Sprintf("%s/r/%s/new.json?limit=%d", c.baseURL, subreddit, limit)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrapf(err, "reddit: fetch new posts r/%s", subreddit)
	}

	var l listing
	if err := json.Unmarshal(body, &l); err != nil {
		return nil, eris.Wrap(err, "reddit: unmarshal listing")
	}

	posts := make([]Post, 0, len(l.Data.Children))
	for _, child := range l.Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var p Post
		if err := json.Unmarshal(child.Data, &p); err != nil {
			return nil, eris.Wrap(err, "reddit: unmarshal post")
		}
		posts = append(posts, p)
	}

	return posts, nil
}

func (c *httpClient) Comments(ctx context.Context, subreddit, postID string, limit int) ([]Comment, error) {
	reqURL := fmt.Sprintf("%s/r/%s/comments/%s.json?limit=%d", c.baseURL, subreddit, postID, limit)

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, eris.Wrapf(err, "reddit: fetch comments %s", postID)
	}

	// The comments endpoint returns a two-element array: the submission
	// listing followed by the comment tree listing.
	var listings []listing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, eris.Wrap(err, "reddit: unmarshal comment listings")
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []Comment
	if err := flattenComments(listings[1].Data.Children, &comments); err != nil {
		return nil, err
	}

	return comments, nil
}

// flattenComments walks a comment tree depth-first, appending every t1 node.
// "more" stubs are skipped; fetching continuations needs OAuth.
func flattenComments(children []thing, out *[]Comment) error {
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		var cm Comment
		if err := json.Unmarshal(child.Data, &cm); err != nil {
			return eris.Wrap(err, "reddit: unmarshal comment")
		}

		replies := cm.Replies
		cm.Replies = nil
		*out = append(*out, cm)

		// Replies is "" when the node is a leaf.
		if len(replies) > 0 && replies[0] == '{' {
			var sub listing
			if err := json.Unmarshal(replies, &sub); err != nil {
				return eris.Wrap(err, "reddit: unmarshal replies")
			}
			if err := flattenComments(sub.Data.Children, out); err != nil {
				return err
			}
		}
	}
	return nil
}
