// Package scrape collects posts and comments from subreddits and stores
// them as raw leads under a session id.
package scrape

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pitchforge/pitchforge/internal/config"
	"github.com/pitchforge/pitchforge/internal/model"
	"github.com/pitchforge/pitchforge/internal/store"
	"github.com/pitchforge/pitchforge/pkg/reddit"
)

// Result summarizes one scrape run.
type Result struct {
	SessionID  string `json:"session_id"`
	Posts      int    `json:"posts"`
	Comments   int    `json:"comments"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
}

// Scraper fetches subreddit listings and persists them as raw leads.
type Scraper struct {
	client reddit.Client
	store  store.Store
	cfg    config.RedditConfig
}

func New(client reddit.Client, st store.Store, cfg config.RedditConfig) *Scraper {
	return &Scraper{client: client, store: st, cfg: cfg}
}

// Run scrapes the newest posts (and optionally their comments) from each
// subreddit under a fresh session id. Subreddits are fetched concurrently;
// a subreddit that fails is logged and skipped without aborting the rest.
// Items are upserted in one batch per subreddit, so re-scraping is a no-op
// for anything already stored.
func (s *Scraper) Run(ctx context.Context, subreddits []string, withComments bool) (*Result, error) {
	if len(subreddits) == 0 {
		return nil, eris.New("scrape: no subreddits given")
	}

	sessionID := uuid.New().String()
	result := &Result{SessionID: sessionID}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, subreddit := range subreddits {
		g.Go(func() error {
			items, posts, comments, err := s.collect(gCtx, subreddit, withComments, sessionID)
			if err != nil {
				zap.L().Error("scrape: subreddit failed",
					zap.String("subreddit", subreddit),
					zap.Error(err),
				)
				return nil
			}

			inserted, err := s.store.UpsertRawItems(gCtx, items)
			if err != nil {
				zap.L().Error("scrape: failed to store leads",
					zap.String("subreddit", subreddit),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			result.Posts += posts
			result.Comments += comments
			result.Inserted += inserted
			result.Duplicates += len(items) - inserted
			mu.Unlock()

			zap.L().Info("scrape: subreddit complete",
				zap.String("subreddit", subreddit),
				zap.Int("posts", posts),
				zap.Int("comments", comments),
				zap.Int("inserted", inserted),
			)
			return nil
		})
	}

	_ = g.Wait()

	if result.Posts == 0 && result.Comments == 0 {
		return nil, eris.New("scrape: nothing collected")
	}
	return result, nil
}

func (s *Scraper) collect(ctx context.Context, subreddit string, withComments bool, sessionID string) ([]*model.RawItem, int, int, error) {
	postLimit := s.cfg.PostLimit
	if postLimit <= 0 {
		postLimit = 10
	}

	posts, err := s.client.NewPosts(ctx, subreddit, postLimit)
	if err != nil {
		return nil, 0, 0, eris.Wrapf(err, "scrape: fetch posts r/%s", subreddit)
	}

	var items []*model.RawItem
	commentCount := 0
	for _, post := range posts {
		items = append(items, postToItem(post, sessionID))

		if !withComments {
			continue
		}
		comments, err := s.client.Comments(ctx, subreddit, post.ID, s.cfg.CommentLimit)
		if err != nil {
			zap.L().Warn("scrape: comments failed",
				zap.String("subreddit", subreddit),
				zap.String("post", post.ID),
				zap.Error(err),
			)
			continue
		}
		for _, c := range comments {
			items = append(items, commentToItem(c, sessionID))
		}
		commentCount += len(comments)
	}
	return items, len(posts), commentCount, nil
}

func postToItem(p reddit.Post, sessionID string) *model.RawItem {
	return &model.RawItem{
		ExternalID:  p.Fullname,
		Permalink:   p.Permalink,
		Subreddit:   p.Subreddit,
		Title:       p.Title,
		Body:        p.SelfText,
		Author:      p.Author,
		Score:       p.Score,
		NumComments: p.NumComments,
		CreatedUTC:  int64(p.CreatedUTC),
		SessionID:   sessionID,
	}
}

func commentToItem(c reddit.Comment, sessionID string) *model.RawItem {
	return &model.RawItem{
		ExternalID:       c.Fullname,
		ParentExternalID: c.ParentID,
		Permalink:        c.Permalink,
		Subreddit:        c.Subreddit,
		Body:             c.Body,
		IsComment:        true,
		Author:           c.Author,
		Score:            c.Score,
		CreatedUTC:       int64(c.CreatedUTC),
		SessionID:        sessionID,
	}
}
