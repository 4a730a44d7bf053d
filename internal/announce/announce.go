// Package announce publishes the latest stored postings as a tweet thread:
// a header tweet, one reply per posting, and a closing footer reply.
package announce

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/workway/workway/internal/model"
)

const (
	headerText = "🚀 Latest jobs from WorkWay – your curated tech job source!\n\n🔗 workway.dev"
	footerText = "✨ Explore more opportunities at\n🌐 https://workway.dev"
)

// Poster publishes tweets. Implemented by TwitterClient; tests swap in a fake.
type Poster interface {
	Tweet(ctx context.Context, text string) (string, error)
	Reply(ctx context.Context, text, inReplyTo string) (string, error)
}

// Result reports the outcome of one announcement run.
type Result struct {
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	TweetedJobsCount int    `json:"tweetedJobsCount,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Job reads the newest postings from the store and threads them onto the
// configured poster.
type Job struct {
	store  model.PostingStore
	poster Poster
	count  int
	logger *slog.Logger
}

// NewJob builds an announcement job that tweets the count newest postings.
func NewJob(store model.PostingStore, poster Poster, count int, logger *slog.Logger) *Job {
	return &Job{
		store:  store,
		poster: poster,
		count:  count,
		logger: logger,
	}
}

// Run fetches the latest postings and publishes them as a thread. An empty
// store is not an error: the run reports failure without posting anything.
func (j *Job) Run(ctx context.Context) Result {
	postings, err := j.store.Latest(ctx, j.count)
	if err != nil {
		j.logger.Error("loading latest postings failed", "error", err)
		return Result{Success: false, Message: "Failed to tweet jobs.", Error: err.Error()}
	}

	if len(postings) == 0 {
		j.logger.Info("no postings to announce")
		return Result{Success: false, Message: "No jobs found."}
	}

	previousID, err := j.poster.Tweet(ctx, headerText)
	if err != nil {
		j.logger.Error("header tweet failed", "error", err)
		return Result{Success: false, Message: "Failed to tweet jobs.", Error: err.Error()}
	}

	tweeted := 0
	for _, p := range postings {
		id, err := j.poster.Reply(ctx, formatTweet(p), previousID)
		if err != nil {
			j.logger.Error("job tweet failed", "job_id", p.JobID, "error", err)
			return Result{
				Success:          false,
				Message:          "Failed to tweet jobs.",
				TweetedJobsCount: tweeted,
				Error:            err.Error(),
			}
		}
		previousID = id
		tweeted++
	}

	if _, err := j.poster.Reply(ctx, footerText, previousID); err != nil {
		j.logger.Error("footer tweet failed", "error", err)
		return Result{
			Success:          false,
			Message:          "Failed to tweet jobs.",
			TweetedJobsCount: tweeted,
			Error:            err.Error(),
		}
	}

	j.logger.Info("announcement thread posted", "jobs", tweeted)
	return Result{
		Success:          true,
		Message:          fmt.Sprintf("Tweeted %d latest jobs.", tweeted),
		TweetedJobsCount: tweeted,
	}
}

func formatTweet(p model.Posting) string {
	return fmt.Sprintf("💼 Title – %s\n🏢 Company – %s\n📍 Location – %s\n🎯 Experience – %s\n\n🔗 %s",
		p.Title,
		p.Company,
		p.Location,
		p.ExperienceLevel,
		p.AbsoluteURL,
	)
}
