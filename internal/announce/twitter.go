package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/dghubble/oauth1"
)

const defaultTweetEndpoint = "https://api.twitter.com/2/tweets"

// Ensure TwitterClient implements Poster.
var _ Poster = (*TwitterClient)(nil)

// Credentials holds the OAuth 1.0a user-context keys for the bot account.
type Credentials struct {
	APIKey       string
	APIKeySecret string
	AccessToken  string
	AccessSecret string
}

func (c Credentials) validate() error {
	switch {
	case c.APIKey == "":
		return fmt.Errorf("twitter api_key is required")
	case c.APIKeySecret == "":
		return fmt.Errorf("twitter api_key_secret is required")
	case c.AccessToken == "":
		return fmt.Errorf("twitter access_token is required")
	case c.AccessSecret == "":
		return fmt.Errorf("twitter access_secret is required")
	}
	return nil
}

// TwitterClient posts tweets through the v2 API, signing each request with
// OAuth 1.0a user context.
type TwitterClient struct {
	endpoint   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTwitterClient builds a client whose HTTP transport signs requests with
// the given credentials.
func NewTwitterClient(creds Credentials, logger *slog.Logger) (*TwitterClient, error) {
	if err := creds.validate(); err != nil {
		return nil, err
	}

	oaCfg := oauth1.NewConfig(creds.APIKey, creds.APIKeySecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)

	return &TwitterClient{
		endpoint:   defaultTweetEndpoint,
		httpClient: oaCfg.Client(oauth1.NoContext, token),
		logger:     logger,
	}, nil
}

// tweetRequest is the v2 POST /2/tweets body.
type tweetRequest struct {
	Text  string      `json:"text"`
	Reply *tweetReply `json:"reply,omitempty"`
}

type tweetReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

// tweetResponse is the v2 POST /2/tweets success body.
type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Tweet posts a standalone tweet and returns its id.
func (c *TwitterClient) Tweet(ctx context.Context, text string) (string, error) {
	return c.post(ctx, tweetRequest{Text: text})
}

// Reply posts a tweet in reply to inReplyTo and returns the new tweet's id.
func (c *TwitterClient) Reply(ctx context.Context, text, inReplyTo string) (string, error) {
	return c.post(ctx, tweetRequest{
		Text:  text,
		Reply: &tweetReply{InReplyToTweetID: inReplyTo},
	})
}

func (c *TwitterClient) post(ctx context.Context, tr tweetRequest) (string, error) {
	body, err := json.Marshal(tr)
	if err != nil {
		return "", fmt.Errorf("marshal tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("twitter returned %d: %s", resp.StatusCode, detail)
	}

	var out tweetResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode tweet response: %w", err)
	}
	if out.Data.ID == "" {
		return "", fmt.Errorf("twitter response missing tweet id")
	}

	c.logger.Debug("tweet posted", "id", out.Data.ID)
	return out.Data.ID, nil
}
