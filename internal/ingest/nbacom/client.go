// Package nbacom downloads NBA.com game pages and turns the embedded
// __NEXT_DATA__ payload into normalized play events.
package nbacom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	// BaseURL of the public site
	BaseURL = "https://www.nba.com"

	nextDataSelector = `script#__NEXT_DATA__`
)

var (
	// ErrNoPayload means the page had no usable embedded game JSON
	ErrNoPayload = errors.New("no play-by-play payload")
	// ErrGameNotFound means the site has no page for the game id
	ErrGameNotFound = errors.New("game not found")
	// ErrInvalidGameID means the id is not a ten digit NBA game id
	ErrInvalidGameID = errors.New("invalid game id")
)

var gameIDPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateGameID checks the shape of an NBA game id such as 0022400061
func ValidateGameID(gameID string) error {
	if !gameIDPattern.MatchString(gameID) {
		return fmt.Errorf("%w: %q", ErrInvalidGameID, gameID)
	}
	return nil
}

// Client fetches games from NBA.com
type Client struct {
	baseURL string
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewClient creates a client; an empty baseURL uses BaseURL
func NewClient(baseURL string, fetcher Fetcher, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		fetcher: fetcher,
		logger:  logger.With().Str("component", "nbacom").Logger(),
	}
}

// GameURL returns the play-by-play page for a game
func (c *Client) GameURL(gameID string) string {
	return fmt.Sprintf("%s/game/%s/play-by-play", c.baseURL, gameID)
}

// FetchGame downloads and parses one game
func (c *Client) FetchGame(ctx context.Context, gameID string) (*Game, error) {
	url := c.GameURL(gameID)
	start := time.Now()

	html, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching game %s: %w", gameID, err)
	}

	payload, err := ExtractPayload(html)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}

	game, err := ParseGame(payload)
	if err != nil {
		return nil, fmt.Errorf("game %s: %w", gameID, err)
	}
	if game.GameID == "" {
		game.GameID = gameID
	}

	c.logger.Debug().
		Str("game_id", gameID).
		Int("events", len(game.Events)).
		Dur("took", time.Since(start)).
		Msg("fetched play-by-play")

	return game, nil
}

// ExtractPayload pulls the __NEXT_DATA__ JSON out of a rendered page
func ExtractPayload(html string) (map[string]interface{}, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	raw := strings.TrimSpace(doc.Find(nextDataSelector).First().Text())
	if raw == "" {
		return nil, ErrNoPayload
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding __NEXT_DATA__: %v", ErrNoPayload, err)
	}
	return payload, nil
}
