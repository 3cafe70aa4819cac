package nbacom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/pbp"
)

type stubFetcher struct {
	html string
	err  error
	urls []string
}

func (s *stubFetcher) Fetch(_ context.Context, url string) (string, error) {
	s.urls = append(s.urls, url)
	return s.html, s.err
}

func fixture(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/play-by-play.html")
	require.NoError(t, err)
	return string(b)
}

func TestFetchGame(t *testing.T) {
	fetcher := &stubFetcher{html: fixture(t)}
	client := NewClient("https://example.test/", fetcher, zerolog.Nop())

	game, err := client.FetchGame(context.Background(), "0022400061")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.test/game/0022400061/play-by-play"}, fetcher.urls)
	assert.Equal(t, "0022400061", game.GameID)
	assert.Equal(t, "Final", game.Status)
	assert.Equal(t, time.Date(2024, 10, 23, 23, 30, 0, 0, time.UTC), game.GameTime)

	assert.Equal(t, 1610612737, game.Home.TeamID)
	assert.Equal(t, "ATL", game.Home.Tricode)
	assert.Equal(t, "Atlanta Hawks", game.Home.Name)
	assert.Equal(t, 120, game.Home.Score)
	assert.Equal(t, []int{1629027, 1630700}, game.Home.Starters)
	assert.Equal(t, []int{1628369}, game.Away.Starters)

	require.Len(t, game.Events, 9)
	assert.Equal(t, 1, game.Skipped)
}

func TestFetchGame_EventMapping(t *testing.T) {
	game, err := NewClient("", &stubFetcher{html: fixture(t)}, zerolog.Nop()).FetchGame(context.Background(), "0022400061")
	require.NoError(t, err)

	ids := make([]int, len(game.Events))
	for i, ev := range game.Events {
		ids[i] = ev.EventID
	}
	assert.Equal(t, []int{1, 2, 4, 5, 6, 8, 9, 11, 900}, ids, "sorted by period then order")

	tests := []struct {
		name    string
		index   int
		want    pbp.EventType
		elapsed int
		clock   string
		shot    string
	}{
		{"period start", 0, pbp.EventPeriodStart, 0, "12:00", ""},
		{"jump ball", 1, pbp.EventJumpBall, 0, "12:00", ""},
		{"made three", 2, pbp.EventMadeShot, 18, "11:42", pbp.ShotTypeThree},
		{"missed two", 3, pbp.EventMissedShot, 40, "11:20", "2PT"},
		{"rebound", 4, pbp.EventRebound, 42, "11:18", ""},
		{"sub out", 5, pbp.EventSubstitution, 60, "11:00", ""},
		{"free throw", 7, pbp.EventFreeThrow, 90, "10:30", ""},
		{"second period turnover", 8, pbp.EventTurnover, 10, "11:50", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := game.Events[tt.index]
			assert.Equal(t, tt.want, ev.EventType)
			assert.Equal(t, tt.elapsed, ev.TimeElapsedSeconds)
			assert.Equal(t, tt.clock, ev.TimeRemaining)
			assert.Equal(t, tt.shot, ev.ShotType)
		})
	}

	sub := game.Events[5]
	assert.Equal(t, "out", sub.SubType)
	assert.Equal(t, 1630700, sub.PlayerID)
	assert.Equal(t, "D. Daniels", sub.PlayerName)
}

func TestFetchGame_NoPayload(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no script", "<html><body><p>Access Denied</p></body></html>"},
		{"bad json", `<html><body><script id="__NEXT_DATA__">{not json</script></body></html>`},
		{"no play-by-play", `<html><body><script id="__NEXT_DATA__">{"props":{"pageProps":{}}}</script></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient("", &stubFetcher{html: tt.html}, zerolog.Nop()).FetchGame(context.Background(), "1")
			assert.ErrorIs(t, err, ErrNoPayload)
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Path == "/game/missing/play-by-play" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/game/broken/play-by-play" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	fetcher := NewHTTPFetcher(time.Millisecond, time.Second)
	client := NewClient(srv.URL, fetcher, zerolog.Nop())

	html, err := fetcher.Fetch(context.Background(), client.GameURL("0022400061"))
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
	assert.Equal(t, UserAgent, gotAgent)

	_, err = fetcher.Fetch(context.Background(), client.GameURL("missing"))
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = fetcher.Fetch(context.Background(), client.GameURL("broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPFetcher_CanceledContext(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Hour, time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	// First call consumes the burst token, second would wait an hour.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	_, err := fetcher.Fetch(ctx, srv.URL)
	require.NoError(t, err)

	cancel()
	_, err = fetcher.Fetch(ctx, srv.URL)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestValidateGameID(t *testing.T) {
	for _, id := range []string{"0022400061", "0042300405"} {
		assert.NoError(t, ValidateGameID(id), id)
	}
	for _, id := range []string{"", "22400061", "00224000610", "002240006a", "../etc/pas"} {
		assert.ErrorIs(t, ValidateGameID(id), ErrInvalidGameID, id)
	}
}

func TestNewFetcherForMode(t *testing.T) {
	f, closeFn, err := NewFetcherForMode(ModeHTTP, time.Second, time.Second)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &HTTPFetcher{}, f)

	_, _, err = NewFetcherForMode("carrier-pigeon", time.Second, time.Second)
	assert.Error(t, err)
}
