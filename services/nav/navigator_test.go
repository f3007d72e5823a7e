package nav

import (
	"context"
	"strings"
	"testing"
	"time"

	"cineseek/models"
	"cineseek/services/catalog"
	"cineseek/services/locale"
	"cineseek/services/search"
	"cineseek/services/unlock"
)

type stubProvider struct {
	hits     []models.SearchResult
	detail   map[string]*models.TitleDetail
	seasons  []int
	episodes []int
}

func (p *stubProvider) Name() string { return "omdb" }

func (p *stubProvider) SearchByTitle(ctx context.Context, query string, kind models.MediaKind, year int) ([]models.SearchResult, error) {
	return p.hits, nil
}

func (p *stubProvider) GetDetail(ctx context.Context, id string, kind models.MediaKind) (*models.TitleDetail, error) {
	d, ok := p.detail[id]
	if !ok {
		return nil, catalog.ErrContentUnavailable
	}
	return d, nil
}

func (p *stubProvider) ListSeasons(ctx context.Context, id string) ([]int, error) {
	return p.seasons, nil
}

func (p *stubProvider) ListEpisodes(ctx context.Context, id string, season int) ([]int, error) {
	return p.episodes, nil
}

type stubResolver struct{}

func (stubResolver) IsConfigured() bool { return false }
func (stubResolver) SuggestTitle(ctx context.Context, freeText string) (string, error) {
	return "", nil
}

type stubQuota struct{}

func (stubQuota) TryConsume(userID string) (bool, error) { return true, nil }

func newTestNavigator(t *testing.T, prov *stubProvider, delay time.Duration) *Navigator {
	t.Helper()

	locales, err := locale.NewService(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	registry := catalog.NewRegistry(prov)
	searcher := search.NewService(registry, stubResolver{}, stubQuota{}, 8)
	gate := unlock.NewService(delay)
	t.Cleanup(gate.Shutdown)

	return NewNavigator(locales, searcher, registry, gate, 5)
}

func seriesProvider() *stubProvider {
	return &stubProvider{
		hits: []models.SearchResult{
			{Provider: "omdb", ID: "tt0903747", Kind: models.MediaKindSeries, Title: "Breaking Bad", Year: 2008},
		},
		detail: map[string]*models.TitleDetail{
			"tt0903747": {
				Provider: "omdb", ID: "tt0903747", Kind: models.MediaKindSeries,
				Title: "Breaking Bad", Year: 2008, Rating: "9.5", Genre: "Crime, Drama",
				Overview: "A chemistry teacher turns to crime.",
			},
		},
		seasons:  []int{1, 2, 3},
		episodes: []int{1, 2, 3, 4, 5},
	}
}

func movieProvider() *stubProvider {
	return &stubProvider{
		hits: []models.SearchResult{
			{Provider: "omdb", ID: "tt0133093", Kind: models.MediaKindMovie, Title: "The Matrix", Year: 1999},
		},
		detail: map[string]*models.TitleDetail{
			"tt0133093": {
				Provider: "omdb", ID: "tt0133093", Kind: models.MediaKindMovie,
				Title: "The Matrix", Year: 1999, Rating: "8.7",
			},
		},
	}
}

// firstToken returns the first button token with the given wire prefix.
func firstToken(t *testing.T, reply models.Reply, prefix string) string {
	t.Helper()
	for _, row := range reply.Buttons {
		for _, btn := range row {
			if strings.HasPrefix(btn.Token, prefix+sep) {
				return btn.Token
			}
		}
	}
	t.Fatalf("no %q token in reply %+v", prefix, reply)
	return ""
}

func noPush(models.Reply) {}

func TestStartShowsLanguagePicker(t *testing.T) {
	n := newTestNavigator(t, seriesProvider(), time.Minute)

	reply := n.Start("u1", "Walter")
	if !strings.Contains(reply.Text, "Walter") {
		t.Errorf("greeting missing the name: %q", reply.Text)
	}
	if len(reply.Buttons) != 1 || len(reply.Buttons[0]) != len(locale.Supported()) {
		t.Fatalf("language row = %+v, want %d buttons", reply.Buttons, len(locale.Supported()))
	}
	for _, btn := range reply.Buttons[0] {
		if _, err := Decode(btn.Token); err != nil {
			t.Errorf("language button carries bad token %q: %v", btn.Token, err)
		}
	}
}

func TestSelectLanguagePersistsAndShowsMenu(t *testing.T) {
	n := newTestNavigator(t, seriesProvider(), time.Minute)

	reply, err := n.HandleToken(context.Background(), "u1", "lang_si", noPush)
	if err != nil {
		t.Fatal(err)
	}
	if got := n.locales.Get("u1"); got != "si" {
		t.Errorf("locale = %q, want si", got)
	}
	if len(reply.Buttons) == 0 {
		t.Error("language confirmation is missing the main menu")
	}
	// Later replies render in the chosen language.
	bad, err := n.HandleToken(context.Background(), "u1", "garbage", noPush)
	if err != nil {
		t.Fatal(err)
	}
	if bad.Text != msg("si", "bad_token") {
		t.Errorf("reply not localized: %q", bad.Text)
	}
}

func TestHandleTextRendersResultButtons(t *testing.T) {
	n := newTestNavigator(t, seriesProvider(), time.Minute)

	reply, err := n.HandleText(context.Background(), "u1", "breaking bad")
	if err != nil {
		t.Fatal(err)
	}
	token := firstToken(t, reply, "res")
	tok, err := Decode(token)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != KindPickResult || tok.ID != "tt0903747" || tok.Media != models.MediaKindSeries {
		t.Errorf("result token = %+v", tok)
	}
}

func TestSeriesDrillDownToReveal(t *testing.T) {
	n := newTestNavigator(t, seriesProvider(), 20*time.Millisecond)
	ctx := context.Background()

	// Result tap lists seasons.
	reply, err := n.HandleToken(ctx, "u1", "res_omdb_s_tt0903747", noPush)
	if err != nil {
		t.Fatal(err)
	}
	count := 0
	for _, row := range reply.Buttons {
		count += len(row)
	}
	if count != 3 {
		t.Fatalf("got %d season buttons, want 3", count)
	}

	// Season tap lists episodes.
	seasonToken := firstToken(t, reply, "sea")
	reply, err = n.HandleToken(ctx, "u1", seasonToken, noPush)
	if err != nil {
		t.Fatal(err)
	}
	count = 0
	for _, row := range reply.Buttons {
		count += len(row)
	}
	if count != 5 {
		t.Fatalf("got %d episode buttons, want 5", count)
	}

	// Drill to season 2 episode 5 specifically.
	reply, err = n.HandleToken(ctx, "u1", "epi_omdb_tt0903747_2_5", noPush)
	if err != nil {
		t.Fatal(err)
	}
	unlockToken := firstToken(t, reply, "unl")
	tok, err := Decode(unlockToken)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Season != 2 || tok.Episode != 5 {
		t.Fatalf("unlock token lost the episode position: %+v", tok)
	}

	// Unlock tap starts the countdown.
	pushed := make(chan models.Reply, 2)
	push := func(r models.Reply) { pushed <- r }

	reply, err = n.HandleToken(ctx, "u1", unlockToken, push)
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Ephemeral {
		t.Error("countdown reply should be ephemeral")
	}

	var reveal models.Reply
	select {
	case reveal = <-pushed:
	case <-time.After(2 * time.Second):
		t.Fatal("reveal never pushed")
	}

	var watchURL string
	for _, row := range reveal.Buttons {
		for _, btn := range row {
			if btn.URL != "" && watchURL == "" {
				watchURL = btn.URL
			}
		}
	}
	if !strings.Contains(watchURL, "season=2") || !strings.Contains(watchURL, "episode=5") {
		t.Errorf("watch link lost the episode position: %q", watchURL)
	}
	serverToken := firstToken(t, reveal, "srv")
	if stok, _ := Decode(serverToken); stok.Season != 2 || stok.Episode != 5 {
		t.Errorf("server token lost the episode position: %+v", stok)
	}

	// A second tap after resolution redelivers immediately, no new countdown.
	reply, err = n.HandleToken(ctx, "u1", unlockToken, push)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != "" || len(reply.Buttons) != 0 {
		t.Errorf("post-resolution tap returned %+v, want empty reply with push delivery", reply)
	}
	select {
	case <-pushed:
	case <-time.After(100 * time.Millisecond):
		t.Error("redelivery never pushed")
	}
}

func TestMovieSkipsSeasonDrill(t *testing.T) {
	n := newTestNavigator(t, movieProvider(), time.Minute)

	reply, err := n.HandleToken(context.Background(), "u1", "res_omdb_m_tt0133093", noPush)
	if err != nil {
		t.Fatal(err)
	}

	unlockToken := firstToken(t, reply, "unl")
	tok, err := Decode(unlockToken)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Media != models.MediaKindMovie || tok.Season != 0 || tok.Episode != 0 {
		t.Errorf("movie unlock token = %+v, want no season/episode", tok)
	}
	if !strings.Contains(reply.Text, "The Matrix") {
		t.Errorf("gate prompt missing the title: %q", reply.Text)
	}
}

func TestPendingTapDoesNotRestartCountdown(t *testing.T) {
	n := newTestNavigator(t, movieProvider(), time.Minute)
	ctx := context.Background()

	first, err := n.HandleToken(ctx, "u1", "unl_omdb_m_tt0133093_0_0", noPush)
	if err != nil {
		t.Fatal(err)
	}
	second, err := n.HandleToken(ctx, "u1", "unl_omdb_m_tt0133093_0_0", noPush)
	if err != nil {
		t.Fatal(err)
	}
	if first.Text == second.Text {
		t.Error("pending tap repeated the initial countdown message")
	}
	if !second.Ephemeral {
		t.Error("pending reply should be ephemeral")
	}
}

func TestUnknownTitleSaysUnavailable(t *testing.T) {
	n := newTestNavigator(t, movieProvider(), time.Minute)

	reply, err := n.HandleToken(context.Background(), "u1", "res_omdb_m_tt0000001", noPush)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != msg("en", "content_unavailable") {
		t.Errorf("reply = %q, want the unavailable message", reply.Text)
	}
}

func TestMalformedTokenGetsDistinctMessage(t *testing.T) {
	n := newTestNavigator(t, movieProvider(), time.Minute)

	reply, err := n.HandleToken(context.Background(), "u1", "res_omdb_m", noPush)
	if err != nil {
		t.Fatal(err)
	}
	if reply.Text != msg("en", "bad_token") {
		t.Errorf("reply = %q, want the expired-button message", reply.Text)
	}
	if reply.Text == msg("en", "content_unavailable") {
		t.Error("malformed token must not read as content unavailable")
	}
}

func TestMovieRevealOffersDownload(t *testing.T) {
	n := newTestNavigator(t, movieProvider(), time.Minute)

	reveal, err := n.buildReveal(context.Background(), "en", Token{
		Kind:     KindRequestUnlock,
		Provider: "omdb",
		Media:    models.MediaKindMovie,
		ID:       "tt0133093",
	})
	if err != nil {
		t.Fatal(err)
	}

	var urls []string
	for _, row := range reveal.Buttons {
		for _, btn := range row {
			if btn.URL != "" {
				urls = append(urls, btn.URL)
			}
		}
	}
	if len(urls) != 2 {
		t.Fatalf("got %d link buttons, want watch + download", len(urls))
	}
	if !strings.Contains(urls[1], "yts.mx") {
		t.Errorf("download link = %q", urls[1])
	}
}

func TestMainMenuOffersTrendingAndGenres(t *testing.T) {
	n := newTestNavigator(t, movieProvider(), time.Minute)

	menu := n.MainMenu("u1")
	count := 0
	for _, row := range menu.Buttons {
		count += len(row)
	}
	if count != len(genres)+1 {
		t.Errorf("got %d menu buttons, want %d genres plus trending", count, len(genres))
	}
	for _, row := range menu.Buttons {
		for _, btn := range row {
			if _, err := Decode(btn.Token); err != nil {
				t.Errorf("menu button %q carries bad token %q: %v", btn.Label, btn.Token, err)
			}
		}
	}
}
