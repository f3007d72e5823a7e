package nav

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"cineseek/models"
	"cineseek/services/catalog"
	"cineseek/services/locale"
	"cineseek/services/search"
	"cineseek/services/unlock"
)

// Navigator turns user actions into transport-neutral replies. It owns no
// conversation state: every button carries an encoded token with everything
// needed to serve the tap, so any process instance can handle any update.
type Navigator struct {
	locales   *locale.Service
	search    *search.Service
	catalogs  *catalog.Registry
	gate      *unlock.Service
	aiCeiling int
}

func NewNavigator(locales *locale.Service, searcher *search.Service, catalogs *catalog.Registry, gate *unlock.Service, aiCeiling int) *Navigator {
	if aiCeiling <= 0 {
		aiCeiling = 5
	}
	return &Navigator{
		locales:   locales,
		search:    searcher,
		catalogs:  catalogs,
		gate:      gate,
		aiCeiling: aiCeiling,
	}
}

// Start renders the language picker shown on first contact.
func (n *Navigator) Start(userID, name string) models.Reply {
	loc := n.locales.Get(userID)
	if strings.TrimSpace(name) == "" {
		name = "there"
	}

	var row []models.Button
	for _, code := range locale.Supported() {
		token, err := Encode(Token{Kind: KindSelectLanguage, Lang: code})
		if err != nil {
			continue
		}
		row = append(row, models.Button{Label: languageNames[code], Token: token})
	}

	return models.Reply{
		Text:    fmt.Sprintf(msg(loc, "choose_language"), name),
		Buttons: [][]models.Button{row},
	}
}

// MainMenu renders the trending shortcut and the genre browse grid.
func (n *Navigator) MainMenu(userID string) models.Reply {
	loc := n.locales.Get(userID)

	trendingToken, _ := Encode(Token{Kind: KindPickGenre, Genre: "trending"})
	rows := [][]models.Button{
		{{Label: msg(loc, "trending"), Token: trendingToken}},
	}

	var row []models.Button
	for _, g := range genres {
		token, err := Encode(Token{Kind: KindPickGenre, Genre: g})
		if err != nil {
			continue
		}
		row = append(row, models.Button{Label: g, Token: token})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return models.Reply{
		Text:    msg(loc, "main_menu"),
		Buttons: rows,
	}
}

// HandleText serves a plain title query.
func (n *Navigator) HandleText(ctx context.Context, userID, text string) (models.Reply, error) {
	loc := n.locales.Get(userID)

	res, err := n.search.Search(ctx, userID, text, "", 0)
	if err != nil {
		return models.Reply{}, err
	}
	return n.renderResults(loc, text, res), nil
}

// HandleAI serves an explicit free-text identification request.
func (n *Navigator) HandleAI(ctx context.Context, userID, freeText string) (models.Reply, error) {
	loc := n.locales.Get(userID)
	if strings.TrimSpace(freeText) == "" {
		return models.Reply{Text: msg(loc, "ai_usage")}, nil
	}

	res, err := n.search.Identify(ctx, userID, freeText)
	if err != nil {
		return models.Reply{}, err
	}
	return n.renderResults(loc, freeText, res), nil
}

// HandleToken serves one button tap. push delivers any asynchronous follow-up
// message (the post-delay reveal); the returned reply is sent immediately.
func (n *Navigator) HandleToken(ctx context.Context, userID, raw string, push func(models.Reply)) (models.Reply, error) {
	loc := n.locales.Get(userID)

	tok, err := Decode(raw)
	if err != nil {
		log.Printf("[nav] rejected token %q from user %s: %v", raw, userID, err)
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}

	switch tok.Kind {
	case KindSelectLanguage:
		return n.selectLanguage(userID, tok)
	case KindPickGenre:
		return n.pickGenre(ctx, userID, tok)
	case KindPickResult:
		return n.pickResult(ctx, loc, tok)
	case KindPickSeason:
		return n.pickSeason(ctx, loc, tok)
	case KindPickEpisode:
		return n.pickEpisode(ctx, loc, tok)
	case KindRequestUnlock:
		return n.requestUnlock(loc, raw, tok, push)
	case KindPickServer:
		return n.pickServer(ctx, loc, tok)
	}
	return models.Reply{Text: msg(loc, "bad_token")}, nil
}

func (n *Navigator) selectLanguage(userID string, tok Token) (models.Reply, error) {
	if err := n.locales.Set(userID, tok.Lang); err != nil {
		loc := n.locales.Get(userID)
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}

	menu := n.MainMenu(userID)
	menu.Text = msg(tok.Lang, "language_set") + "\n\n" + menu.Text
	return menu, nil
}

func (n *Navigator) pickGenre(ctx context.Context, userID string, tok Token) (models.Reply, error) {
	loc := n.locales.Get(userID)

	query := tok.Genre
	label := tok.Genre
	if tok.Genre == "trending" {
		// No trending feed on the free catalog tiers; current-year search is
		// the closest stand-in.
		query = strconv.Itoa(time.Now().Year())
		label = msg(loc, "trending")
	}

	res, err := n.search.Search(ctx, userID, query, "", 0)
	if err != nil {
		return models.Reply{}, err
	}
	return n.renderResults(loc, label, res), nil
}

func (n *Navigator) pickResult(ctx context.Context, loc string, tok Token) (models.Reply, error) {
	prov := n.catalogs.Get(tok.Provider)
	if prov == nil {
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}

	if tok.Media == models.MediaKindMovie {
		return n.gatePrompt(ctx, loc, prov, tok, 0, 0)
	}

	detail, err := prov.GetDetail(ctx, tok.ID, tok.Media)
	if err != nil {
		return n.catalogErrorReply(loc, err)
	}
	seasons, err := prov.ListSeasons(ctx, tok.ID)
	if err != nil {
		return n.catalogErrorReply(loc, err)
	}
	if len(seasons) == 0 {
		return models.Reply{Text: msg(loc, "content_unavailable")}, nil
	}

	var rows [][]models.Button
	var row []models.Button
	for _, s := range seasons {
		token, err := Encode(Token{Kind: KindPickSeason, Provider: tok.Provider, ID: tok.ID, Season: s})
		if err != nil {
			continue
		}
		row = append(row, models.Button{Label: strconv.Itoa(s), Token: token})
		if len(row) == 4 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return models.Reply{
		Text:    fmt.Sprintf(msg(loc, "pick_season"), detail.Title),
		Buttons: rows,
	}, nil
}

func (n *Navigator) pickSeason(ctx context.Context, loc string, tok Token) (models.Reply, error) {
	prov := n.catalogs.Get(tok.Provider)
	if prov == nil {
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}

	episodes, err := prov.ListEpisodes(ctx, tok.ID, tok.Season)
	if err != nil {
		return n.catalogErrorReply(loc, err)
	}
	if len(episodes) == 0 {
		return models.Reply{Text: msg(loc, "content_unavailable")}, nil
	}

	var rows [][]models.Button
	var row []models.Button
	for _, e := range episodes {
		token, err := Encode(Token{Kind: KindPickEpisode, Provider: tok.Provider, ID: tok.ID, Season: tok.Season, Episode: e})
		if err != nil {
			continue
		}
		row = append(row, models.Button{Label: strconv.Itoa(e), Token: token})
		if len(row) == 5 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return models.Reply{
		Text:    fmt.Sprintf(msg(loc, "pick_episode"), tok.Season),
		Buttons: rows,
	}, nil
}

func (n *Navigator) pickEpisode(ctx context.Context, loc string, tok Token) (models.Reply, error) {
	prov := n.catalogs.Get(tok.Provider)
	if prov == nil {
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}
	return n.gatePrompt(ctx, loc, prov, Token{
		Provider: tok.Provider,
		Media:    models.MediaKindSeries,
		ID:       tok.ID,
	}, tok.Season, tok.Episode)
}

// gatePrompt shows the title card with the unlock button. This is the last
// free step; everything past it goes through the gate.
func (n *Navigator) gatePrompt(ctx context.Context, loc string, prov catalog.Provider, tok Token, season, episode int) (models.Reply, error) {
	detail, err := prov.GetDetail(ctx, tok.ID, tok.Media)
	if err != nil {
		return n.catalogErrorReply(loc, err)
	}

	unlockToken, err := Encode(Token{
		Kind:     KindRequestUnlock,
		Provider: tok.Provider,
		Media:    tok.Media,
		ID:       tok.ID,
		Season:   season,
		Episode:  episode,
	})
	if err != nil {
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}

	return models.Reply{
		Text:     n.detailCard(loc, detail, season, episode),
		PhotoURL: detail.PosterURL,
		Buttons: [][]models.Button{
			{{Label: msg(loc, "unlock"), Token: unlockToken}},
		},
	}, nil
}

func (n *Navigator) requestUnlock(loc, raw string, tok Token, push func(models.Reply)) (models.Reply, error) {
	deliver := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		reveal, err := n.buildReveal(ctx, loc, tok)
		if err != nil {
			log.Printf("[nav] reveal failed for %q: %v", raw, err)
			reveal = models.Reply{Text: msg(loc, "content_unavailable")}
		}
		push(reveal)
	}

	switch n.gate.Request(raw, deliver) {
	case unlock.OutcomeScheduled:
		seconds := int(n.gate.Delay().Round(time.Second).Seconds())
		return models.Reply{
			Text:      fmt.Sprintf(msg(loc, "preparing"), seconds),
			Ephemeral: true,
		}, nil
	case unlock.OutcomePending:
		return models.Reply{Text: msg(loc, "still_preparing"), Ephemeral: true}, nil
	default:
		// Already resolved; deliver ran synchronously via push.
		return models.Reply{}, nil
	}
}

// buildReveal assembles the unlocked card: watch link on the primary server,
// a download link for movies, and a button to list the other servers.
func (n *Navigator) buildReveal(ctx context.Context, loc string, tok Token) (models.Reply, error) {
	prov := n.catalogs.Get(tok.Provider)
	if prov == nil {
		return models.Reply{}, catalog.ErrContentUnavailable
	}

	detail, err := prov.GetDetail(ctx, tok.ID, tok.Media)
	if err != nil {
		return models.Reply{}, err
	}

	primary := Servers()[0]
	var watchURL string
	if tok.Media == models.MediaKindSeries {
		watchURL = EpisodeStreamURL(primary.Host, tok.Provider, tok.ID, tok.Season, tok.Episode)
	} else {
		watchURL = MovieStreamURL(primary.Host, tok.Provider, tok.ID)
	}

	rows := [][]models.Button{
		{{Label: msg(loc, "watch"), URL: watchURL}},
	}
	if tok.Media == models.MediaKindMovie {
		rows = append(rows, []models.Button{
			{Label: msg(loc, "download"), URL: DownloadURL(detail.Title)},
		})
	}

	serverToken, err := Encode(Token{
		Kind:     KindPickServer,
		Provider: tok.Provider,
		Media:    tok.Media,
		ID:       tok.ID,
		Season:   tok.Season,
		Episode:  tok.Episode,
	})
	if err == nil {
		rows = append(rows, []models.Button{
			{Label: msg(loc, "other_servers"), Token: serverToken},
		})
	}

	return models.Reply{
		Text:     n.detailCard(loc, detail, tok.Season, tok.Episode),
		PhotoURL: detail.PosterURL,
		Buttons:  rows,
	}, nil
}

func (n *Navigator) pickServer(ctx context.Context, loc string, tok Token) (models.Reply, error) {
	prov := n.catalogs.Get(tok.Provider)
	if prov == nil {
		return models.Reply{Text: msg(loc, "bad_token")}, nil
	}

	detail, err := prov.GetDetail(ctx, tok.ID, tok.Media)
	if err != nil {
		return n.catalogErrorReply(loc, err)
	}

	var rows [][]models.Button
	for _, srv := range Servers() {
		var u string
		if tok.Media == models.MediaKindSeries {
			u = EpisodeStreamURL(srv.Host, tok.Provider, tok.ID, tok.Season, tok.Episode)
		} else {
			u = MovieStreamURL(srv.Host, tok.Provider, tok.ID)
		}
		rows = append(rows, []models.Button{{Label: srv.Name, URL: u}})
	}

	label := detail.Title
	if tok.Media == models.MediaKindSeries {
		label += " " + fmt.Sprintf(msg(loc, "episode_tag"), tok.Season, tok.Episode)
	}

	return models.Reply{
		Text:    fmt.Sprintf(msg(loc, "servers_header"), label),
		Buttons: rows,
	}, nil
}

func (n *Navigator) renderResults(loc, query string, res *search.Result) models.Reply {
	if res.QuotaExhausted {
		return models.Reply{Text: fmt.Sprintf(msg(loc, "quota_exhausted"), n.aiCeiling)}
	}

	if len(res.Items) == 0 {
		if res.Suggestion != "" {
			return models.Reply{Text: fmt.Sprintf(msg(loc, "ai_no_match"), res.Suggestion)}
		}
		return models.Reply{Text: fmt.Sprintf(msg(loc, "no_results"), query)}
	}

	header := fmt.Sprintf(msg(loc, "results_header"), query)
	if res.Suggestion != "" {
		header = fmt.Sprintf(msg(loc, "ai_suggestion"), res.Suggestion)
	}

	var rows [][]models.Button
	for _, item := range res.Items {
		token, err := Encode(Token{
			Kind:     KindPickResult,
			Provider: item.Provider,
			Media:    item.Kind,
			ID:       item.ID,
		})
		if err != nil {
			log.Printf("[nav] skipping unencodable result %s/%s: %v", item.Provider, item.ID, err)
			continue
		}
		rows = append(rows, []models.Button{{Label: resultLabel(item), Token: token}})
	}

	return models.Reply{Text: header, Buttons: rows}
}

func (n *Navigator) detailCard(loc string, d *models.TitleDetail, season, episode int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", d.Title)
	if d.Year > 0 {
		fmt.Fprintf(&b, " (%d)", d.Year)
	}
	if season > 0 && episode > 0 {
		b.WriteString(" " + fmt.Sprintf(msg(loc, "episode_tag"), season, episode))
	}
	if d.Rating != "" {
		fmt.Fprintf(&b, "\n⭐ %s", d.Rating)
	}
	if d.Genre != "" {
		fmt.Fprintf(&b, "\n🎭 %s", d.Genre)
	}
	if d.Overview != "" {
		fmt.Fprintf(&b, "\n\n%s", d.Overview)
	}
	return b.String()
}

func (n *Navigator) catalogErrorReply(loc string, err error) (models.Reply, error) {
	if errors.Is(err, catalog.ErrContentUnavailable) {
		return models.Reply{Text: msg(loc, "content_unavailable")}, nil
	}
	return models.Reply{}, err
}

func resultLabel(item models.SearchResult) string {
	icon := "🎬"
	if item.Kind == models.MediaKindSeries {
		icon = "📺"
	}
	if item.Year > 0 {
		return fmt.Sprintf("%s %s (%d)", icon, item.Title, item.Year)
	}
	return fmt.Sprintf("%s %s", icon, item.Title)
}
