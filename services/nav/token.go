package nav

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"cineseek/models"
)

// Kind discriminates navigation token types. Every inbound button action is
// one of these; the kind fully determines the payload arity.
type Kind string

const (
	KindSelectLanguage Kind = "select_language"
	KindPickGenre      Kind = "pick_genre"
	KindPickResult     Kind = "pick_result"
	KindPickSeason     Kind = "pick_season"
	KindPickEpisode    Kind = "pick_episode"
	KindRequestUnlock  Kind = "request_unlock"
	KindPickServer     Kind = "pick_server"
)

// MaxTokenLen is the chat transport's hard limit on button payload strings
// (Telegram callback data is capped at 64 bytes).
const MaxTokenLen = 64

const sep = "_"

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrTokenTooLong   = errors.New("token exceeds transport limit")
)

// wire prefixes, kept short so real catalog ids fit under MaxTokenLen.
var kindPrefix = map[Kind]string{
	KindSelectLanguage: "lang",
	KindPickGenre:      "gen",
	KindPickResult:     "res",
	KindPickSeason:     "sea",
	KindPickEpisode:    "epi",
	KindRequestUnlock:  "unl",
	KindPickServer:     "srv",
}

var prefixKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindPrefix))
	for k, p := range kindPrefix {
		m[p] = k
	}
	return m
}()

// Token is a stateless navigation action. Which fields are meaningful depends
// on Kind; Encode and Decode enforce the exact arity per kind.
//
//	select_language: Lang
//	pick_genre:      Genre
//	pick_result:     Provider, Media, ID
//	pick_season:     Provider, ID, Season
//	pick_episode:    Provider, ID, Season, Episode
//	request_unlock:  Provider, Media, ID, Season, Episode
//	pick_server:     Provider, Media, ID, Season, Episode
type Token struct {
	Kind     Kind
	Lang     string
	Genre    string
	Provider string
	Media    models.MediaKind
	ID       string
	Season   int
	Episode  int
}

func mediaTag(k models.MediaKind) string {
	if k == models.MediaKindSeries {
		return "s"
	}
	return "m"
}

func mediaFromTag(tag string) (models.MediaKind, bool) {
	switch tag {
	case "m":
		return models.MediaKindMovie, true
	case "s":
		return models.MediaKindSeries, true
	}
	return "", false
}

// Encode serializes a token. Encoding is pure and deterministic: the same
// token always yields the same string, and the kind prefix guarantees no
// collisions across kinds.
func Encode(t Token) (string, error) {
	prefix, ok := kindPrefix[t.Kind]
	if !ok {
		return "", fmt.Errorf("%w: unknown kind %q", ErrMalformedToken, t.Kind)
	}

	parts := []string{prefix}
	switch t.Kind {
	case KindSelectLanguage:
		if t.Lang == "" || strings.Contains(t.Lang, sep) {
			return "", fmt.Errorf("%w: bad language payload", ErrMalformedToken)
		}
		parts = append(parts, t.Lang)
	case KindPickGenre:
		if t.Genre == "" || strings.Contains(t.Genre, sep) {
			return "", fmt.Errorf("%w: bad genre payload", ErrMalformedToken)
		}
		parts = append(parts, strings.ToLower(t.Genre))
	case KindPickResult:
		if err := validateRef(t.Provider, t.ID); err != nil {
			return "", err
		}
		if !t.Media.Valid() {
			return "", fmt.Errorf("%w: bad media kind", ErrMalformedToken)
		}
		parts = append(parts, t.Provider, mediaTag(t.Media), t.ID)
	case KindPickSeason:
		if err := validateRef(t.Provider, t.ID); err != nil {
			return "", err
		}
		if t.Season <= 0 {
			return "", fmt.Errorf("%w: bad season number", ErrMalformedToken)
		}
		parts = append(parts, t.Provider, t.ID, strconv.Itoa(t.Season))
	case KindPickEpisode:
		if err := validateRef(t.Provider, t.ID); err != nil {
			return "", err
		}
		if t.Season <= 0 || t.Episode <= 0 {
			return "", fmt.Errorf("%w: bad season/episode numbers", ErrMalformedToken)
		}
		parts = append(parts, t.Provider, t.ID, strconv.Itoa(t.Season), strconv.Itoa(t.Episode))
	case KindRequestUnlock, KindPickServer:
		if err := validateRef(t.Provider, t.ID); err != nil {
			return "", err
		}
		if !t.Media.Valid() {
			return "", fmt.Errorf("%w: bad media kind", ErrMalformedToken)
		}
		// Movies carry zero season/episode; series must carry both.
		if t.Media == models.MediaKindSeries && (t.Season <= 0 || t.Episode <= 0) {
			return "", fmt.Errorf("%w: series token requires season and episode", ErrMalformedToken)
		}
		if t.Media == models.MediaKindMovie && (t.Season != 0 || t.Episode != 0) {
			return "", fmt.Errorf("%w: movie token cannot carry season/episode", ErrMalformedToken)
		}
		parts = append(parts, t.Provider, mediaTag(t.Media), t.ID, strconv.Itoa(t.Season), strconv.Itoa(t.Episode))
	}

	encoded := strings.Join(parts, sep)
	if len(encoded) > MaxTokenLen {
		return "", fmt.Errorf("%w: %d bytes", ErrTokenTooLong, len(encoded))
	}
	return encoded, nil
}

// Decode parses a token string, validating payload arity against the kind.
// It fails closed: any mismatch yields ErrMalformedToken and a zero Token,
// never a partially populated one.
func Decode(raw string) (Token, error) {
	if raw == "" || len(raw) > MaxTokenLen {
		return Token{}, fmt.Errorf("%w: bad length", ErrMalformedToken)
	}

	parts := strings.Split(raw, sep)
	kind, ok := prefixKind[parts[0]]
	if !ok {
		return Token{}, fmt.Errorf("%w: unknown prefix %q", ErrMalformedToken, parts[0])
	}
	payload := parts[1:]

	switch kind {
	case KindSelectLanguage:
		if len(payload) != 1 || payload[0] == "" {
			return Token{}, arityErr(kind, len(payload))
		}
		return Token{Kind: kind, Lang: payload[0]}, nil

	case KindPickGenre:
		if len(payload) != 1 || payload[0] == "" {
			return Token{}, arityErr(kind, len(payload))
		}
		return Token{Kind: kind, Genre: payload[0]}, nil

	case KindPickResult:
		if len(payload) != 3 {
			return Token{}, arityErr(kind, len(payload))
		}
		media, ok := mediaFromTag(payload[1])
		if !ok {
			return Token{}, fmt.Errorf("%w: bad media tag %q", ErrMalformedToken, payload[1])
		}
		if payload[0] == "" || payload[2] == "" {
			return Token{}, arityErr(kind, len(payload))
		}
		return Token{Kind: kind, Provider: payload[0], Media: media, ID: payload[2]}, nil

	case KindPickSeason:
		if len(payload) != 3 || payload[0] == "" || payload[1] == "" {
			return Token{}, arityErr(kind, len(payload))
		}
		season, err := parseOrdinal(payload[2])
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: kind, Provider: payload[0], Media: models.MediaKindSeries, ID: payload[1], Season: season}, nil

	case KindPickEpisode:
		if len(payload) != 4 || payload[0] == "" || payload[1] == "" {
			return Token{}, arityErr(kind, len(payload))
		}
		season, err := parseOrdinal(payload[2])
		if err != nil {
			return Token{}, err
		}
		episode, err := parseOrdinal(payload[3])
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: kind, Provider: payload[0], Media: models.MediaKindSeries, ID: payload[1], Season: season, Episode: episode}, nil

	case KindRequestUnlock, KindPickServer:
		if len(payload) != 5 || payload[0] == "" || payload[2] == "" {
			return Token{}, arityErr(kind, len(payload))
		}
		media, ok := mediaFromTag(payload[1])
		if !ok {
			return Token{}, fmt.Errorf("%w: bad media tag %q", ErrMalformedToken, payload[1])
		}
		season, err := parseOrdinalOrZero(payload[3])
		if err != nil {
			return Token{}, err
		}
		episode, err := parseOrdinalOrZero(payload[4])
		if err != nil {
			return Token{}, err
		}
		if media == models.MediaKindSeries && (season == 0 || episode == 0) {
			return Token{}, fmt.Errorf("%w: series token requires season and episode", ErrMalformedToken)
		}
		if media == models.MediaKindMovie && (season != 0 || episode != 0) {
			return Token{}, fmt.Errorf("%w: movie token cannot carry season/episode", ErrMalformedToken)
		}
		return Token{Kind: kind, Provider: payload[0], Media: media, ID: payload[2], Season: season, Episode: episode}, nil
	}

	return Token{}, fmt.Errorf("%w: unknown kind", ErrMalformedToken)
}

func validateRef(provider, id string) error {
	if provider == "" || strings.Contains(provider, sep) {
		return fmt.Errorf("%w: bad provider", ErrMalformedToken)
	}
	if id == "" || strings.Contains(id, sep) {
		return fmt.Errorf("%w: bad catalog id", ErrMalformedToken)
	}
	return nil
}

func parseOrdinal(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: bad ordinal %q", ErrMalformedToken, s)
	}
	return n, nil
}

func parseOrdinalOrZero(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: bad ordinal %q", ErrMalformedToken, s)
	}
	return n, nil
}

func arityErr(kind Kind, got int) error {
	return fmt.Errorf("%w: wrong field count for %s (%d)", ErrMalformedToken, kind, got)
}
