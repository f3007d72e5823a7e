package nav

import (
	"errors"
	"strings"
	"testing"

	"cineseek/models"
)

func TestTokenRoundTrip(t *testing.T) {
	cases := []Token{
		{Kind: KindSelectLanguage, Lang: "si"},
		{Kind: KindPickGenre, Genre: "comedy"},
		{Kind: KindPickResult, Provider: "omdb", Media: models.MediaKindMovie, ID: "tt0133093"},
		{Kind: KindPickResult, Provider: "tmdb", Media: models.MediaKindSeries, ID: "1396"},
		{Kind: KindPickSeason, Provider: "omdb", Media: models.MediaKindSeries, ID: "tt0903747", Season: 2},
		{Kind: KindPickEpisode, Provider: "omdb", Media: models.MediaKindSeries, ID: "tt0903747", Season: 2, Episode: 5},
		{Kind: KindRequestUnlock, Provider: "omdb", Media: models.MediaKindMovie, ID: "tt0133093"},
		{Kind: KindRequestUnlock, Provider: "tmdb", Media: models.MediaKindSeries, ID: "1396", Season: 3, Episode: 7},
		{Kind: KindPickServer, Provider: "omdb", Media: models.MediaKindMovie, ID: "tt0111161"},
		{Kind: KindPickServer, Provider: "omdb", Media: models.MediaKindSeries, ID: "tt0903747", Season: 1, Episode: 1},
	}

	for _, want := range cases {
		encoded, err := Encode(want)
		if err != nil {
			t.Fatalf("Encode(%+v): %v", want, err)
		}
		if len(encoded) > MaxTokenLen {
			t.Fatalf("Encode(%+v) = %q, longer than %d bytes", want, encoded, MaxTokenLen)
		}

		got, err := Decode(encoded)
		if err != nil {
			t.Fatalf("Decode(%q): %v", encoded, err)
		}
		if got != want {
			t.Errorf("round trip %q: got %+v, want %+v", encoded, got, want)
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	tok := Token{Kind: KindPickResult, Provider: "omdb", Media: models.MediaKindMovie, ID: "tt0133093"}
	a, err := Encode(tok)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(tok)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same token encoded differently: %q vs %q", a, b)
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"bogus_en",
		"lang",
		"lang_en_extra",
		"res_omdb_tt0133093",          // missing media tag
		"res_omdb_x_tt0133093",        // bad media tag
		"sea_omdb_tt0903747",          // missing season
		"sea_omdb_tt0903747_zero",     // non-numeric season
		"sea_omdb_tt0903747_0",        // season must be positive
		"epi_omdb_tt0903747_2",        // missing episode
		"epi_omdb_tt0903747_2_-1",     // negative episode
		"unl_omdb_m_tt0133093_1_0",    // movie with season set
		"unl_omdb_s_tt0903747_0_0",    // series without season/episode
		"unl_omdb_s_tt0903747_2",      // wrong arity
		"srv_omdb_s_tt0903747_2_5_9",  // too many fields
		strings.Repeat("a", MaxTokenLen+1),
	}

	for _, raw := range cases {
		got, err := Decode(raw)
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Decode(%q): got err %v, want ErrMalformedToken", raw, err)
		}
		if got != (Token{}) {
			t.Errorf("Decode(%q) returned partial token %+v on error", raw, got)
		}
	}
}

func TestEncodeRejectsOversizedToken(t *testing.T) {
	tok := Token{
		Kind:     KindPickResult,
		Provider: "omdb",
		Media:    models.MediaKindMovie,
		ID:       strings.Repeat("x", MaxTokenLen),
	}
	if _, err := Encode(tok); !errors.Is(err, ErrTokenTooLong) {
		t.Errorf("got err %v, want ErrTokenTooLong", err)
	}
}

func TestEncodeRejectsSeparatorInPayload(t *testing.T) {
	tok := Token{Kind: KindPickResult, Provider: "omdb", Media: models.MediaKindMovie, ID: "tt01_33093"}
	if _, err := Encode(tok); !errors.Is(err, ErrMalformedToken) {
		t.Errorf("got err %v, want ErrMalformedToken", err)
	}
}
