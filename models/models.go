package models

// MediaKind distinguishes movies from series throughout the catalog surface.
type MediaKind string

const (
	MediaKindMovie  MediaKind = "movie"
	MediaKindSeries MediaKind = "series"
)

// Valid reports whether the kind is one of the two supported values.
func (k MediaKind) Valid() bool {
	return k == MediaKindMovie || k == MediaKindSeries
}

// SearchResult is a normalized catalog search hit. Results are ephemeral:
// produced by the aggregator, rendered into buttons, then discarded.
type SearchResult struct {
	Provider  string    `json:"provider"`
	ID        string    `json:"id"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	PosterURL string    `json:"posterUrl,omitempty"`
}

// TitleDetail is the full detail record for a single catalog title.
type TitleDetail struct {
	Provider  string    `json:"provider"`
	ID        string    `json:"id"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title"`
	Year      int       `json:"year,omitempty"`
	Rating    string    `json:"rating,omitempty"`
	Genre     string    `json:"genre,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	PosterURL string    `json:"posterUrl,omitempty"`
}

// Button is one tappable affordance in a reply. Exactly one of Token or URL
// is set: Token buttons come back through the navigation codec, URL buttons
// open an external player/download page directly.
type Button struct {
	Label string `json:"label"`
	Token string `json:"token,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Reply is a transport-neutral outbound message: text, an optional photo,
// and zero or more rows of buttons. The chat adapter translates it into
// whatever the transport needs.
type Reply struct {
	Text      string     `json:"text"`
	PhotoURL  string     `json:"photoUrl,omitempty"`
	Buttons   [][]Button `json:"buttons,omitempty"`
	Ephemeral bool       `json:"ephemeral,omitempty"` // interim prompt, removed after the reveal
}
