package nav

import (
	"fmt"
	"net/url"
)

// Server is one external playback host. Templates differ per provider because
// the embed hosts accept different id namespaces (IMDb vs TMDB).
type Server struct {
	Name string
	Host string
}

var servers = []Server{
	{Name: "VidSrc", Host: "vidsrc.me"},
	{Name: "2Embed", Host: "2embed.cc"},
}

// Servers returns the selectable playback hosts in display order.
func Servers() []Server {
	out := make([]Server, len(servers))
	copy(out, servers)
	return out
}

// MovieStreamURL builds the embed player link for a movie.
func MovieStreamURL(host, provider, id string) string {
	param := "imdb"
	if provider == "tmdb" {
		param = "tmdb"
	}
	return fmt.Sprintf("https://%s/embed/movie?%s=%s", host, param, url.QueryEscape(id))
}

// EpisodeStreamURL builds the embed player link for one episode of a series.
func EpisodeStreamURL(host, provider, id string, season, episode int) string {
	param := "imdb"
	if provider == "tmdb" {
		param = "tmdb"
	}
	return fmt.Sprintf("https://%s/embed/tv?%s=%s&season=%d&episode=%d",
		host, param, url.QueryEscape(id), season, episode)
}

// DownloadURL builds a torrent browse link for a movie title.
func DownloadURL(title string) string {
	return "https://yts.mx/browse-movies/" + url.QueryEscape(title)
}
