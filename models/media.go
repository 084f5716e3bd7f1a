package models

import "fmt"

// MediaType discriminates the two catalog kinds TMDb returns that we support.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeTV    MediaType = "tv"
)

// Supported reports whether the media type is one the bot can drill into.
func (m MediaType) Supported() bool {
	return m == MediaTypeMovie || m == MediaTypeTV
}

// UnknownYear is shown when a result carries no release date at all.
const UnknownYear = "¿?"

// MediaItem is the subset of a TMDb search/recommendation result kept in the
// per-user session for later drill-down.
type MediaItem struct {
	ID           int       `json:"id"`
	MediaType    MediaType `json:"media_type"`
	Title        string    `json:"title,omitempty"`      // movies
	Name         string    `json:"name,omitempty"`       // series
	ReleaseDate  string    `json:"release_date,omitempty"`
	FirstAirDate string    `json:"first_air_date,omitempty"`
	Overview     string    `json:"overview,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	VoteAverage  float64   `json:"vote_average,omitempty"`
	VoteCount    int       `json:"vote_count,omitempty"`
}

// DisplayTitle returns the movie title or, failing that, the series name.
func (m MediaItem) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Name
}

// Year derives the four-digit year from whichever date field is present.
func (m MediaItem) Year() string {
	date := m.ReleaseDate
	if date == "" {
		date = m.FirstAirDate
	}
	if len(date) < 4 {
		return UnknownYear
	}
	return date[:4]
}

// ButtonLabel formats the item the way it is shown on a selection button.
func (m MediaItem) ButtonLabel() string {
	return fmt.Sprintf("%s (%s)", m.DisplayTitle(), m.Year())
}

// Handle returns the session key under which the item is stored, derived
// from the provider's numeric id.
func (m MediaItem) Handle() string {
	return fmt.Sprintf("%d", m.ID)
}

// Genre is a TMDb genre entry.
type Genre struct {
	Name string `json:"name"`
}

// ProductionCountry is the object-shaped country entry on movie details.
type ProductionCountry struct {
	ISO3166 string `json:"iso_3166_1"`
}

// MediaDetail holds the extra fields only present on the per-item detail
// endpoints. Movie and series details share this shape; fields the other
// kind lacks stay at their zero value.
type MediaDetail struct {
	ID                  int                 `json:"id"`
	Runtime             int                 `json:"runtime,omitempty"`          // movies, minutes
	EpisodeRunTime      []int               `json:"episode_run_time,omitempty"` // series, minutes
	NumberOfSeasons     int                 `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes    int                 `json:"number_of_episodes,omitempty"`
	Status              string              `json:"status,omitempty"`
	VoteAverage         float64             `json:"vote_average,omitempty"`
	VoteCount           int                 `json:"vote_count,omitempty"`
	Genres              []Genre             `json:"genres,omitempty"`
	ProductionCountries []ProductionCountry `json:"production_countries,omitempty"`
	OriginCountry       []string            `json:"origin_country,omitempty"`
}

// AverageEpisodeRunTime returns the integer mean of the per-episode running
// times, or 0 when the provider reported none.
func (d MediaDetail) AverageEpisodeRunTime() int {
	if len(d.EpisodeRunTime) == 0 {
		return 0
	}
	total := 0
	for _, rt := range d.EpisodeRunTime {
		total += rt
	}
	return total / len(d.EpisodeRunTime)
}

// Video is one entry from the TMDb videos endpoint.
type Video struct {
	Site string `json:"site"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

// Episode is one entry from a TMDb season detail response.
type Episode struct {
	Name          string  `json:"name"`
	EpisodeNumber int     `json:"episode_number"`
	VoteAverage   float64 `json:"vote_average"`
}

// EpisodeHighlight is a top-rated episode of a series, computed on demand
// from season data and never stored.
type EpisodeHighlight struct {
	SeriesTitle string
	Season      int
	Episode     int
	Score       float64
}

// Format renders the highlight line shown to the user.
func (h EpisodeHighlight) Format() string {
	return fmt.Sprintf("%s %dx%02d - %.1f TMDb", h.SeriesTitle, h.Season, h.Episode, h.Score)
}
