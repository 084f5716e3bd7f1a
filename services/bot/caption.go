package bot

import (
	"fmt"
	"strings"

	"cinebot/models"
	"cinebot/services/tmdb"
)

// captionLimit is Telegram's budget for a photo caption; longer texts must
// be sent as a separate message.
const captionLimit = 1024

const noOverview = "Sin sinopsis disponible."

// composeCaption builds the Markdown detail text for one item from the
// session record (title, year, overview) and the freshly fetched detail
// (runtime, counts, score, genres, countries). trailerURL may be empty.
func composeCaption(item models.MediaItem, detail *models.MediaDetail, trailerURL string) string {
	var extra strings.Builder

	switch item.MediaType {
	case models.MediaTypeMovie:
		if detail.Runtime > 0 {
			fmt.Fprintf(&extra, "\n⏱ Duración: %d minutos", detail.Runtime)
		}
	case models.MediaTypeTV:
		status := detail.Status
		if status == "" {
			status = "Desconocido"
		}
		avg := "N/D"
		if mean := detail.AverageEpisodeRunTime(); mean > 0 {
			avg = fmt.Sprintf("%d min", mean)
		}
		fmt.Fprintf(&extra, "\n📅 Temporadas: %d\n🎮 Episodios: %d\n📡 Estado: %s\n⏱ Duración media por episodio: %s",
			detail.NumberOfSeasons, detail.NumberOfEpisodes, status, avg)
	}

	if detail.VoteAverage > 0 && detail.VoteCount > 0 {
		fmt.Fprintf(&extra, "\n⭐️ Valoración: %.1f (%d votos)", detail.VoteAverage, detail.VoteCount)
	}

	if len(detail.Genres) > 0 {
		names := make([]string, 0, len(detail.Genres))
		for _, g := range detail.Genres {
			names = append(names, g.Name)
		}
		fmt.Fprintf(&extra, "\n🎭 Géneros: %s", strings.Join(names, ", "))
	}

	if origin := originCountries(detail); origin != "" {
		fmt.Fprintf(&extra, "\n🌍 País de origen: %s", origin)
	}

	overview := item.Overview
	if overview == "" {
		overview = noOverview
	}

	text := fmt.Sprintf("*%s* (%s)%s\n\n%s", item.DisplayTitle(), item.Year(), extra.String(), overview)
	if trailerURL != "" {
		text += fmt.Sprintf("\n\n▶️ [Ver tráiler en YouTube](%s)", trailerURL)
	}
	return text
}

// originCountries joins whichever country shape the detail carries: movie
// details use production_countries objects, series details a plain list of
// ISO codes.
func originCountries(detail *models.MediaDetail) string {
	if len(detail.ProductionCountries) > 0 {
		codes := make([]string, 0, len(detail.ProductionCountries))
		for _, c := range detail.ProductionCountries {
			codes = append(codes, c.ISO3166)
		}
		return strings.Join(codes, ", ")
	}
	return strings.Join(detail.OriginCountry, ", ")
}

// pickTrailer returns the YouTube link for the first video that is a
// trailer hosted on YouTube, in provider list order. Empty when none match.
func pickTrailer(videos []models.Video) string {
	for _, v := range videos {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return "https://www.youtube.com/watch?v=" + v.Key
		}
	}
	return ""
}

// posterURL resolves the full poster image URL, or empty when the item has
// no poster.
func posterURL(item models.MediaItem) string {
	if item.PosterPath == "" {
		return ""
	}
	return tmdb.PosterBaseURL + item.PosterPath
}
