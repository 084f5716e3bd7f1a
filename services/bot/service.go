package bot

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sourcegraph/conc/pool"

	"cinebot/config"
	"cinebot/models"
	"cinebot/services/session"
	"cinebot/services/telegram"
	"cinebot/services/tmdb"
)

const (
	maxSearchResults   = 10
	maxRecommendations = 5
	maxSeasonFetches   = 4

	msgGreeting        = "Hola 👋. Envíame el título de una película o serie para buscarla en TMDb."
	msgNoResults       = "❌ No se encontraron resultados."
	msgPickResult      = "Selecciona el resultado correcto:"
	msgUnknownItem     = "⚠️ No se encontró la información de la película."
	msgUnknownSeries   = "⚠️ No se pudo encontrar la serie."
	msgNoHighlights    = "❌ No se encontraron episodios que superen el umbral de puntuación."
	msgHighlightsTitle = "⭐️ *Episodios destacados:*\n\n"
	msgOfferHighlights = "¿Quieres ver los episodios mejor valorados?"
	btnHighlights      = "📈 Ver mejores episodios"
)

// highlightsPrefix tags callback payloads that route to the best-episodes
// listing instead of the detail view.
const highlightsPrefix = "mejores_"

var highlightsPattern = regexp.MustCompile(`^mejores_\d+$`)

type metadataProvider interface {
	SearchMulti(ctx context.Context, query string) ([]models.MediaItem, error)
	Details(ctx context.Context, mediaType models.MediaType, id string) (*models.MediaDetail, error)
	Season(ctx context.Context, id string, season int) ([]models.Episode, error)
	Videos(ctx context.Context, mediaType models.MediaType, id string) ([]models.Video, error)
	Recommendations(ctx context.Context, mediaType models.MediaType, id string) ([]models.MediaItem, error)
}

type sessionStore interface {
	Put(user, handle string, item models.MediaItem)
	Get(user, handle string) (models.MediaItem, bool)
}

type transport interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *telegram.SendOptions) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption, parseMode string) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

var (
	_ metadataProvider = (*tmdb.Client)(nil)
	_ sessionStore     = (*session.Store)(nil)
	_ transport        = (*telegram.Client)(nil)
)

// Service is the dialogue controller: it turns one inbound update into
// provider calls, session updates and a reply.
type Service struct {
	cfg      *config.Config
	provider metadataProvider
	sessions sessionStore
	sender   transport
}

// NewService wires the dialogue controller.
func NewService(cfg *config.Config, provider metadataProvider, sessions sessionStore, sender transport) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		sessions: sessions,
		sender:   sender,
	}
}

// HandleUpdate processes one inbound event to completion. Updates from
// actors missing from the allow-list are dropped without any reply, so the
// bot stays invisible to strangers. A returned error means the provider or
// the transport failed mid-flow; the caller decides how to surface it.
func (s *Service) HandleUpdate(ctx context.Context, update telegram.Update) error {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if !s.cfg.UserAllowed(cb.From.Username) {
			return nil
		}
		if cb.Message == nil {
			return nil
		}
		if err := s.sender.AnswerCallbackQuery(ctx, cb.ID); err != nil {
			log.Printf("[bot] answer callback failed: %v", err)
		}
		chatID := cb.Message.Chat.ID
		user := cb.From.Username
		if highlightsPattern.MatchString(cb.Data) {
			return s.highlightedEpisodes(ctx, user, chatID, strings.TrimPrefix(cb.Data, highlightsPrefix))
		}
		return s.showDetail(ctx, user, chatID, cb.Data)

	case update.Message != nil:
		msg := update.Message
		if msg.From == nil || !s.cfg.UserAllowed(msg.From.Username) {
			return nil
		}
		text := strings.TrimSpace(msg.Text)
		if text == "" {
			return nil
		}
		if text == "/start" || strings.HasPrefix(text, "/start ") {
			return s.greet(ctx, msg.Chat.ID)
		}
		if strings.HasPrefix(text, "/") {
			// Unknown commands are ignored rather than searched for.
			return nil
		}
		return s.search(ctx, msg.From.Username, msg.Chat.ID, text)
	}
	return nil
}

func (s *Service) greet(ctx context.Context, chatID int64) error {
	return s.sender.SendMessage(ctx, chatID, msgGreeting, nil)
}

func (s *Service) search(ctx context.Context, user string, chatID int64, query string) error {
	results, err := s.provider.SearchMulti(ctx, query)
	if err != nil {
		return fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return s.sender.SendMessage(ctx, chatID, msgNoResults, nil)
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}

	keyboard := s.mintButtons(user, results)
	log.Printf("[bot] search user=%q query=%q results=%d", user, query, len(results))
	return s.sender.SendMessage(ctx, chatID, msgPickResult, &telegram.SendOptions{
		ReplyMarkup: &telegram.InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
}

// mintButtons stores each item in the caller's session and returns one
// button row per item. A handle is only ever dereferenceable after it has
// been offered as a button here.
func (s *Service) mintButtons(user string, items []models.MediaItem) [][]telegram.InlineKeyboardButton {
	keyboard := make([][]telegram.InlineKeyboardButton, 0, len(items))
	for _, item := range items {
		handle := item.Handle()
		s.sessions.Put(user, handle, item)
		keyboard = append(keyboard, []telegram.InlineKeyboardButton{
			{Text: item.ButtonLabel(), Data: handle},
		})
	}
	return keyboard
}

func (s *Service) showDetail(ctx context.Context, user string, chatID int64, handle string) error {
	item, ok := s.sessions.Get(user, handle)
	if !ok {
		// Stale handle, e.g. a button from before a restart or an evicted
		// session entry.
		return s.sender.SendMessage(ctx, chatID, msgUnknownItem, nil)
	}

	detail, err := s.provider.Details(ctx, item.MediaType, handle)
	if err != nil {
		return fmt.Errorf("detail %s/%s: %w", item.MediaType, handle, err)
	}

	if item.MediaType == models.MediaTypeTV {
		offer := &telegram.SendOptions{
			ReplyMarkup: &telegram.InlineKeyboardMarkup{
				InlineKeyboard: [][]telegram.InlineKeyboardButton{
					{{Text: btnHighlights, Data: highlightsPrefix + handle}},
				},
			},
		}
		if err := s.sender.SendMessage(ctx, chatID, msgOfferHighlights, offer); err != nil {
			return fmt.Errorf("offer highlights: %w", err)
		}
	}

	videos, err := s.provider.Videos(ctx, item.MediaType, handle)
	if err != nil {
		return fmt.Errorf("videos %s/%s: %w", item.MediaType, handle, err)
	}

	caption := composeCaption(item, detail, pickTrailer(videos))
	if err := s.renderDetail(ctx, chatID, posterURL(item), caption); err != nil {
		return err
	}

	return s.recommend(ctx, user, chatID, item)
}

// renderDetail sends the poster and caption as one combined message when the
// caption fits Telegram's caption budget, otherwise as photo then text.
func (s *Service) renderDetail(ctx context.Context, chatID int64, poster, caption string) error {
	if poster != "" && utf8.RuneCountInString(caption) <= captionLimit {
		if err := s.sender.SendPhoto(ctx, chatID, poster, caption, telegram.ParseModeMarkdown); err != nil {
			return fmt.Errorf("send detail photo: %w", err)
		}
		return nil
	}
	if poster != "" {
		if err := s.sender.SendPhoto(ctx, chatID, poster, "", ""); err != nil {
			return fmt.Errorf("send poster: %w", err)
		}
	}
	if err := s.sender.SendMessage(ctx, chatID, caption, &telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown}); err != nil {
		return fmt.Errorf("send detail text: %w", err)
	}
	return nil
}

func (s *Service) recommend(ctx context.Context, user string, chatID int64, item models.MediaItem) error {
	recs, err := s.provider.Recommendations(ctx, item.MediaType, item.Handle())
	if err != nil {
		return fmt.Errorf("recommendations %s/%s: %w", item.MediaType, item.Handle(), err)
	}
	if len(recs) == 0 {
		return nil
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}

	label := "🎬 Series relacionadas:"
	if item.MediaType == models.MediaTypeMovie {
		label = "🎬 Películas relacionadas:"
	}

	keyboard := s.mintButtons(user, recs)
	return s.sender.SendMessage(ctx, chatID, label, &telegram.SendOptions{
		ReplyMarkup: &telegram.InlineKeyboardMarkup{InlineKeyboard: keyboard},
	})
}

func (s *Service) highlightedEpisodes(ctx context.Context, user string, chatID int64, handle string) error {
	item, ok := s.sessions.Get(user, handle)
	if !ok || item.MediaType != models.MediaTypeTV {
		return s.sender.SendMessage(ctx, chatID, msgUnknownSeries, nil)
	}

	detail, err := s.provider.Details(ctx, models.MediaTypeTV, handle)
	if err != nil {
		return fmt.Errorf("series detail %s: %w", handle, err)
	}

	highlights, err := s.collectHighlights(ctx, item, handle, detail.NumberOfSeasons)
	if err != nil {
		return err
	}
	if len(highlights) == 0 {
		return s.sender.SendMessage(ctx, chatID, msgNoHighlights, nil)
	}

	lines := make([]string, 0, len(highlights))
	for _, h := range highlights {
		lines = append(lines, h.Format())
	}
	text := msgHighlightsTitle + strings.Join(lines, "\n")
	return s.sender.SendMessage(ctx, chatID, text, &telegram.SendOptions{ParseMode: telegram.ParseModeMarkdown})
}

// collectHighlights fans season fetches out with bounded concurrency and
// reassembles the retained episodes in season-then-episode order, so the
// final listing reads the same as a sequential 1..N walk would.
func (s *Service) collectHighlights(ctx context.Context, item models.MediaItem, handle string, seasons int) ([]models.EpisodeHighlight, error) {
	perSeason := make([][]models.EpisodeHighlight, seasons)

	p := pool.New().WithErrors().WithContext(ctx).WithMaxGoroutines(maxSeasonFetches)
	for n := 1; n <= seasons; n++ {
		n := n
		p.Go(func(ctx context.Context) error {
			episodes, err := s.provider.Season(ctx, handle, n)
			if err != nil {
				return fmt.Errorf("season %d: %w", n, err)
			}
			var kept []models.EpisodeHighlight
			for _, ep := range episodes {
				if ep.VoteAverage >= s.cfg.MinEpisodeScore {
					kept = append(kept, models.EpisodeHighlight{
						SeriesTitle: item.DisplayTitle(),
						Season:      n,
						Episode:     ep.EpisodeNumber,
						Score:       ep.VoteAverage,
					})
				}
			}
			perSeason[n-1] = kept
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("collect highlights: %w", err)
	}

	var highlights []models.EpisodeHighlight
	for _, kept := range perSeason {
		highlights = append(highlights, kept...)
	}
	return highlights, nil
}
