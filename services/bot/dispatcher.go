package bot

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"cinebot/services/telegram"
)

const (
	pollTimeoutSeconds = 50
	pollRetryDelay     = 3 * time.Second

	msgSomethingWentWrong = "⚠️ Algo salió mal. Inténtalo de nuevo más tarde."
)

type updateSource interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
}

var _ updateSource = (*telegram.Client)(nil)

// Dispatcher long-polls Telegram for updates and hands each one to the
// dialogue controller in its own goroutine. A failed update is logged and
// answered with a generic apology; it never takes the process down.
type Dispatcher struct {
	source  updateSource
	service *Service
	sender  transport
}

// NewDispatcher wires the polling loop around the dialogue controller.
func NewDispatcher(source updateSource, service *Service, sender transport) *Dispatcher {
	return &Dispatcher{
		source:  source,
		service: service,
		sender:  sender,
	}
}

// Run polls until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	var offset int64
	for {
		updates, err := d.source.GetUpdates(ctx, offset, pollTimeoutSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("[bot] poll failed: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			go d.handle(ctx, update)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, update telegram.Update) {
	// Short correlation id tying this update's log lines together.
	id := uuid.NewString()[:8]

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[bot] update %s panicked: %v", id, r)
		}
	}()

	if err := d.service.HandleUpdate(ctx, update); err != nil {
		log.Printf("[bot] update %s failed: %v", id, err)
		if chatID, ok := update.ChatID(); ok {
			if sendErr := d.sender.SendMessage(ctx, chatID, msgSomethingWentWrong, nil); sendErr != nil {
				log.Printf("[bot] update %s error reply failed: %v", id, sendErr)
			}
		}
	}
}
