package eventbus

import (
	"context"

	"github.com/annel0/block-engine/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог на уровне DEBUG
func StartLoggingListener(bus EventBus, logger *logging.Logger) (Subscription, error) {
	if logger == nil {
		logger = logging.GetComponentLogger("eventbus")
	}
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		logger.Debug("[EventBus] %s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Логирование событий шины включено")
	return sub, nil
}
