package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

func logged(p Policy, log *zap.Logger) Policy {
	if log == nil {
		return p
	}
	log = log.With(zap.String("retry", p.Name))
	p.OnAttempt = func(i int, err error) {
		log.Warn("retry attempt", zap.Int("attempt", i+1), zap.Error(err))
	}
	p.OnExhaust = func(err error) {
		if !errors.Is(err, context.Canceled) {
			log.Error("retries exhausted", zap.Error(err))
		}
	}
	return p
}

// DefaultKafkaPolicy covers publishing to the broker from the outbox. The
// outbox re-queues what it gives up on, so the cap stays modest.
func DefaultKafkaPolicy(log *zap.Logger) Policy {
	return logged(Policy{
		Name:     "kafka_publish",
		Attempts: 6,
		Backoff:  ExpoJitter{Base: 200 * time.Millisecond, Max: 30 * time.Second, Jitter: 0.2},
	}, log)
}

// SMTPPolicy covers handing an alert email to the mail relay.
func SMTPPolicy(log *zap.Logger) Policy {
	return logged(Policy{
		Name:     "smtp_send",
		Attempts: 3,
		Backoff:  ExpoJitter{Base: 500 * time.Millisecond, Max: 5 * time.Second, Jitter: 0.2},
	}, log)
}
