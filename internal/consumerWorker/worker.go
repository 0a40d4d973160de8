package consumerWorker

import (
	"context"
	"encoding/json"

	"github.com/wb-go/wbf/zlog"

	"zettahub/internal/dto"
	"zettahub/internal/mailer"
	"zettahub/internal/rabbit"
	"zettahub/internal/repo"
)

// Reader consumes registration-created messages and sends the confirmation
// email outside the request path. Everything here is best-effort: a lost
// email never invalidates a committed registration.
type Reader struct {
	RMQ    *rabbit.Client
	repo   repo.Repository
	mail   *mailer.Mailer
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq *rabbit.Client, repo repo.Repository, mail *mailer.Mailer) *Reader {
	return &Reader{
		RMQ:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("confirmation-mail worker started")

	go func() {
		defer close(r.done)

		handler := func(body []byte) error {
			var msg dto.RegistrationCreatedMessage
			if err := json.Unmarshal(body, &msg); err != nil {
				zlog.Logger.Error().Err(err).Msgf("failed to unmarshal message: %s", string(body))
				return err
			}

			zlog.Logger.Info().
				Str("registration_id", msg.RegistrationID).
				Str("event_id", msg.EventID).
				Msg("received registration-created message")

			reg, err := r.repo.GetRegistrationByID(cctx, msg.RegistrationID)
			if err != nil {
				// Row may have been admin-deleted before we got here; drop the message.
				zlog.Logger.Warn().
					Err(err).
					Str("registration_id", msg.RegistrationID).
					Msg("registration gone, skipping confirmation email")
				return nil
			}

			event, err := r.repo.GetEventByID(cctx, reg.EventID)
			if err != nil {
				zlog.Logger.Error().
					Err(err).
					Str("event_id", reg.EventID).
					Msg("failed to load event for confirmation email")
				return nil
			}

			if err := r.mail.SendRegistrationEmail(event.Title, msg.Email, reg.QRCode); err != nil {
				zlog.Logger.Warn().Err(err).Msg("failed to send confirmation email")
			}
			return nil
		}

		if err := r.RMQ.Consume(handler); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to start consuming")
			return
		}

		<-cctx.Done()
		zlog.Logger.Info().Msg("confirmation-mail worker stopped by context")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}
