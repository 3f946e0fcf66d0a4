package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/navarrastar/application-relay/pkg/clients/smtprelay"
	"github.com/navarrastar/application-relay/pkg/config"
	"github.com/navarrastar/application-relay/pkg/models"
	"github.com/navarrastar/application-relay/pkg/utils"
	"github.com/navarrastar/application-relay/pkg/validation"
)

// SubmissionService defines the interface for handling application submissions
type SubmissionService interface {
	ProcessSubmission(ctx context.Context, sub models.Submission) (Receipt, error)
}

// Receipt describes a relayed application.
type Receipt struct {
	MessageID string
	Redirect  string
}

type submissionServiceImpl struct {
	relayClient smtprelay.Client
	validator   *validation.Validator
	relay       config.RelayConfig
	redirect    string
	logger      zerolog.Logger
	newID       func() string
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	relayClient smtprelay.Client,
	validator *validation.Validator,
	cfg *config.Config,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionServiceImpl{
		relayClient: relayClient,
		validator:   validator,
		relay:       cfg.Relay,
		redirect:    cfg.ThankYouPath,
		logger:      logger,
		newID:       uuid.NewString,
	}
}

// ProcessSubmission validates sub and relays it as one email. Every error
// returned is a *Failure.
func (s *submissionServiceImpl) ProcessSubmission(ctx context.Context, sub models.Submission) (Receipt, error) {
	log := s.loggerFor(ctx)

	if errs := s.validator.Validate(sub); len(errs) > 0 {
		log.Info().Int("errors", len(errs)).Msg("Rejected invalid submission")
		return Receipt{}, NewBadRequest(validation.Join(errs), nil)
	}

	if !s.relay.Complete() {
		log.Error().
			Strs("missing", s.relay.Missing()).
			Bool("sender_email_set", s.relay.SenderEmail != "").
			Bool("sender_password_set", s.relay.SenderPassword != "").
			Bool("receiver_email_set", s.relay.ReceiverEmail != "").
			Msg("Relay credentials are not configured")
		return Receipt{}, &Failure{Kind: KindServerMisconfigured, Message: MsgMisconfigured}
	}

	msg := smtprelay.Message{
		ID:      s.newID(),
		From:    s.relay.SenderEmail,
		To:      s.relay.ReceiverEmail,
		Subject: Subject,
	}
	log = log.With().
		Str("message_id", msg.ID).
		Str("applicant", utils.Fingerprint(sub[models.FieldEmail])).
		Logger()

	if err := s.send(ctx, sub, msg, log); err != nil {
		return Receipt{}, err
	}

	log.Info().Msg("Application relayed")
	return Receipt{MessageID: msg.ID, Redirect: s.redirect}, nil
}

// send composes and delivers the message. Panics raised while doing so are
// turned into internal errors.
func (s *submissionServiceImpl) send(ctx context.Context, sub models.Submission, msg smtprelay.Message, log zerolog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("Relaying application panicked")
			err = &Failure{Kind: KindInternalError, Message: MsgInternalError, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	msg.Body = ComposeBody(sub)

	sendErr := s.relayClient.Send(ctx, msg)
	switch {
	case sendErr == nil:
		return nil
	case errors.Is(sendErr, smtprelay.ErrAuthentication):
		log.Error().Err(sendErr).Bool("sender_password_set", true).Msg("SMTP relay rejected the sender credentials")
		return &Failure{Kind: KindSmtpAuthFailure, Message: MsgAuthFailure, Err: sendErr}
	default:
		log.Error().Err(sendErr).Msg("Sending application email failed")
		return &Failure{Kind: KindSmtpSendFailure, Message: MsgSendFailure, Err: sendErr}
	}
}

// loggerFor prefers the request-scoped logger installed by the middleware.
func (s *submissionServiceImpl) loggerFor(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return s.logger
}
