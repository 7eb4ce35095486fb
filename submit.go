package expenseform

import (
	"context"
	"errors"
	"fmt"

	"github.com/tbxark/expenseform/transport"
	"github.com/tbxark/expenseform/types"
)

func (s *Session) Status() types.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Failure returns the reason of the last failed submission while the session is failed.
func (s *Session) Failure() *SubmitError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failure
}

func (s *Session) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Acknowledge returns a finished submission to idle and clears its message.
func (s *Session) Acknowledge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == types.StatusSucceeded || s.status == types.StatusFailed {
		s.status = types.StatusIdle
		s.failure = nil
		s.message = ""
	}
}

// Submit validates the session and transmits it. Local validation failures never reach the
// transport. Transport failures keep everything the submitter entered; every transmitted
// attempt consumes the verification token.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.status == types.StatusSubmitting {
		s.mu.Unlock()
		return ErrSubmitInFlight
	}
	s.status = types.StatusValidating
	s.failure = nil
	s.message = ""
	if fail := s.validate(); fail != nil {
		s.setFailed(fail)
		s.mu.Unlock()
		s.logger.Debug("Submission blocked", "kind", fail.Kind)
		return fail
	}
	payload, err := s.buildPayload()
	if err != nil {
		fail := newSubmitError(KindInvalidPayload, msgInvalidPayload, err)
		s.setFailed(fail)
		s.mu.Unlock()
		return fail
	}
	endpoint, title := s.schema.Endpoint, s.schema.Title
	s.status = types.StatusSubmitting
	s.mu.Unlock()

	s.logger.Debug("Submitting form", "form_type", title, "endpoint", endpoint, "files", len(payload.Files))
	sendErr := s.transport.Send(ctx, endpoint, payload)

	s.mu.Lock()
	result := s.finish(sendErr, title)
	s.mu.Unlock()

	if result != nil && result.Local() {
		return result
	}
	s.recycleToken(context.WithoutCancel(ctx))
	if result != nil {
		return result
	}
	return nil
}

func (s *Session) validate() *SubmitError {
	if s.token == "" {
		return newSubmitError(KindMissingVerification, msgMissingVerification, nil)
	}
	if !s.identity.complete() {
		return newSubmitError(KindMissingIdentity, msgMissingIdentity, nil)
	}
	if !s.table.HasPricedRow() {
		return newSubmitError(KindNoPricedExpense, msgNoPricedExpense, nil)
	}
	return nil
}

func (s *Session) buildPayload() (*transport.Payload, error) {
	expenses, err := s.table.ExpensesJSON()
	if err != nil {
		return nil, err
	}
	return &transport.Payload{
		FirstName:         s.identity.FirstName,
		LastName:          s.identity.LastName,
		Email:             s.identity.Email,
		Comments:          s.identity.Comments,
		ExpensesJSON:      expenses,
		VerificationToken: s.token,
		Files:             transport.FilesFromAttachments(s.files.Files()),
	}, nil
}

// finish records the transport outcome. It runs with s.mu held. The token is kept when the
// payload never left the process.
func (s *Session) finish(sendErr error, title string) *SubmitError {
	if errors.Is(sendErr, transport.ErrEncode) {
		fail := newSubmitError(KindInvalidPayload, msgInvalidPayload, sendErr)
		s.setFailed(fail)
		s.logger.Info("Form submission not sent", "form_type", title, "err", sendErr)
		return fail
	}
	s.token = ""
	if sendErr == nil {
		s.status = types.StatusSucceeded
		s.failure = nil
		s.message = fmt.Sprintf("%s submitted successfully!", title)
		s.resetForm()
		s.logger.Info("Form submitted", "form_type", title)
		return nil
	}
	var fail *SubmitError
	var serverErr *transport.ServerError
	if errors.As(sendErr, &serverErr) {
		msg := serverErr.Message
		if msg == "" {
			msg = msgServerRejected
		}
		fail = newSubmitError(KindServerRejected, msg, sendErr)
	} else {
		fail = newSubmitError(KindNetwork, msgNetwork, sendErr)
	}
	s.setFailed(fail)
	s.logger.Info("Form submission failed", "form_type", title, "kind", fail.Kind, "err", sendErr)
	return fail
}

func (s *Session) setFailed(fail *SubmitError) {
	s.status = types.StatusFailed
	s.failure = fail
	s.message = fail.Message
}

// recycleToken invalidates the consumed challenge and asks for a new one.
func (s *Session) recycleToken(ctx context.Context) {
	if err := s.verifier.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate verification token", "err", err)
	}
	if err := s.RequestVerification(ctx); err != nil {
		s.logger.Warn("Failed to refresh verification token", "err", err)
	}
}
