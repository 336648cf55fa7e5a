package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
)

// Stage is the progress of a single session request.
type Stage int

const (
	StageReceived Stage = iota
	StageValidating
	StagePersisting
	StageAuthenticating
	StageTokenIssuance
	StageSessionPersisted
	StageResponded
	StageFailed
)

var stageNames = [...]string{
	"received",
	"validating",
	"persisting",
	"authenticating",
	"token_issuance",
	"session_persisted",
	"responded",
	"failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError is returned by the service for every failed request. It records
// where the request stopped and wraps the user-safe cause.
type StageError struct {
	Operation string
	Stage     Stage
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// FailedStage returns the stage at which err's request stopped, if known.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return 0, false
}

type request struct {
	op      string
	stage   Stage
	started time.Time
	log     logging.Logger
	rec     Recorder
}

func (s *SessionService) begin(op string) *request {
	return &request{
		op:      op,
		stage:   StageReceived,
		started: time.Now(),
		log:     s.logger.With("operation", op),
		rec:     s.metrics,
	}
}

func (r *request) advance(ctx context.Context, next Stage) {
	r.log.Debug(ctx, "stage", "from", r.stage.String(), "to", next.String())
	r.stage = next
}

// fail moves the request to StageFailed. err must already be user-safe.
func (r *request) fail(ctx context.Context, err error) error {
	at := r.stage
	r.stage = StageFailed
	reason := failureReason(err)
	r.rec.SessionFailed(r.op, reason)
	r.log.Info(ctx, "request failed", "stage", at.String(), "reason", reason, "elapsed", time.Since(r.started))
	return &StageError{Operation: r.op, Stage: at, Err: err}
}

func (r *request) done(ctx context.Context, issued bool) {
	r.advance(ctx, StageResponded)
	if issued {
		r.rec.SessionIssued(r.op)
	}
	r.log.Debug(ctx, "request completed", "elapsed", time.Since(r.started))
}

func failureReason(err error) string {
	var report *validation.Report
	switch {
	case errors.As(err, &report):
		return "validation"
	case errors.Is(err, common.ErrAuthenticationFailed):
		return "authentication"
	case errors.Is(err, common.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, common.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, common.ErrNotFound):
		return "not_found"
	case errors.Is(err, common.ErrSigningUnavailable):
		return "signing_unavailable"
	case errors.Is(err, common.ErrSessionStoreUnavailable):
		return "session_store_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "internal"
	}
}
