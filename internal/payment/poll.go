package payment

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"eventdesk/internal/backend"
	"eventdesk/internal/metrics"
)

// Outcome classifies one status check, or how a poll run ended.
type Outcome string

const (
	Pending   Outcome = "pending"
	Success   Outcome = "success"
	Failed    Outcome = "failed"
	Invalid   Outcome = "invalid"
	Error     Outcome = "error"
	Exhausted Outcome = "exhausted"
)

// Phase is where the poll state machine is.
type Phase string

const (
	Polling    Phase = "polling"
	Escalating Phase = "escalating"
	// Confirming follows a successful escalation: the next check ends the run.
	Confirming Phase = "confirming"
	Terminal   Phase = "terminal"
)

const (
	DefaultInterval    = 3 * time.Second
	DefaultMaxAttempts = 12
)

// escalateAt lists the zero-based attempts after which a still-pending
// payment triggers immediate verification.
var escalateAt = map[int]bool{2: true, 5: true}

// State is a snapshot of a poll run.
type State struct {
	Phase     Phase                     `json:"phase"`
	Attempt   int                       `json:"attempt"`
	Outcome   Outcome                   `json:"outcome"`
	Candidate *backend.PaymentCandidate `json:"candidate,omitempty"`
}

// Classify maps a verify-payment response to an Outcome.
func Classify(st *backend.PaymentStatus, err error) (Outcome, *backend.PaymentCandidate) {
	if err != nil {
		return Error, nil
	}
	if st == nil || !st.Success || st.Candidate == nil {
		return Invalid, nil
	}
	switch st.Candidate.PaymentStatus {
	case "Paid":
		return Success, st.Candidate
	case "Failed":
		return Failed, st.Candidate
	default:
		return Pending, st.Candidate
	}
}

// AfterCheck applies the result of a status check.
func (s State) AfterCheck(o Outcome, cand *backend.PaymentCandidate, maxAttempts int) State {
	if cand != nil {
		s.Candidate = cand
	}
	s.Outcome = o
	switch {
	case o == Success || o == Failed:
		s.Phase = Terminal
		return s
	case s.Phase == Confirming:
		s.Phase = Terminal
		return s
	case o == Pending && escalateAt[s.Attempt] && s.orderKnown():
		s.Phase = Escalating
		return s
	}
	return s.advance(maxAttempts)
}

// AfterEscalation applies the result of an immediate verification request.
func (s State) AfterEscalation(found bool, maxAttempts int) State {
	if found {
		s.Phase = Confirming
		return s
	}
	return s.advance(maxAttempts)
}

func (s State) advance(maxAttempts int) State {
	s.Attempt++
	if s.Attempt >= maxAttempts {
		s.Phase = Terminal
		s.Outcome = Exhausted
		return s
	}
	s.Phase = Polling
	return s
}

func (s State) orderKnown() bool {
	return s.Candidate != nil && s.Candidate.OrderID != ""
}

// Checker is the slice of the backend a poll run needs.
type Checker interface {
	VerifyPayment(ctx context.Context, id string) (*backend.PaymentStatus, error)
	VerifyPaymentNow(ctx context.Context, orderID, paymentID string) (bool, error)
}

// Poller waits for a registration's payment to settle.
type Poller struct {
	API         Checker
	Interval    time.Duration
	MaxAttempts int
	// OnUpdate, if set, sees every intermediate state.
	OnUpdate func(State)
}

// Run checks immediately and then once per interval until the payment
// settles, the attempt budget runs out or ctx ends.
func (p *Poller) Run(ctx context.Context, id string) (State, error) {
	interval, limit := p.Interval, p.MaxAttempts
	if interval <= 0 {
		interval = DefaultInterval
	}
	if limit <= 0 {
		limit = DefaultMaxAttempts
	}
	logger := log.WithField("registration", id)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	st := State{Phase: Polling}
	for {
		o, cand := Classify(p.API.VerifyPayment(ctx, id))
		st = st.AfterCheck(o, cand, limit)
		if st.Phase == Escalating {
			found, err := p.API.VerifyPaymentNow(ctx, st.Candidate.OrderID, st.Candidate.PaymentID)
			if err != nil {
				logger.WithError(err).Warn("immediate payment verification failed")
			}
			logger.WithFields(log.Fields{"attempt": st.Attempt, "found": found}).Info("payment escalation")
			st = st.AfterEscalation(found, limit)
			if st.Phase == Confirming {
				o, cand := Classify(p.API.VerifyPayment(ctx, id))
				st = st.AfterCheck(o, cand, limit)
			}
		}
		p.update(st)
		if st.Phase == Terminal {
			metrics.PaymentPolls.WithLabelValues(string(st.Outcome)).Inc()
			logger.WithFields(log.Fields{"outcome": st.Outcome, "attempts": st.Attempt}).Info("payment poll finished")
			return st, nil
		}

		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) update(st State) {
	if p.OnUpdate != nil {
		p.OnUpdate(st)
	}
}
