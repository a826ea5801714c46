package transaction

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrInvalidStatusTransition is returned when a status change is not allowed.
var ErrInvalidStatusTransition = errors.New("invalid status transition")

var transitions = map[Status][]Status{
	StatusCompleted: {StatusPaid, StatusUnpaid, StatusCancelled},
	StatusUnpaid:    {StatusPaid, StatusCancelled},
	StatusPaid:      {StatusCancelled},
}

// CanTransition reports whether a transaction may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StatusService performs the only mutation a transaction allows after
// creation: its settlement status.
type StatusService struct {
	repo Repository
}

// NewStatusService creates a StatusService backed by repo.
func NewStatusService(repo Repository) *StatusService {
	return &StatusService{repo: repo}
}

// SetStatus moves transaction id to status to. Setting the current status
// again is a no-op.
func (s *StatusService) SetStatus(ctx context.Context, id string, to Status) (*Transaction, error) {
	to, err := ParseStatus(string(to))
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status == to {
		return tx, nil
	}
	if !CanTransition(tx.Status, to) {
		return nil, errors.Wrapf(ErrInvalidStatusTransition, "%s -> %s", tx.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	tx.Status = to
	return tx, nil
}
