package in

import (
	"context"

	"vscan/internal/modules/scan/domain"
	"vscan/internal/modules/scan/dto"
)

// Session is a running scan loop.
type Session interface {
	ID() string
	State() domain.ScanState
	Results() []domain.Detection
	Err() error
	Close()
	Done() <-chan struct{}
	Wait() error
}

type Usecase interface {
	Open(ctx context.Context, input dto.SessionInput) (Session, error)
	History(ctx context.Context, limit int) ([]dto.HistoryItem, error)
}
