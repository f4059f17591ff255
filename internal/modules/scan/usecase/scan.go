package usecase

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"vscan/internal/modules/scan/dto"
	scanin "vscan/internal/modules/scan/port/in"
	scanout "vscan/internal/modules/scan/port/out"
	"vscan/internal/modules/scan/service"
	apperrors "vscan/internal/platform/errors"
	"vscan/internal/platform/video"
)

// FrameSources builds the capture side of a session for an element.
type FrameSources func(element *video.Element) scanout.FrameSource

type Deps struct {
	Logger    hclog.Logger
	Sources   FrameSources
	Scheduler scanout.FrameScheduler
	History   scanout.HistoryStore
	Observer  scanout.Observer
}

type Interactor struct {
	deps Deps
}

func NewInteractor(deps Deps) scanin.Usecase {
	return &Interactor{deps: deps}
}

func (i *Interactor) Open(ctx context.Context, input dto.SessionInput) (scanin.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if i.deps.Sources == nil {
		return nil, fmt.Errorf("%w: no frame source configured", apperrors.ErrInvalidInput)
	}
	session, err := service.Open(service.Deps{
		Logger:    i.deps.Logger,
		Options:   input.Options,
		Source:    i.deps.Sources(input.Element),
		Decoder:   input.Decoder,
		Scheduler: i.deps.Scheduler,
		History:   i.deps.History,
		Observer:  i.deps.Observer,
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (i *Interactor) History(ctx context.Context, limit int) ([]dto.HistoryItem, error) {
	if i.deps.History == nil {
		return []dto.HistoryItem{}, nil
	}
	entries, err := i.deps.History.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryItem{
			SessionID: e.SessionID,
			Signature: e.Signature,
			Format:    e.Format.String(),
			Text:      e.Text,
			SeenAt:    e.SeenAt,
		})
	}
	return out, nil
}
