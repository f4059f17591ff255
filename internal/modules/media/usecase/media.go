package usecase

import (
	"context"

	"vscan/internal/modules/media/domain"
	"vscan/internal/modules/media/dto"
	mediain "vscan/internal/modules/media/port/in"
	"vscan/internal/modules/media/service"
)

type Interactor struct {
	ctrl *service.Controller
}

func NewInteractor(ctrl *service.Controller) mediain.Usecase {
	return &Interactor{ctrl: ctrl}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.StreamOutput, error) {
	action, reused, err := i.ctrl.Start(ctx, input.Init)
	if err != nil {
		return dto.StreamOutput{}, err
	}
	out := dto.StreamOutput{Phase: action.Phase().String(), Reused: reused}
	if action.Stream == nil {
		return out, nil
	}
	out.StreamID = action.Stream.ID()
	for _, t := range action.Stream.Tracks() {
		out.Tracks = append(out.Tracks, dto.TrackOutput{
			ID:       t.ID(),
			Kind:     string(t.Kind()),
			Label:    t.Label(),
			Settings: t.Settings(),
		})
	}
	return out, nil
}

func (i *Interactor) Inspect(ctx context.Context) (dto.InspectOutput, error) {
	inspection, err := i.ctrl.Inspect(ctx)
	if err != nil {
		return dto.InspectOutput{}, err
	}
	if inspection == nil {
		return dto.InspectOutput{Stopped: true, Inspection: domain.Inspection{}}, nil
	}
	return dto.InspectOutput{Inspection: *inspection}, nil
}

func (i *Interactor) Stop(ctx context.Context) error {
	return i.ctrl.Stop(ctx)
}

func (i *Interactor) Status(context.Context) dto.StatusOutput {
	action := i.ctrl.Current()
	out := dto.StatusOutput{
		Phase:  action.Phase().String(),
		Attach: string(i.ctrl.Attachment().Mode),
	}
	if action.Live() {
		out.StreamID = action.Stream.ID()
	}
	return out
}

func (i *Interactor) Close(ctx context.Context) error {
	return i.ctrl.Close(ctx)
}
