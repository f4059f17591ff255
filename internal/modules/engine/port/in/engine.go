package in

import (
	"context"

	"vscan/internal/modules/engine/dto"
	mediadto "vscan/internal/modules/media/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	Stop(ctx context.Context) error
	Inspect(ctx context.Context) (mediadto.InspectOutput, error)
	SetScanning(on bool)
	Status(ctx context.Context) dto.Status
	// Subscribe registers fn for every engine event until cancel is called.
	// fn runs on the goroutine that raised the event and must not block.
	Subscribe(fn func(dto.Event)) (cancel func())
	// Follow keeps the options in sync with the configured source until ctx
	// is done.
	Follow(ctx context.Context) error
	Close(ctx context.Context) error
}
