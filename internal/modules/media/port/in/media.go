package in

import (
	"context"

	"vscan/internal/modules/media/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StreamOutput, error)
	Inspect(ctx context.Context) (dto.InspectOutput, error)
	Stop(ctx context.Context) error
	Status(ctx context.Context) dto.StatusOutput
	Close(ctx context.Context) error
}
