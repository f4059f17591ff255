package in

import (
	"context"

	"vscan/internal/modules/media/dto"
	mediain "vscan/internal/modules/media/port/in"
)

type CLIHandler struct {
	usecase mediain.Usecase
}

func NewCLIHandler(usecase mediain.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context) (dto.StreamOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{})
}

func (h CLIHandler) Inspect(ctx context.Context) (dto.InspectOutput, error) {
	return h.usecase.Inspect(ctx)
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Status(ctx context.Context) dto.StatusOutput {
	return h.usecase.Status(ctx)
}
