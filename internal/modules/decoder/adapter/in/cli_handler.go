package in

import (
	"context"

	"vscan/internal/modules/decoder/dto"
	decoderin "vscan/internal/modules/decoder/port/in"
)

type CLIHandler struct {
	usecase decoderin.Usecase
}

func NewCLIHandler(usecase decoderin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.DecoderInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

func (h CLIHandler) Open(ctx context.Context, input dto.OpenInput) (decoderin.Backend, error) {
	return h.usecase.Open(ctx, input)
}
