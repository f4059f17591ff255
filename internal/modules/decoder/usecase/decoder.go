package usecase

import (
	"context"

	"vscan/internal/modules/decoder/dto"
	decoderin "vscan/internal/modules/decoder/port/in"
	"vscan/internal/modules/decoder/service"
)

type Interactor struct {
	svc *service.DecoderService
}

func NewInteractor(svc *service.DecoderService) decoderin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.DecoderInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

func (i *Interactor) Open(ctx context.Context, input dto.OpenInput) (decoderin.Backend, error) {
	return i.svc.Open(ctx, input)
}
