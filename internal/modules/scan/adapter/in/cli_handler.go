package in

import (
	"context"

	"vscan/internal/modules/scan/dto"
	scanin "vscan/internal/modules/scan/port/in"
)

type CLIHandler struct {
	usecase scanin.Usecase
}

func NewCLIHandler(usecase scanin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]dto.HistoryItem, error) {
	return h.usecase.History(ctx, limit)
}
