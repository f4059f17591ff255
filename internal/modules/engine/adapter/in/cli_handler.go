package in

import (
	"context"

	"vscan/internal/modules/engine/dto"
	enginein "vscan/internal/modules/engine/port/in"
	mediadto "vscan/internal/modules/media/dto"
)

type CLIHandler struct {
	usecase enginein.Usecase
}

func NewCLIHandler(usecase enginein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, decoder string, formats []string) (dto.StartOutput, error) {
	return h.usecase.Start(ctx, dto.StartInput{Decoder: decoder, Formats: formats})
}

func (h CLIHandler) Stop(ctx context.Context) error {
	return h.usecase.Stop(ctx)
}

func (h CLIHandler) Inspect(ctx context.Context) (mediadto.InspectOutput, error) {
	return h.usecase.Inspect(ctx)
}

func (h CLIHandler) Toggle(ctx context.Context) bool {
	on := !h.usecase.Status(ctx).Scanning
	h.usecase.SetScanning(on)
	return on
}

func (h CLIHandler) SetScanning(on bool) {
	h.usecase.SetScanning(on)
}

func (h CLIHandler) Status(ctx context.Context) dto.Status {
	return h.usecase.Status(ctx)
}

// Events delivers engine events on a channel until ctx is done. Events are
// dropped while the channel is full.
func (h CLIHandler) Events(ctx context.Context, buffer int) <-chan dto.Event {
	ch := make(chan dto.Event, buffer)
	cancel := h.usecase.Subscribe(func(ev dto.Event) {
		select {
		case ch <- ev:
		default:
		}
	})
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch
}

func (h CLIHandler) Follow(ctx context.Context) error {
	return h.usecase.Follow(ctx)
}

func (h CLIHandler) Close(ctx context.Context) error {
	return h.usecase.Close(ctx)
}
