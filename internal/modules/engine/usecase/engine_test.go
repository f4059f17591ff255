package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"vscan/internal/modules/engine/dto"
	"vscan/internal/modules/engine/service"
	"vscan/internal/modules/engine/usecase"
	scandomain "vscan/internal/modules/scan/domain"
)

func TestSubscribersReceiveHookEvents(t *testing.T) {
	t.Parallel()
	engine := service.New(service.Deps{})
	uc := usecase.NewInteractor(engine, nil)

	var got []dto.Event
	cancel := uc.Subscribe(func(ev dto.Event) { got = append(got, ev) })

	opts := engine.Options().Scan
	opts.OnScanDetect([]scandomain.Detection{{Result: scandomain.ReadResult{Format: scandomain.FormatQRCode, Text: "A"}, New: true}})
	opts.OnScanError(errors.New("canvas lost"))
	cancel()
	opts.OnScanClose()

	if len(got) != 2 {
		t.Fatalf("events = %+v", got)
	}
	if got[0].Kind != dto.EventDetect || len(got[0].Items) != 1 || got[0].Items[0].Text != "A" {
		t.Fatalf("detect event = %+v", got[0])
	}
	if got[1].Kind != dto.EventScanError || got[1].Err != "canvas lost" {
		t.Fatalf("error event = %+v", got[1])
	}
}

func TestFollowWithoutSourceWaitsForContext(t *testing.T) {
	t.Parallel()
	uc := usecase.NewInteractor(service.New(service.Deps{}), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := uc.Follow(ctx); err != nil {
		t.Fatalf("follow: %v", err)
	}
}
