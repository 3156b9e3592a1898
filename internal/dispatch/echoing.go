package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/gftdcojp/echo-memory/internal/collective"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// EchoingHandler records remember/recall signals against the collective
// memory. It is the default strategy wired into the daemon.
type EchoingHandler struct {
	mem *collective.Memory
}

func NewEchoingHandler(mem *collective.Memory) *EchoingHandler {
	return &EchoingHandler{mem: mem}
}

func (h *EchoingHandler) Name() string { return "echoing" }

func (h *EchoingHandler) CanHandle(sig *Signal) float64 {
	switch sig.Intent {
	case "remember", "recall":
		return 0.9
	}
	if strings.TrimSpace(sig.Content) != "" {
		return 0.3
	}
	return 0
}

func (h *EchoingHandler) Handle(ctx context.Context, sig *Signal) (*Response, error) {
	switch sig.Intent {
	case "recall":
		echoes := h.mem.SearchEchoes(types.Filter{
			Text:  sig.Content,
			Limit: 5,
		})
		return &Response{
			Text:       fmt.Sprintf("recalled %d echoes", len(echoes)),
			Confidence: 0.9,
		}, nil
	default:
		weight := sig.Energy()
		echo, err := h.mem.AddEcho(collective.AddEchoParams{
			Content: sig.Content,
			Author:  sig.Author,
			Type:    echoType(sig),
			Weight:  &weight,
			Metadata: map[string]string{
				"source": sig.Source,
				"intent": sig.Intent,
			},
		})
		if err != nil {
			return nil, err
		}
		return &Response{
			Text:       fmt.Sprintf("remembered as %s", echo.ID),
			Confidence: 0.9,
			Metadata:   map[string]string{"echo_id": echo.ID},
		}, nil
	}
}

func echoType(sig *Signal) types.EchoType {
	if strings.HasSuffix(strings.TrimSpace(sig.Content), "?") {
		return types.TypeQuestion
	}
	return types.TypeInteraction
}
