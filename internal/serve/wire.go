package serve

import (
	"errors"

	"github.com/gftdcojp/echo-memory/internal/types"
)

// Error codes carried over the wire so clients can map failures back to
// typed errors without parsing messages.
const (
	codeInvalidInput = "invalid_input"
	codeNotFound     = "not_found"
	codeRateLimited  = "rate_limited"
	codeInternal     = "internal"
)

type addRequest struct {
	Content  string            `json:"content"`
	Author   string            `json:"author"`
	Type     string            `json:"type"`
	Weight   *float64          `json:"weight,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type idRequest struct {
	ID string `json:"id"`
}

type searchRequest struct {
	Text   string `json:"text,omitempty"`
	Author string `json:"author,omitempty"`
	Type   string `json:"type,omitempty"`
	Layer  string `json:"layer,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type signalRequest struct {
	Source  string          `json:"source"`
	Intent  string          `json:"intent"`
	Context map[string]bool `json:"context,omitempty"`
	Content string          `json:"content"`
	Author  string          `json:"author"`
}

type signalResponse struct {
	Text       string            `json:"text"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

type crystallizeRequest struct {
	K          int  `json:"k"`
	WisdomOnly bool `json:"wisdom_only,omitempty"`
}

type searchResponse struct {
	Echoes []*types.Echo `json:"echoes"`
	Total  int           `json:"total"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func errCode(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return codeInvalidInput
	case errors.Is(err, types.ErrNotFound):
		return codeNotFound
	default:
		return codeInternal
	}
}

// filterFromRequest converts the wire search shape into a store filter.
func filterFromRequest(req searchRequest) (types.Filter, error) {
	f := types.Filter{
		Text:   req.Text,
		Author: req.Author,
		Limit:  req.Limit,
	}
	if req.Type != "" {
		t, err := types.ParseEchoType(req.Type)
		if err != nil {
			return types.Filter{}, err
		}
		f.Type = &t
	}
	if req.Layer != "" {
		l, err := types.ParseLayer(req.Layer)
		if err != nil {
			return types.Filter{}, err
		}
		f.Layer = &l
	}
	return f, nil
}
