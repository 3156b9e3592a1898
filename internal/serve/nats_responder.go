package serve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gftdcojp/echo-memory/internal/collective"
	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/dispatch"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// RunNATSResponder subscribes to NATS request-reply subjects exposing the
// collective memory API. Subject pattern: {prefix}.echo.add, {prefix}.search,
// and so on; every reply is JSON. The registry may be nil, in which case the
// signal subject is not served.
func RunNATSResponder(ctx context.Context, nc *nats.Conn, cfg config.APIConfig, mem *collective.Memory, registry *dispatch.Registry, logger *zap.Logger) error {
	prefix := cfg.NATSResponder.SubjectPrefix
	if prefix == "" {
		prefix = "ecm"
	}

	r := &responder{mem: mem, registry: registry, logger: logger}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
	}

	handlers := map[string]nats.MsgHandler{
		prefix + ".echo.add":      r.handleAdd,
		prefix + ".echo.get":      r.handleGet,
		prefix + ".echo.retrieve": r.handleRetrieve,
		prefix + ".echo.delete":   r.handleDelete,
		prefix + ".search":        r.handleSearch,
		prefix + ".crystallize":   r.handleCrystallize,
		prefix + ".health":        r.handleHealth,
		prefix + ".snapshot":      r.handleSnapshot,
	}
	if registry != nil {
		handlers[prefix+".signal"] = r.handleSignal
	}

	subs := make([]*nats.Subscription, 0, len(handlers))
	for subject, fn := range handlers {
		sub, err := nc.Subscribe(subject, fn)
		if err != nil {
			for _, s := range subs {
				s.Unsubscribe()
			}
			return fmt.Errorf("subscribing to %s: %w", subject, err)
		}
		subs = append(subs, sub)
	}

	logger.Info("NATS responder started", zap.String("prefix", prefix))

	<-ctx.Done()
	for _, s := range subs {
		s.Unsubscribe()
	}
	return nil
}

type responder struct {
	mem      *collective.Memory
	registry *dispatch.Registry
	limiter  *rate.Limiter
	logger   *zap.Logger
}

func (r *responder) handleAdd(msg *nats.Msg) {
	if r.limiter != nil && !r.limiter.Allow() {
		r.respondError(msg, codeRateLimited, "add rate exceeded")
		return
	}

	var req addRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respondError(msg, codeInvalidInput, "malformed request body")
		return
	}

	echoType, err := types.ParseEchoType(req.Type)
	if err != nil {
		r.respondError(msg, codeInvalidInput, err.Error())
		return
	}

	echo, err := r.mem.AddEcho(collective.AddEchoParams{
		Content:  req.Content,
		Author:   req.Author,
		Type:     echoType,
		Weight:   req.Weight,
		Metadata: req.Metadata,
	})
	if err != nil {
		r.respondFromError(msg, err)
		return
	}
	r.respond(msg, echo)
}

func (r *responder) handleGet(msg *nats.Msg) {
	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respondError(msg, codeInvalidInput, "malformed request body")
		return
	}
	echo, err := r.mem.GetEcho(req.ID)
	if err != nil {
		r.respondFromError(msg, err)
		return
	}
	r.respond(msg, echo)
}

func (r *responder) handleRetrieve(msg *nats.Msg) {
	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respondError(msg, codeInvalidInput, "malformed request body")
		return
	}
	echo, err := r.mem.Retrieve(req.ID)
	if err != nil {
		r.respondFromError(msg, err)
		return
	}
	r.respond(msg, echo)
}

func (r *responder) handleDelete(msg *nats.Msg) {
	var req idRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respondError(msg, codeInvalidInput, "malformed request body")
		return
	}
	r.mem.DeleteEcho(req.ID)
	r.respond(msg, deleteResponse{Deleted: true})
}

func (r *responder) handleSearch(msg *nats.Msg) {
	var req searchRequest
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			r.respondError(msg, codeInvalidInput, "malformed request body")
			return
		}
	}
	f, err := filterFromRequest(req)
	if err != nil {
		r.respondError(msg, codeInvalidInput, err.Error())
		return
	}
	echoes := r.mem.SearchEchoes(f)
	r.respond(msg, searchResponse{Echoes: echoes, Total: len(echoes)})
}

func (r *responder) handleCrystallize(msg *nats.Msg) {
	req := crystallizeRequest{K: 10}
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			r.respondError(msg, codeInvalidInput, "malformed request body")
			return
		}
	}
	if req.K < 0 {
		r.respondError(msg, codeInvalidInput, "k must be >= 0")
		return
	}

	var echoes []*types.Echo
	if req.WisdomOnly {
		echoes = r.mem.CrystallizeWisdom(req.K)
	} else {
		echoes = r.mem.Crystallize(req.K)
	}
	r.respond(msg, searchResponse{Echoes: echoes, Total: len(echoes)})
}

func (r *responder) handleSignal(msg *nats.Msg) {
	var req signalRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		r.respondError(msg, codeInvalidInput, "malformed request body")
		return
	}

	resp, err := r.registry.Dispatch(context.Background(), &dispatch.Signal{
		Source:    req.Source,
		Intent:    req.Intent,
		Context:   req.Context,
		Content:   req.Content,
		Author:    req.Author,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, dispatch.ErrNoHandler) {
			r.respondError(msg, codeInvalidInput, err.Error())
			return
		}
		r.respondFromError(msg, err)
		return
	}
	r.respond(msg, signalResponse{
		Text:       resp.Text,
		Confidence: resp.Confidence,
		Metadata:   resp.Metadata,
	})
}

func (r *responder) handleHealth(msg *nats.Msg) {
	r.respond(msg, r.mem.GetHealth())
}

func (r *responder) handleSnapshot(msg *nats.Msg) {
	snap, err := r.mem.TriggerSnapshot(context.Background())
	if err != nil {
		r.logger.Warn("manual snapshot completed with sink errors", zap.Error(err))
	}
	r.respond(msg, snap)
}

func (r *responder) respond(msg *nats.Msg, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		r.respondError(msg, codeInternal, "encoding response")
		return
	}
	msg.Respond(data)
}

func (r *responder) respondFromError(msg *nats.Msg, err error) {
	code := errCode(err)
	if code == codeInternal {
		r.logger.Error("request failed", zap.String("subject", msg.Subject), zap.Error(err))
	}
	r.respondError(msg, code, err.Error())
}

func (r *responder) respondError(msg *nats.Msg, code, text string) {
	data, _ := json.Marshal(errorResponse{Code: code, Error: text})
	msg.Respond(data)
}
