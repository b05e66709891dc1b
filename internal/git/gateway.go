package git

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	log "github.com/chmouel/lazychangelist/internal/log"
	"github.com/chmouel/lazychangelist/internal/models"
)

// OperationError is the failure handed to gateway callbacks. Its message is
// meant for the user.
type OperationError struct {
	Op    string
	Paths []string
	Err   error
}

func (e *OperationError) Error() string {
	if len(e.Paths) == 0 {
		return e.Op + " failed: " + e.Err.Error()
	}
	return e.Op + " " + strings.Join(e.Paths, ", ") + " failed: " + e.Err.Error()
}

func (e *OperationError) Unwrap() error { return e.Err }

// Gateway adapts a blocking Backend to the asynchronous callback contract
// used by the changelist coordinator.
//
// With a poster, each call runs on its own goroutine and the completion is
// handed to the poster, which must run it on the owner's loop. Without one,
// calls run and complete inline.
type Gateway struct {
	backend Backend
	post    func(func())
	timeout time.Duration
	ctx     context.Context
	logf    func(string, ...any)
}

// GatewayOption customises a Gateway.
type GatewayOption func(*Gateway)

// WithPoster delivers completions through post.
func WithPoster(post func(func())) GatewayOption {
	return func(g *Gateway) {
		g.post = post
	}
}

// WithTimeout bounds each backend call; zero means no limit.
func WithTimeout(d time.Duration) GatewayOption {
	return func(g *Gateway) {
		g.timeout = d
	}
}

// WithContext sets the parent context of every backend call.
func WithContext(ctx context.Context) GatewayOption {
	return func(g *Gateway) {
		g.ctx = ctx
	}
}

// WithGatewayLogger overrides the debug logger.
func WithGatewayLogger(logf func(string, ...any)) GatewayOption {
	return func(g *Gateway) {
		g.logf = logf
	}
}

// NewGateway wraps backend.
func NewGateway(backend Backend, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		backend: backend,
		ctx:     context.Background(),
		logf:    log.Prefixed("gateway: "),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// StageFiles stages paths in one backend call.
func (g *Gateway) StageFiles(paths []string, done func(error)) {
	g.mutate("stage", paths, g.backend.Stage, done)
}

// UnstageFiles unstages paths in one backend call.
func (g *Gateway) UnstageFiles(paths []string, done func(error)) {
	g.mutate("unstage", paths, g.backend.Unstage, done)
}

// FetchStatus reads the current status snapshot.
func (g *Gateway) FetchStatus(done func(models.Snapshot, error)) {
	id := uuid.NewString()
	g.debugf("[%s] status", id)
	g.dispatch(func(ctx context.Context) func() {
		snapshot, err := g.backend.Status(ctx)
		if err != nil {
			g.debugf("[%s] status failed: %v", id, err)
			opErr := &OperationError{Op: "status", Err: err}
			return func() { done(models.Snapshot{}, opErr) }
		}
		g.debugf("[%s] status ok: %d entries", id, snapshot.Len())
		return func() { done(snapshot, nil) }
	})
}

func (g *Gateway) mutate(op string, paths []string, call func(context.Context, []string) error, done func(error)) {
	id := uuid.NewString()
	paths = append([]string(nil), paths...)
	g.debugf("[%s] %s %d path(s)", id, op, len(paths))
	g.dispatch(func(ctx context.Context) func() {
		if err := call(ctx, paths); err != nil {
			g.debugf("[%s] %s failed: %v", id, op, err)
			opErr := &OperationError{Op: op, Paths: paths, Err: err}
			return func() { done(opErr) }
		}
		g.debugf("[%s] %s ok", id, op)
		return func() { done(nil) }
	})
}

// dispatch runs work and delivers the completion it returns.
func (g *Gateway) dispatch(work func(ctx context.Context) func()) {
	run := func() func() {
		ctx := g.ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return work(ctx)
	}

	if g.post == nil {
		run()()
		return
	}
	go func() {
		g.post(run())
	}()
}

func (g *Gateway) debugf(format string, args ...any) {
	if g.logf == nil {
		return
	}
	g.logf(format, args...)
}
