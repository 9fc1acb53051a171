package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/engine"
	"github.com/sitewright/previewd/internal/infrastructure/monitoring"
	"github.com/sitewright/previewd/internal/intent"
	"github.com/sitewright/previewd/internal/protocol"
	"github.com/sitewright/previewd/internal/render"
	"github.com/sitewright/previewd/internal/types"
)

const defaultIntentTimeout = 30 * time.Second

// ErrClosed is returned by operations on a torn-down orchestrator
var ErrClosed = errors.New("orchestrator is closed")

// Conn delivers envelopes to the preview client
type Conn interface {
	Send(env protocol.Envelope) error
}

// Callbacks let the embedding application observe the session
type Callbacks struct {
	// OnLog receives preview-side log events
	OnLog func(level, event string, data map[string]interface{})
	// OnError receives protocol errors, inbound and outbound
	OnError func(code, message string)
}

// Config configures an orchestrator
type Config struct {
	// Origin is the exact peer origin inbound frames must carry.
	// Frames from any other origin are dropped without a log line.
	Origin string
	// IntentTimeout bounds each intent execution
	IntentTimeout time.Duration
	// Handler replaces the default intent handler when set
	Handler intent.Handler
	// EdgeInvoker enables real edge calls in the default handler
	EdgeInvoker *intent.EdgeInvoker
	// Renderer produces navigation commit payloads; required
	Renderer *render.Renderer
	Logger   *zap.Logger
	Metrics  *monitoring.Metrics
	Callbacks
}

// Orchestrator owns one preview session
type Orchestrator struct {
	bundle    *types.SiteBundle
	selection engine.Selection
	conn      Conn
	cfg       Config
	bridge    *intent.Bridge
	renderer  *render.Renderer
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu    sync.Mutex
	state types.ClientState

	// pending maps intent request ids to their cancel funcs so Close
	// can abort in-flight executions.
	pending sync.Map
	wg      sync.WaitGroup
	closed  atomic.Bool
}

// New creates an orchestrator for one bundle and one preview connection
func New(bundle *types.SiteBundle, conn Conn, cfg Config) (*Orchestrator, error) {
	if bundle == nil {
		return nil, fmt.Errorf("bundle is required")
	}
	if conn == nil {
		return nil, fmt.Errorf("conn is required")
	}
	if cfg.Origin == "" {
		return nil, fmt.Errorf("peer origin is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.IntentTimeout <= 0 {
		cfg.IntentTimeout = defaultIntentTimeout
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.New(render.Config{}, cfg.Logger)
	}

	home, ok := bundle.Manifest.HomeRoute()
	if !ok {
		return nil, fmt.Errorf("bundle %q has no routes", bundle.Site.ID)
	}
	if _, ok := bundle.Pages[home.PageID]; !ok {
		return nil, fmt.Errorf("home route %q references unknown page %q", home.Path, home.PageID)
	}

	sel := engine.Select(bundle)
	if cfg.Metrics != nil {
		cfg.Metrics.RecordEngineSelection(string(sel.Engine))
	}

	bridgeOpts := []intent.Option{intent.WithLogger(cfg.Logger)}
	if cfg.Handler != nil {
		bridgeOpts = append(bridgeOpts, intent.WithHandler(cfg.Handler))
	}
	if cfg.EdgeInvoker != nil {
		bridgeOpts = append(bridgeOpts, intent.WithEdgeInvoker(cfg.EdgeInvoker))
	}

	return &Orchestrator{
		bundle:    bundle,
		selection: sel,
		conn:      conn,
		cfg:       cfg,
		bridge:    intent.NewBridge(bundle.Intents, bundle.Entitlements, bridgeOpts...),
		renderer:  cfg.Renderer,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		state: types.ClientState{
			SiteID:      bundle.Site.ID,
			BuildID:     bundle.Build.ID,
			Engine:      sel.Engine,
			Status:      types.StatusLoading,
			CurrentPage: home.PageID,
			UpdatedAt:   time.Now(),
		},
	}, nil
}

// Engine returns the engine decision made for this session
func (o *Orchestrator) Engine() engine.Selection {
	return o.selection
}

// State returns a snapshot of the session state
func (o *Orchestrator) State() types.ClientState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Initialize moves the session to initializing and sends HOST_INIT.
// Called once after the preview transport is established.
func (o *Orchestrator) Initialize() error {
	if o.closed.Load() {
		return ErrClosed
	}

	o.setStatus(types.StatusInitializing, "")

	o.mu.Lock()
	entry := o.state.CurrentPage
	o.mu.Unlock()

	return o.send(protocol.TypeHostInit, protocol.HostInit{
		Engine:        o.selection.Engine,
		EntryPageID:   entry,
		Manifest:      o.bundle.Manifest,
		Entitlements:  o.bundle.Entitlements,
		ClientIntents: o.bundle.Intents.Definitions,
	})
}

// HandleMessage dispatches one inbound frame. Frames from the wrong
// origin or outside the UTP namespace are dropped silently; recognized
// types mutate session state, unknown UTP types are logged and ignored.
func (o *Orchestrator) HandleMessage(origin string, data []byte) {
	if o.closed.Load() {
		return
	}
	if origin != o.cfg.Origin {
		return
	}

	env, err := protocol.Decode(data)
	if err != nil {
		return
	}

	if o.metrics != nil {
		o.metrics.RecordMessage("inbound", env.Name())
	}

	switch env.Type {
	case protocol.TypePreviewReady:
		o.handlePreviewReady(env)
	case protocol.TypeNavRequest:
		o.handleNavRequest(env)
	case protocol.TypeIntentExecute:
		o.handleIntentExecute(env)
	case protocol.TypeLogEvent:
		o.handleLogEvent(env)
	case protocol.TypeError, protocol.TypeProtocolError:
		o.handleInboundError(env)
	default:
		o.logger.Warn("unrecognized message type", zap.String("type", env.Type))
	}
}

// NavigateTo drives the same resolution path as an inbound NAV_REQUEST
func (o *Orchestrator) NavigateTo(path string) error {
	if o.closed.Load() {
		return ErrClosed
	}
	return o.navigate(path)
}

// OpenOverlay signals the preview to open an overlay, fire and forget
func (o *Orchestrator) OpenOverlay(overlayID string, data map[string]interface{}) error {
	if o.closed.Load() {
		return ErrClosed
	}
	return o.send(protocol.TypeOverlayOpen, protocol.Overlay{OverlayID: overlayID, Data: data})
}

// CloseOverlay signals the preview to close an overlay
func (o *Orchestrator) CloseOverlay(overlayID string) error {
	if o.closed.Load() {
		return ErrClosed
	}
	return o.send(protocol.TypeOverlayClose, protocol.Overlay{OverlayID: overlayID})
}

// PatchState syncs client state into the preview, fire and forget
func (o *Orchestrator) PatchState(ops []protocol.PatchOp) error {
	if o.closed.Load() {
		return ErrClosed
	}
	for _, op := range ops {
		switch op.Op {
		case "set", "merge", "delete":
		default:
			return fmt.Errorf("invalid patch op %q", op.Op)
		}
	}
	return o.send(protocol.TypeStatePatch, protocol.StatePatch{Ops: ops})
}

// Close tears the session down: in-flight intent executions are
// canceled and every later call or inbound frame becomes a no-op.
func (o *Orchestrator) Close() {
	if !o.closed.CompareAndSwap(false, true) {
		return
	}

	o.pending.Range(func(key, value interface{}) bool {
		value.(context.CancelFunc)()
		o.pending.Delete(key)
		return true
	})
	o.wg.Wait()
}

func (o *Orchestrator) handlePreviewReady(env protocol.Envelope) {
	var ready protocol.PreviewReady
	if err := protocol.DecodePayload(env, &ready); err != nil {
		o.protocolError(protocol.CodeProtocolError, err.Error(), nil)
		return
	}

	o.setStatus(types.StatusReady, "")
	o.logger.Info("preview ready",
		zap.String("engine", string(o.selection.Engine)),
		zap.Any("capabilities", ready.Capabilities),
	)

	o.mu.Lock()
	current := o.state.CurrentPage
	o.mu.Unlock()

	route, ok := o.routeForPage(current)
	if !ok {
		o.protocolError(protocol.CodePageNotFound, fmt.Sprintf("no route for page %q", current), nil)
		return
	}
	o.commit(route)
}

func (o *Orchestrator) handleNavRequest(env protocol.Envelope) {
	var req protocol.NavRequest
	if err := protocol.DecodePayload(env, &req); err != nil {
		o.protocolError(protocol.CodeProtocolError, err.Error(), nil)
		return
	}
	if err := o.navigate(req.To); err != nil {
		o.logger.Debug("navigation request failed", zap.String("to", req.To), zap.Error(err))
	}
}

func (o *Orchestrator) navigate(path string) error {
	route, ok := o.bundle.Manifest.Resolve(path)
	if !ok {
		if o.metrics != nil {
			o.metrics.NavFailures.Inc()
		}
		o.protocolError(protocol.CodeNavNotFound, fmt.Sprintf("no route for path %q", path), map[string]interface{}{"to": path})
		return fmt.Errorf("no route for path %q", path)
	}
	return o.commit(route)
}

func (o *Orchestrator) commit(route types.Route) error {
	page, ok := o.bundle.Pages[route.PageID]
	if !ok {
		if o.metrics != nil {
			o.metrics.NavFailures.Inc()
		}
		o.protocolError(protocol.CodePageNotFound, fmt.Sprintf("route %q references unknown page %q", route.Path, route.PageID), nil)
		return fmt.Errorf("unknown page %q", route.PageID)
	}

	rendered, err := o.renderer.Page(route.PageID, page, o.selection.Engine)
	if err != nil {
		o.protocolError(protocol.CodePageNotFound, err.Error(), nil)
		return err
	}

	o.mu.Lock()
	o.state.CurrentPage = route.PageID
	o.state.UpdatedAt = time.Now()
	o.mu.Unlock()

	if o.metrics != nil {
		o.metrics.NavCommits.Inc()
	}

	return o.send(protocol.TypeNavCommit, protocol.NavCommit{
		To:     route.Path,
		PageID: route.PageID,
		Render: protocol.RenderPayload{
			HTML:      rendered.HTML,
			CSS:       rendered.CSS,
			JS:        rendered.JS,
			Artifacts: rendered.Artifacts,
		},
	})
}

func (o *Orchestrator) handleIntentExecute(env protocol.Envelope) {
	var req protocol.IntentExecute
	if err := protocol.DecodePayload(env, &req); err != nil {
		o.protocolError(protocol.CodeProtocolError, err.Error(), nil)
		return
	}

	requestID := uuid.New().String()

	// Ack before execution so the preview can show progress.
	if err := o.send(protocol.TypeIntentAck, protocol.IntentAck{
		IntentID:  req.IntentID,
		RequestID: requestID,
	}); err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.IntentTimeout)
	o.pending.Store(requestID, cancel)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		defer o.pending.Delete(requestID)

		start := time.Now()
		outcome := o.bridge.Execute(ctx, intent.Request{
			IntentID:  req.IntentID,
			Params:    req.Params,
			BindingID: req.BindingID,
		})
		if o.metrics != nil {
			o.metrics.RecordIntent(req.IntentID, outcome.OK, time.Since(start))
		}

		if o.closed.Load() {
			return
		}
		o.send(protocol.TypeIntentResult, protocol.IntentResult{
			IntentID:      req.IntentID,
			RequestID:     requestID,
			OK:            outcome.OK,
			ClientActions: outcome.ClientActions,
			Result:        outcome.Result,
			Error:         outcome.Error,
		})
	}()
}

func (o *Orchestrator) handleLogEvent(env protocol.Envelope) {
	var event protocol.LogEvent
	if err := protocol.DecodePayload(env, &event); err != nil {
		o.logger.Warn("malformed log event", zap.Error(err))
		return
	}

	o.logger.Debug("preview log",
		zap.String("level", event.Level),
		zap.String("event", event.Event),
	)
	if o.cfg.OnLog != nil {
		o.cfg.OnLog(event.Level, event.Event, event.Data)
	}
}

func (o *Orchestrator) handleInboundError(env protocol.Envelope) {
	var payload protocol.ErrorPayload
	if err := protocol.DecodePayload(env, &payload); err != nil {
		payload = protocol.ErrorPayload{Code: protocol.CodeProtocolError, Message: "unreadable error payload"}
	}

	o.setStatus(types.StatusError, payload.Message)
	o.logger.Warn("preview reported error",
		zap.String("code", payload.Code),
		zap.String("message", payload.Message),
	)
	if o.cfg.OnError != nil {
		o.cfg.OnError(payload.Code, payload.Message)
	}
}

// protocolError reports a failure to both sides: the preview gets an
// ERROR message, the host callback gets the code, and the session moves
// to error while remaining usable for subsequent messages.
func (o *Orchestrator) protocolError(code, message string, data map[string]interface{}) {
	o.setStatus(types.StatusError, message)
	if o.metrics != nil {
		o.metrics.RecordProtocolError(code)
	}

	o.send(protocol.TypeError, protocol.ErrorPayload{
		Code:    code,
		Message: message,
		Data:    data,
	})
	if o.cfg.OnError != nil {
		o.cfg.OnError(code, message)
	}
}

func (o *Orchestrator) routeForPage(pageID string) (types.Route, bool) {
	for _, r := range o.bundle.Manifest.Routes {
		if r.PageID == pageID {
			return r, true
		}
	}
	return types.Route{}, false
}

func (o *Orchestrator) setStatus(status types.Status, errMsg string) {
	o.mu.Lock()
	o.state.Status = status
	o.state.Error = errMsg
	o.state.UpdatedAt = time.Now()
	o.mu.Unlock()
}

func (o *Orchestrator) send(msgType string, payload interface{}) error {
	if o.closed.Load() {
		return ErrClosed
	}

	env, err := protocol.New(msgType, payload)
	if err != nil {
		o.logger.Error("failed to build envelope", zap.String("type", msgType), zap.Error(err))
		return err
	}
	if err := o.conn.Send(env); err != nil {
		o.logger.Warn("failed to deliver message", zap.String("type", msgType), zap.Error(err))
		return err
	}
	if o.metrics != nil {
		o.metrics.RecordMessage("outbound", env.Name())
	}
	return nil
}
