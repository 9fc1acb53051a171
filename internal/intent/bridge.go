package intent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/entitlement"
	"github.com/sitewright/previewd/internal/types"
)

// Request is one intent execution ask
type Request struct {
	IntentID  string
	Params    map[string]interface{}
	BindingID string
}

// Handler executes an intent on behalf of the caller
type Handler func(ctx context.Context, req Request, def types.IntentDefinition) (*types.IntentOutcome, error)

// Bridge resolves intent requests against a bundle's catalog and runs
// them through the configured handler chain.
type Bridge struct {
	catalog types.IntentCatalog
	ent     types.Entitlements
	custom  Handler
	edge    *EdgeInvoker
	logger  *zap.Logger
}

// Option configures a Bridge
type Option func(*Bridge)

// WithHandler installs a caller-supplied handler that replaces the
// default one for every intent.
func WithHandler(h Handler) Option {
	return func(b *Bridge) { b.custom = h }
}

// WithEdgeInvoker enables real edge-function execution for edge and
// both handler kinds. Without it the default handler returns the
// canned success toast.
func WithEdgeInvoker(inv *EdgeInvoker) Option {
	return func(b *Bridge) { b.edge = inv }
}

// WithLogger sets the bridge logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// NewBridge creates a bridge for one bundle's catalog and entitlements
func NewBridge(catalog types.IntentCatalog, ent types.Entitlements, opts ...Option) *Bridge {
	b := &Bridge{
		catalog: catalog,
		ent:     ent,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute resolves, authorizes and runs one intent. The returned
// outcome is never nil: lookup failures, entitlement denials, handler
// errors and panics all produce a failed outcome with an error toast.
func (b *Bridge) Execute(ctx context.Context, req Request) *types.IntentOutcome {
	def, ok := b.catalog.Definitions[req.IntentID]
	if !ok {
		return types.FailedOutcome(types.IntentErrNotFound, fmt.Sprintf("unknown intent %q", req.IntentID))
	}

	if decision := entitlement.Check(req.IntentID, b.ent); !decision.Allowed {
		return types.FailedOutcome(types.IntentErrEntitlementDenied, decision.Reason)
	}

	outcome := b.run(ctx, req, def)
	if outcome.Result == nil {
		outcome.Result = map[string]interface{}{}
	}
	if outcome.ClientActions == nil {
		outcome.ClientActions = []types.ClientAction{}
	}
	return outcome
}

func (b *Bridge) run(ctx context.Context, req Request, def types.IntentDefinition) (outcome *types.IntentOutcome) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("intent handler panicked",
				zap.String("intent_id", req.IntentID),
				zap.Any("panic", r),
			)
			outcome = types.FailedOutcome(types.IntentErrExecution, "Intent execution failed.")
		}
	}()

	handler := b.custom
	if handler == nil {
		handler = b.defaultHandler
	}

	result, err := handler(ctx, req, def)
	if err != nil {
		b.logger.Warn("intent execution failed",
			zap.String("intent_id", req.IntentID),
			zap.Error(err),
		)
		return types.FailedOutcome(types.IntentErrExecution, "Intent execution failed.")
	}
	if result == nil {
		return &types.IntentOutcome{OK: true}
	}
	return result
}

// defaultHandler runs an intent from its declared handler kind alone.
func (b *Bridge) defaultHandler(ctx context.Context, req Request, def types.IntentDefinition) (*types.IntentOutcome, error) {
	h := def.Handler

	if (h.Kind == types.HandlerClient || h.Kind == types.HandlerBoth) && h.ClientAction != "" {
		return &types.IntentOutcome{
			OK:            true,
			ClientActions: []types.ClientAction{{Kind: h.ClientAction}},
			Result:        map[string]interface{}{},
		}, nil
	}

	if (h.Kind == types.HandlerEdge || h.Kind == types.HandlerBoth) && h.EdgeFunction != "" {
		if b.edge != nil {
			return b.edge.Invoke(ctx, h.EdgeFunction, req)
		}
		// No invoker configured: keep the original stub behavior.
		return &types.IntentOutcome{
			OK:            true,
			ClientActions: []types.ClientAction{types.ToastAction("success", "Request received.")},
			Result:        map[string]interface{}{},
		}, nil
	}

	return &types.IntentOutcome{
		OK:            true,
		ClientActions: []types.ClientAction{},
		Result:        map[string]interface{}{},
	}, nil
}
