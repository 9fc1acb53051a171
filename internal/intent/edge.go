package intent

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/sitewright/previewd/internal/infrastructure/resilience"
	"github.com/sitewright/previewd/internal/types"
)

const maxEdgeResponseBytes = 1 << 20

// EdgeConfig configures the edge invoker
type EdgeConfig struct {
	BaseURL    string
	Timeout    time.Duration
	RetryMax   int
	AuthHeader string
}

// EdgeInvoker performs real edge-function calls for intents declared
// with edge or both handler kinds. Each function gets its own circuit
// breaker so one broken deployment does not take the rest down.
type EdgeInvoker struct {
	cfg    EdgeConfig
	client *retryablehttp.Client
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// NewEdgeInvoker creates an invoker against an edge base URL
func NewEdgeInvoker(cfg EdgeConfig, logger *zap.Logger) (*EdgeInvoker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("edge base URL is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid edge base URL: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = 2
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	client.HTTPClient.Timeout = cfg.Timeout
	client.Logger = nil

	return &EdgeInvoker{
		cfg:      cfg,
		client:   client,
		logger:   logger,
		breakers: make(map[string]*resilience.Breaker),
	}, nil
}

// Invoke calls one edge function and maps the response onto an intent
// outcome. Transport failures and non-2xx responses come back as
// execution errors, not as transport errors leaking to the preview.
func (e *EdgeInvoker) Invoke(ctx context.Context, fn string, req Request) (*types.IntentOutcome, error) {
	breaker := e.breakerFor(fn)

	var outcome *types.IntentOutcome
	err := breaker.Do(func() error {
		var callErr error
		outcome, callErr = e.call(ctx, fn, req)
		return callErr
	})
	if err != nil {
		if err == resilience.ErrOpen {
			e.logger.Warn("edge function circuit open", zap.String("edge_function", fn))
			return nil, fmt.Errorf("edge function %q unavailable: %w", fn, err)
		}
		return nil, err
	}
	return outcome, nil
}

func (e *EdgeInvoker) call(ctx context.Context, fn string, req Request) (*types.IntentOutcome, error) {
	body, err := sonic.Marshal(map[string]interface{}{
		"intent_id":  req.IntentID,
		"binding_id": req.BindingID,
		"params":     req.Params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal edge request: %w", err)
	}

	endpoint, err := url.JoinPath(e.cfg.BaseURL, fn)
	if err != nil {
		return nil, fmt.Errorf("failed to build edge URL: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build edge request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if e.cfg.AuthHeader != "" {
		httpReq.Header.Set("Authorization", e.cfg.AuthHeader)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("edge function %q call failed: %w", fn, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEdgeResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read edge response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("edge function %q returned status %d", fn, resp.StatusCode)
	}

	var payload struct {
		ClientActions []types.ClientAction   `json:"client_actions"`
		Result        map[string]interface{} `json:"result"`
	}
	if len(data) > 0 {
		if err := sonic.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("edge function %q returned invalid JSON: %w", fn, err)
		}
	}

	outcome := &types.IntentOutcome{
		OK:            true,
		ClientActions: payload.ClientActions,
		Result:        payload.Result,
	}
	if outcome.ClientActions == nil {
		outcome.ClientActions = []types.ClientAction{types.ToastAction("success", "Request received.")}
	}
	if outcome.Result == nil {
		outcome.Result = map[string]interface{}{}
	}
	return outcome, nil
}

func (e *EdgeInvoker) breakerFor(fn string) *resilience.Breaker {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.breakers[fn]; ok {
		return b
	}
	b := resilience.New(fn, resilience.Settings{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			e.logger.Warn("edge breaker state change",
				zap.String("edge_function", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	e.breakers[fn] = b
	return b
}
