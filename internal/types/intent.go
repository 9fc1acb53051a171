package types

// Intent error codes surfaced in failed intent results
const (
	IntentErrNotFound          = "INTENT_NOT_FOUND"
	IntentErrEntitlementDenied = "ENTITLEMENT_DENIED"
	IntentErrExecution         = "EXECUTION_ERROR"
)

// ClientAction is a UI instruction returned from intent execution and
// replayed by the preview client.
type ClientAction struct {
	Kind    string `json:"kind"`
	Variant string `json:"variant,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToastAction builds a toast client action
func ToastAction(variant, message string) ClientAction {
	return ClientAction{Kind: "toast", Variant: variant, Message: message}
}

// IntentError describes why an intent execution failed
type IntentError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IntentOutcome is the uniform result shape of every intent execution.
// Execution always produces an outcome, including on internal failures.
type IntentOutcome struct {
	OK            bool                   `json:"ok"`
	ClientActions []ClientAction         `json:"client_actions"`
	Result        map[string]interface{} `json:"result"`
	Error         *IntentError           `json:"error,omitempty"`
}

// FailedOutcome builds a failed outcome with an error toast
func FailedOutcome(code, message string) *IntentOutcome {
	return &IntentOutcome{
		OK:            false,
		ClientActions: []ClientAction{ToastAction("error", message)},
		Result:        map[string]interface{}{},
		Error:         &IntentError{Code: code, Message: message},
	}
}
