package codanative

// CallRequest asks the host to invoke a bind.
type CallRequest struct {
	// Bind is the name of the bind to call.
	Bind string  `json:"bind"`
	// Args are passed to the handler in order.
	Args []Value `json:"args"`
}

// CallResponse is the outcome of a CallRequest.
type CallResponse struct {
	// Impact is absent when the handler completed normally.
	Impact *ControlFlowImpact `json:"impact,omitempty"`
	// Error is set if the call failed.
	Error  string             `json:"error,omitempty"`
}
