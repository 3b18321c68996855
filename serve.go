package codanative

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Serve reads a stream of JSON CallRequests from r, dispatches each to m
// and writes one CallResponse per request to w. It returns nil at EOF.
// A request that fails to decode, a failing call and an impact that cannot
// be encoded are all reported in that request's response; only malformed
// JSON and write failures end the loop.
func Serve(r io.Reader, w io.Writer, m *Manager) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)

	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("codanative: failed to decode request: %w", err)
		}

		resp := dispatch(raw, m)
		if err := enc.Encode(&resp); err != nil {
			return fmt.Errorf("codanative: failed to encode response: %w", err)
		}
	}
}

func dispatch(raw json.RawMessage, m *Manager) CallResponse {
	var req CallRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		m.log.Debug("bad call request", zap.Error(err))
		return CallResponse{Error: fmt.Sprintf("invalid request: %v", err)}
	}

	impact, err := m.Call(req.Bind, req.Args...)
	if err != nil {
		m.log.Debug("call failed", zap.String("bind", req.Bind), zap.Error(err))
		return CallResponse{Error: err.Error()}
	}
	if impact != nil {
		if _, err := json.Marshal(impact); err != nil {
			m.log.Debug("unencodable impact", zap.String("bind", req.Bind), zap.Error(err))
			return CallResponse{Error: fmt.Sprintf("%s returned an unencodable impact: %v", req.Bind, err)}
		}
	}
	return CallResponse{Impact: impact}
}
