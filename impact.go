package codanative

import (
	"encoding/json"
	"fmt"
)

// ImpactKind is the control-flow effect a native call has on its caller.
type ImpactKind uint8

const (
	// ImpactNone is the kind of a nil impact: normal fall-through.
	ImpactNone ImpactKind = iota
	ImpactReturn
	ImpactBreak
	ImpactContinue
)

func (k ImpactKind) String() string {
	switch k {
	case ImpactNone:
		return "none"
	case ImpactReturn:
		return "return"
	case ImpactBreak:
		return "break"
	case ImpactContinue:
		return "continue"
	}
	return fmt.Sprintf("impact(%d)", uint8(k))
}

// ControlFlowImpact mirrors the source-level return, break and continue
// statements. Only Return carries a value. A handler that completes
// normally returns a nil *ControlFlowImpact instead.
type ControlFlowImpact struct {
	kind  ImpactKind
	value Value
}

// Return makes the caller return v.
func Return(v Value) *ControlFlowImpact {
	return &ControlFlowImpact{kind: ImpactReturn, value: v}
}

// Break makes the caller leave its innermost loop.
func Break() *ControlFlowImpact { return &ControlFlowImpact{kind: ImpactBreak} }

// Continue makes the caller start the next loop iteration.
func Continue() *ControlFlowImpact { return &ControlFlowImpact{kind: ImpactContinue} }

// Kind returns ImpactNone for a nil impact.
func (c *ControlFlowImpact) Kind() ImpactKind {
	if c == nil {
		return ImpactNone
	}
	return c.kind
}

// Value returns the returned value. ok is false unless c is a Return.
func (c *ControlFlowImpact) Value() (v Value, ok bool) {
	if c == nil || c.kind != ImpactReturn {
		return Value{}, false
	}
	return c.value, true
}

// Equal treats two nil impacts as equal.
func (c *ControlFlowImpact) Equal(o *ControlFlowImpact) bool {
	if c == nil || o == nil {
		return c == o
	}
	return c.kind == o.kind && c.value.Equal(o.value)
}

func (c *ControlFlowImpact) String() string {
	if c == nil {
		return "none"
	}
	if c.kind == ImpactReturn {
		return "return " + c.value.String()
	}
	return c.kind.String()
}

type impactJSON struct {
	Kind  string `json:"kind"`
	Value *Value `json:"value,omitempty"`
}

func (c *ControlFlowImpact) MarshalJSON() ([]byte, error) {
	out := impactJSON{Kind: c.kind.String()}
	if c.kind == ImpactReturn {
		v := c.value
		out.Value = &v
	}
	return json.Marshal(out)
}

func (c *ControlFlowImpact) UnmarshalJSON(data []byte) error {
	var in impactJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case "return":
		if in.Value == nil {
			return fmt.Errorf("codanative: return impact without value")
		}
		*c = ControlFlowImpact{kind: ImpactReturn, value: *in.Value}
	case "break":
		*c = ControlFlowImpact{kind: ImpactBreak}
	case "continue":
		*c = ControlFlowImpact{kind: ImpactContinue}
	default:
		return fmt.Errorf("codanative: unknown impact kind %q", in.Kind)
	}
	return nil
}
