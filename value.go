package codanative

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind identifies which variant of a Value is active.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindCharacter
	KindLong
	KindInteger
	KindDouble
	KindByte
	KindBoolean
	KindString
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindCharacter: "character",
	KindLong:      "long",
	KindInteger:   "integer",
	KindDouble:    "double",
	KindByte:      "byte",
	KindBoolean:   "boolean",
	KindString:    "string",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func kindFromName(s string) (Kind, bool) {
	for k, n := range kindNames {
		if n == s && Kind(k) != KindInvalid {
			return Kind(k), true
		}
	}
	return KindInvalid, false
}

// Value is a Coda value crossing the host/native boundary. Exactly one
// variant is active; values never convert between kinds implicitly.
// The zero Value has KindInvalid.
type Value struct {
	kind Kind
	bits uint64 // character, integer, double, byte, boolean, low word of long
	hi   int64  // high word of long
	str  string
}

// Char returns a Character value.
func Char(r rune) Value { return Value{kind: KindCharacter, bits: uint64(uint32(r))} }

// Long returns a Long (128-bit) value.
func Long(i Int128) Value { return Value{kind: KindLong, bits: i.Lo, hi: i.Hi} }

// Integer returns an Integer (32-bit) value.
func Integer(i int32) Value { return Value{kind: KindInteger, bits: uint64(uint32(i))} }

// Double returns a Double value.
func Double(f float64) Value { return Value{kind: KindDouble, bits: math.Float64bits(f)} }

// Byte returns a Byte value.
func Byte(b uint8) Value { return Value{kind: KindByte, bits: uint64(b)} }

// Boolean returns a Boolean value.
func Boolean(b bool) Value {
	v := Value{kind: KindBoolean}
	if b {
		v.bits = 1
	}
	return v
}

// String returns a String value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Kind returns the active variant.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a variant.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) AsChar() (rune, bool) { return rune(uint32(v.bits)), v.kind == KindCharacter }

func (v Value) AsLong() (Int128, bool) { return Int128{Hi: v.hi, Lo: v.bits}, v.kind == KindLong }

func (v Value) AsInteger() (int32, bool) { return int32(uint32(v.bits)), v.kind == KindInteger }

func (v Value) AsDouble() (float64, bool) { return math.Float64frombits(v.bits), v.kind == KindDouble }

func (v Value) AsByte() (uint8, bool) { return uint8(v.bits), v.kind == KindByte }

func (v Value) AsBoolean() (bool, bool) { return v.bits != 0, v.kind == KindBoolean }

func (v Value) AsString() (string, bool) { return v.str, v.kind == KindString }

// String renders the natural text form of the held variant.
func (v Value) String() string {
	switch v.kind {
	case KindCharacter:
		r, _ := v.AsChar()
		return string(r)
	case KindLong:
		l, _ := v.AsLong()
		return l.String()
	case KindInteger:
		i, _ := v.AsInteger()
		return strconv.FormatInt(int64(i), 10)
	case KindDouble:
		f, _ := v.AsDouble()
		return strconv.FormatFloat(f, 'g', -1, 64)
	case KindByte:
		return strconv.FormatUint(v.bits&0xff, 10)
	case KindBoolean:
		return strconv.FormatBool(v.bits != 0)
	case KindString:
		return v.str
	}
	return "<invalid>"
}

// Equal reports whether v and o hold the same variant and payload.
// Doubles compare numerically, so NaN is never equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindDouble:
		a, _ := v.AsDouble()
		b, _ := o.AsDouble()
		return a == b
	case KindString:
		return v.str == o.str
	case KindLong:
		return v.bits == o.bits && v.hi == o.hi
	}
	return v.bits == o.bits
}

type valueJSON struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON encodes v as {"kind":..., "value":...}. Longs are encoded as
// decimal strings.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindCharacter, KindString:
		payload = v.String()
	case KindLong:
		payload = v.String()
	case KindInteger:
		payload, _ = v.AsInteger()
	case KindDouble:
		f, _ := v.AsDouble()
		if math.IsInf(f, 0) || math.IsNaN(f) {
			payload = v.String()
		} else {
			payload = f
		}
	case KindByte:
		payload, _ = v.AsByte()
	case KindBoolean:
		payload, _ = v.AsBoolean()
	default:
		return nil, fmt.Errorf("codanative: cannot marshal %s value", v.kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(valueJSON{Kind: v.kind.String(), Value: raw})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw valueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, ok := kindFromName(raw.Kind)
	if !ok {
		return fmt.Errorf("codanative: unknown value kind %q", raw.Kind)
	}
	switch kind {
	case KindCharacter:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return err
		}
		r, err := singleRune(s)
		if err != nil {
			return err
		}
		*v = Char(r)
	case KindLong:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return err
		}
		l, err := ParseInt128(s)
		if err != nil {
			return err
		}
		*v = Long(l)
	case KindInteger:
		var i int32
		if err := json.Unmarshal(raw.Value, &i); err != nil {
			return err
		}
		*v = Integer(i)
	case KindDouble:
		var f float64
		if err := json.Unmarshal(raw.Value, &f); err != nil {
			var s string
			if json.Unmarshal(raw.Value, &s) != nil {
				return err
			}
			if f, err = strconv.ParseFloat(s, 64); err != nil {
				return err
			}
		}
		*v = Double(f)
	case KindByte:
		var b uint8
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return err
		}
		*v = Byte(b)
	case KindBoolean:
		var b bool
		if err := json.Unmarshal(raw.Value, &b); err != nil {
			return err
		}
		*v = Boolean(b)
	case KindString:
		var s string
		if err := json.Unmarshal(raw.Value, &s); err != nil {
			return err
		}
		*v = String(s)
	}
	return nil
}

func singleRune(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || size != len(s) || r == utf8.RuneError && size == 1 {
		return 0, fmt.Errorf("codanative: %q is not a single character", s)
	}
	return r, nil
}

// ParseValue parses the literal form used on the command line. An
// explicit kind prefix (i32:, i128:, char:, f64:, u8:, bool:, str:) selects
// the variant; a bare literal is inferred as boolean, integer, long,
// double, then string.
func ParseValue(s string) (Value, error) {
	if prefix, lit, ok := strings.Cut(s, ":"); ok {
		switch prefix {
		case "i32", "int", "integer":
			i, err := strconv.ParseInt(lit, 10, 32)
			if err != nil {
				return Value{}, fmt.Errorf("codanative: parse integer: %w", err)
			}
			return Integer(int32(i)), nil
		case "i128", "long":
			l, err := ParseInt128(lit)
			if err != nil {
				return Value{}, err
			}
			return Long(l), nil
		case "char", "character":
			r, err := singleRune(lit)
			if err != nil {
				return Value{}, err
			}
			return Char(r), nil
		case "f64", "double":
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return Value{}, fmt.Errorf("codanative: parse double: %w", err)
			}
			return Double(f), nil
		case "u8", "byte":
			b, err := strconv.ParseUint(lit, 10, 8)
			if err != nil {
				return Value{}, fmt.Errorf("codanative: parse byte: %w", err)
			}
			return Byte(uint8(b)), nil
		case "bool", "boolean":
			b, err := strconv.ParseBool(lit)
			if err != nil {
				return Value{}, fmt.Errorf("codanative: parse boolean: %w", err)
			}
			return Boolean(b), nil
		case "str", "string":
			return String(lit), nil
		}
	}

	if s == "true" || s == "false" {
		return Boolean(s == "true"), nil
	}
	if i, err := strconv.ParseInt(s, 10, 32); err == nil {
		return Integer(int32(i)), nil
	}
	if l, err := ParseInt128(s); err == nil {
		return Long(l), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Double(f), nil
	}
	return String(s), nil
}
