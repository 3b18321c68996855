package codanative

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValue_String(t *testing.T) {
	big, err := ParseInt128("-170141183460469231731687303715884105728")
	if err != nil {
		t.Fatalf("ParseInt128: %v", err)
	}

	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"character", Char('a'), "a"},
		{"character multibyte", Char('λ'), "λ"},
		{"long small", Long(Int128From64(-5)), "-5"},
		{"long min", Long(big), "-170141183460469231731687303715884105728"},
		{"integer", Integer(-5), "-5"},
		{"integer max", Integer(math.MaxInt32), "2147483647"},
		{"double", Double(1.5), "1.5"},
		{"double whole", Double(2), "2"},
		{"byte", Byte(255), "255"},
		{"boolean false", Boolean(false), "false"},
		{"boolean true", Boolean(true), "true"},
		{"string", String("hello"), "hello"},
		{"empty string", String(""), ""},
		{"invalid", Value{}, "<invalid>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_Accessors(t *testing.T) {
	v := Integer(7)
	if v.Kind() != KindInteger {
		t.Fatalf("Kind() = %v, want integer", v.Kind())
	}
	if i, ok := v.AsInteger(); !ok || i != 7 {
		t.Errorf("AsInteger() = %d, %v", i, ok)
	}
	// no implicit coercion between variants
	if _, ok := v.AsLong(); ok {
		t.Error("AsLong() should fail on an integer")
	}
	if _, ok := v.AsDouble(); ok {
		t.Error("AsDouble() should fail on an integer")
	}
	if _, ok := v.AsString(); ok {
		t.Error("AsString() should fail on an integer")
	}

	if r, ok := Char('z').AsChar(); !ok || r != 'z' {
		t.Errorf("AsChar() = %q, %v", r, ok)
	}
	if b, ok := Boolean(true).AsBoolean(); !ok || !b {
		t.Errorf("AsBoolean() = %v, %v", b, ok)
	}
	if b, ok := Byte(9).AsByte(); !ok || b != 9 {
		t.Errorf("AsByte() = %d, %v", b, ok)
	}
	if (Value{}).IsValid() {
		t.Error("zero Value should be invalid")
	}
}

func TestValue_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"same integer", Integer(1), Integer(1), true},
		{"different integer", Integer(1), Integer(2), false},
		{"integer vs long", Integer(1), Long(Int128From64(1)), false},
		{"integer vs byte", Integer(1), Byte(1), false},
		{"same string", String("x"), String("x"), true},
		{"nan", Double(math.NaN()), Double(math.NaN()), false},
		{"zero doubles", Double(0), Double(math.Copysign(0, -1)), true},
		{"same long", Long(Int128{Hi: 1, Lo: 2}), Long(Int128{Hi: 1, Lo: 2}), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_JSON(t *testing.T) {
	huge, _ := ParseInt128("99999999999999999999999")
	values := []Value{
		Char('q'),
		Long(huge),
		Integer(-3),
		Double(0.25),
		Double(math.Inf(1)),
		Byte(200),
		Boolean(true),
		String("a \"quoted\" string"),
	}

	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			data, err := json.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got Value
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal(%s): %v", data, err)
			}
			if !got.Equal(v) {
				t.Errorf("round trip of %s = %v, want %v", data, got, v)
			}
		})
	}

	data, _ := json.Marshal(Long(huge))
	if string(data) != `{"kind":"long","value":"99999999999999999999999"}` {
		t.Errorf("long encoding = %s", data)
	}

	if _, err := json.Marshal(Value{}); err == nil {
		t.Error("marshalling an invalid value should fail")
	}

	var v Value
	if err := json.Unmarshal([]byte(`{"kind":"complex","value":1}`), &v); err == nil {
		t.Error("unknown kind should fail")
	}
	if err := json.Unmarshal([]byte(`{"kind":"character","value":"ab"}`), &v); err == nil {
		t.Error("two characters should fail")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in      string
		want    Value
		wantErr bool
	}{
		{in: "i32:2", want: Integer(2)},
		{in: "2", want: Integer(2)},
		{in: "-2147483649", want: Long(Int128From64(-2147483649))},
		{in: "i128:5", want: Long(Int128From64(5))},
		{in: "char:x", want: Char('x')},
		{in: "f64:1.5", want: Double(1.5)},
		{in: "1.5", want: Double(1.5)},
		{in: "u8:7", want: Byte(7)},
		{in: "bool:false", want: Boolean(false)},
		{in: "true", want: Boolean(true)},
		{in: "str:42", want: String("42")},
		{in: "hello", want: String("hello")},
		{in: "url:http://x", want: String("url:http://x")},
		{in: "u8:300", wantErr: true},
		{in: "i32:x", wantErr: true},
		{in: "char:xy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValue(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseValue(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseValue(%q): %v", tt.in, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseValue(%q) = %v (%v), want %v (%v)", tt.in, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}
