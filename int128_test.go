package codanative

import (
	"math"
	"math/big"
	"testing"
)

func TestInt128_RoundTrip(t *testing.T) {
	tests := []string{
		"0",
		"-1",
		"42",
		"-9223372036854775808",
		"9223372036854775808",
		"-9223372036854775809",
		"18446744073709551616",
		"170141183460469231731687303715884105727",
		"-170141183460469231731687303715884105728",
	}

	for _, s := range tests {
		t.Run(s, func(t *testing.T) {
			i, err := ParseInt128(s)
			if err != nil {
				t.Fatalf("ParseInt128: %v", err)
			}
			if got := i.String(); got != s {
				t.Errorf("String() = %s, want %s", got, s)
			}
			want, _ := new(big.Int).SetString(s, 10)
			if i.Big().Cmp(want) != 0 {
				t.Errorf("Big() = %s, want %s", i.Big(), want)
			}
		})
	}
}

func TestInt128_Overflow(t *testing.T) {
	for _, s := range []string{
		"170141183460469231731687303715884105728",
		"-170141183460469231731687303715884105729",
		"not a number",
	} {
		if _, err := ParseInt128(s); err == nil {
			t.Errorf("ParseInt128(%q) should fail", s)
		}
	}
}

func TestInt128From64(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MinInt64, math.MaxInt64} {
		i := Int128From64(v)
		if !i.IsInt64() {
			t.Errorf("Int128From64(%d).IsInt64() = false", v)
		}
		if i.Big().Int64() != v {
			t.Errorf("Int128From64(%d) = %s", v, i)
		}
	}
}

func TestInt128_Cmp(t *testing.T) {
	neg := Int128From64(-1)
	pos := Int128From64(1)
	large, _ := ParseInt128("18446744073709551616")

	if neg.Cmp(pos) != -1 || pos.Cmp(neg) != 1 || pos.Cmp(pos) != 0 {
		t.Error("Cmp ordering wrong for small values")
	}
	if large.Cmp(pos) != 1 {
		t.Error("2^64 should be greater than 1")
	}
}
