package codanative

import (
	"fmt"
	"math/big"
)

// Int128 is a two's complement 128-bit signed integer.
type Int128 struct {
	Hi int64
	Lo uint64
}

var (
	minInt128 = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxInt128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	twoTo128  = new(big.Int).Lsh(big.NewInt(1), 128)
)

// Int128From64 sign-extends v.
func Int128From64(v int64) Int128 {
	return Int128{Hi: v >> 63, Lo: uint64(v)}
}

// Int128FromBig converts b, failing if it does not fit in 128 bits.
func Int128FromBig(b *big.Int) (Int128, error) {
	if b.Cmp(minInt128) < 0 || b.Cmp(maxInt128) > 0 {
		return Int128{}, fmt.Errorf("codanative: %s overflows int128", b.String())
	}
	u := new(big.Int).Set(b)
	if u.Sign() < 0 {
		u.Add(u, twoTo128)
	}
	lo := new(big.Int).And(u, new(big.Int).SetUint64(^uint64(0))).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	return Int128{Hi: int64(hi), Lo: lo}, nil
}

// ParseInt128 parses a base 10 integer.
func ParseInt128(s string) (Int128, error) {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Int128{}, fmt.Errorf("codanative: invalid int128 %q", s)
	}
	return Int128FromBig(b)
}

// Big returns i as a big.Int.
func (i Int128) Big() *big.Int {
	b := new(big.Int).SetUint64(uint64(i.Hi))
	b.Lsh(b, 64)
	b.Or(b, new(big.Int).SetUint64(i.Lo))
	if i.Hi < 0 {
		b.Sub(b, twoTo128)
	}
	return b
}

// IsInt64 reports whether i fits in an int64.
func (i Int128) IsInt64() bool {
	return i.Hi == int64(i.Lo)>>63
}

// Cmp returns -1, 0 or +1.
func (i Int128) Cmp(o Int128) int {
	switch {
	case i.Hi < o.Hi:
		return -1
	case i.Hi > o.Hi:
		return 1
	case i.Lo < o.Lo:
		return -1
	case i.Lo > o.Lo:
		return 1
	}
	return 0
}

func (i Int128) String() string {
	if i.IsInt64() {
		return fmt.Sprint(int64(i.Lo))
	}
	return i.Big().String()
}
