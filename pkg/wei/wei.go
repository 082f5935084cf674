// Package wei provides a decimal-string-safe wide integer type for
// native-token and gas quantities. No float ever represents a balance.
package wei

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// Wei wraps a big.Int so every value/gas quantity that crosses a package
// boundary serialises as a base-10 digit string, never a float.
type Wei struct {
	v *big.Int
}

// Zero returns the additive identity.
func Zero() Wei { return Wei{v: big.NewInt(0)} }

// FromInt64 builds a Wei from a native int64 (test/config convenience).
func FromInt64(n int64) Wei { return Wei{v: big.NewInt(n)} }

// FromString parses a base-10 digit string. Empty string parses as zero.
func FromString(s string) (Wei, error) {
	if s == "" {
		return Zero(), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Wei{}, fmt.Errorf("wei: invalid decimal string %q", s)
	}
	return Wei{v: v}, nil
}

// MustFromString panics on parse failure; for compile-time-known literals.
func MustFromString(s string) Wei {
	w, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return w
}

// FromBig wraps an existing big.Int, copying it so the Wei stays immutable.
func FromBig(b *big.Int) Wei {
	if b == nil {
		return Zero()
	}
	return Wei{v: new(big.Int).Set(b)}
}

func (w Wei) big() *big.Int {
	if w.v == nil {
		return big.NewInt(0)
	}
	return w.v
}

// Big returns a copy of the underlying big.Int.
func (w Wei) Big() *big.Int { return new(big.Int).Set(w.big()) }

// String renders the canonical base-10 digit string.
func (w Wei) String() string { return w.big().String() }

// IsZero reports whether the value is exactly zero.
func (w Wei) IsZero() bool { return w.big().Sign() == 0 }

// Sign returns -1, 0 or 1.
func (w Wei) Sign() int { return w.big().Sign() }

// Add returns w+o.
func (w Wei) Add(o Wei) Wei { return Wei{v: new(big.Int).Add(w.big(), o.big())} }

// Sub returns w-o.
func (w Wei) Sub(o Wei) Wei { return Wei{v: new(big.Int).Sub(w.big(), o.big())} }

// Neg returns -w.
func (w Wei) Neg() Wei { return Wei{v: new(big.Int).Neg(w.big())} }

// Cmp compares w to o: -1, 0, 1.
func (w Wei) Cmp(o Wei) int { return w.big().Cmp(o.big()) }

// LessThan reports w < o.
func (w Wei) LessThan(o Wei) bool { return w.Cmp(o) < 0 }

// GreaterThan reports w > o.
func (w Wei) GreaterThan(o Wei) bool { return w.Cmp(o) > 0 }

// MulPercent returns floor(w * pct / 100) using integer division — the
// deterministic rounding the treasury allocation rules depend on.
func (w Wei) MulPercent(pct int64) Wei {
	num := new(big.Int).Mul(w.big(), big.NewInt(pct))
	num.Quo(num, big.NewInt(100))
	return Wei{v: num}
}

// MulDiv returns floor(w * num / den), used for the 15% gas buffer and
// similar integer-ratio scalings. den must be non-zero.
func (w Wei) MulDiv(num, den int64) Wei {
	r := new(big.Int).Mul(w.big(), big.NewInt(num))
	r.Quo(r, big.NewInt(den))
	return Wei{v: r}
}

// MarshalJSON renders the decimal-digit string form.
func (w Wei) MarshalJSON() ([]byte, error) {
	return []byte(`"` + w.String() + `"`), nil
}

// UnmarshalJSON parses a decimal-digit JSON string.
func (w *Wei) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// Value implements driver.Valuer for direct pgx/database-sql storage as text.
func (w Wei) Value() (driver.Value, error) {
	return w.String(), nil
}

// Scan implements sql.Scanner.
func (w *Wei) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*w = Zero()
		return nil
	case string:
		parsed, err := FromString(v)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	case []byte:
		parsed, err := FromString(string(v))
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	default:
		return fmt.Errorf("wei: unsupported scan source %T", src)
	}
}
