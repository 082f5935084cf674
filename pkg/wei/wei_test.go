package wei

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromStringRoundTrip(t *testing.T) {
	w, err := FromString("123456789012345678901234567890")
	require.NoError(t, err)
	require.Equal(t, "123456789012345678901234567890", w.String())
}

func TestFromStringEmpty(t *testing.T) {
	w, err := FromString("")
	require.NoError(t, err)
	require.True(t, w.IsZero())
}

func TestFromStringInvalid(t *testing.T) {
	_, err := FromString("not-a-number")
	require.Error(t, err)
}

func TestArithmetic(t *testing.T) {
	a := FromInt64(100)
	b := FromInt64(40)
	require.Equal(t, "140", a.Add(b).String())
	require.Equal(t, "60", a.Sub(b).String())
	require.True(t, b.LessThan(a))
	require.True(t, a.GreaterThan(b))
}

func TestMulPercentAllocation(t *testing.T) {
	total := FromInt64(100)
	liq := total.MulPercent(40)
	launch := total.MulPercent(30)
	gas := total.MulPercent(30)
	require.Equal(t, "40", liq.String())
	require.Equal(t, "30", launch.String())
	require.Equal(t, "30", gas.String())
}

func TestMulDivGasBuffer(t *testing.T) {
	gas := FromInt64(100000)
	buffered := gas.MulDiv(115, 100)
	require.Equal(t, "115000", buffered.String())
}

func TestJSONMarshalling(t *testing.T) {
	w := FromInt64(42)
	data, err := json.Marshal(w)
	require.NoError(t, err)
	require.Equal(t, `"42"`, string(data))

	var out Wei
	require.NoError(t, json.Unmarshal(data, &out))
	require.Equal(t, "42", out.String())
}

func TestScanValue(t *testing.T) {
	var w Wei
	require.NoError(t, w.Scan("999"))
	require.Equal(t, "999", w.String())

	v, err := w.Value()
	require.NoError(t, err)
	require.Equal(t, "999", v)
}
