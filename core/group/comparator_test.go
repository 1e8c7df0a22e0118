package group

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparator(t *testing.T) {
	tests := []struct {
		in      string
		want    Comparator
		wantErr bool
	}{
		{in: "<", want: LessThan},
		{in: "<=", want: LessOrEqual},
		{in: ">", want: GreaterThan},
		{in: " >= ", want: GreaterOrEqual},
		{in: "=", want: Equal},
		{in: "==", wantErr: true},
		{in: "", wantErr: true},
		{in: "> 1; DROP TABLE student", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseComparator(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errUnknownComparator)
				assert.False(t, got.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.SQL(), got.String())
		})
	}
}

func TestComparator_Compare(t *testing.T) {
	tests := []struct {
		cmp              Comparator
		count, threshold int
		want             bool
	}{
		{LessThan, 2, 3, true},
		{LessThan, 3, 3, false},
		{LessOrEqual, 3, 3, true},
		{LessOrEqual, 4, 3, false},
		{GreaterThan, 3, 3, false},
		{GreaterThan, 4, 3, true},
		{GreaterOrEqual, 3, 3, true},
		{GreaterOrEqual, 2, 3, false},
		{Equal, 3, 3, true},
		{Equal, 2, 3, false},
		{Comparator(0), 3, 3, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.cmp.Compare(tt.count, tt.threshold), "%d %s %d", tt.count, tt.cmp, tt.threshold)
	}
}

func TestComparator_SQLPanicsWhenInvalid(t *testing.T) {
	assert.Panics(t, func() { _ = Comparator(42).SQL() })
}

func TestComparator_ScanValue(t *testing.T) {
	var c Comparator
	require.NoError(t, c.Scan([]byte(">=")))
	assert.Equal(t, GreaterOrEqual, c)

	require.NoError(t, c.Scan("bogus"))
	assert.False(t, c.IsValid())

	assert.Error(t, c.Scan(3))

	v, err := LessThan.Value()
	require.NoError(t, err)
	assert.Equal(t, "<", v)

	_, err = Comparator(0).Value()
	assert.Error(t, err)
}

func TestComparator_JSON(t *testing.T) {
	text, err := LessOrEqual.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "<=", string(text))

	var c Comparator
	require.NoError(t, c.UnmarshalText([]byte("=")))
	assert.Equal(t, Equal, c)
	assert.Error(t, c.UnmarshalText([]byte("!=")))
}
