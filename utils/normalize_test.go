package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	assert.Nil(t, CleanText("   "))
	assert.Nil(t, CleanText(""))

	got := CleanText("  BEBIDAS  ")
	require.NotNil(t, got)
	assert.Equal(t, "BEBIDAS", *got)
}

func TestNormalizeDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123.45", "123.45"},
		{"123,45", "123.45"},
		{"1.234,56", "1234.56"},
		{"1,234.56", "1234.56"},
		{" 10 ", "10"},
		{"-5,5", "-5.5"},
	}
	for _, tc := range cases {
		got, err := NormalizeDecimal(tc.in)
		require.NoError(t, err, tc.in)
		require.NotNil(t, got, tc.in)
		assert.Equal(t, tc.want, got.String(), tc.in)
	}

	blank, err := NormalizeDecimal("   ")
	require.NoError(t, err)
	assert.Nil(t, blank)

	_, err = NormalizeDecimal("abc")
	assert.Error(t, err)
}

func TestParseLegacyDate(t *testing.T) {
	for _, in := range []string{"2024-01-15", "20240115", "15/01/2024"} {
		got := ParseLegacyDate(in)
		require.NotNil(t, got, in)
		assert.Equal(t, "2024-01-15", got.Format("2006-01-02"), in)
	}

	assert.Nil(t, ParseLegacyDate(""))
	assert.Nil(t, ParseLegacyDate("not-a-date"))
}

func TestDefaultStatus(t *testing.T) {
	assert.Equal(t, "active", DefaultStatus(""))
	assert.Equal(t, "active", DefaultStatus("T"))
	assert.Equal(t, "active", DefaultStatus("S"))
	assert.Equal(t, "inactive", DefaultStatus("F"))
	assert.Equal(t, "inactive", DefaultStatus("n"))
}

func TestLegacyKey(t *testing.T) {
	assert.Equal(t, "001|DOC1|2024-01-15", LegacyKey(" 001", "DOC1 ", "2024-01-15"))
}
