package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{1500, "$15.00"},
		{123456, "$1,234.56"},
		{100000000, "$1,000,000.00"},
		{-250, "-$2.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Cents(tt.cents))
	}
}

func TestPrice(t *testing.T) {
	assert.Equal(t, "Free", Price(0))
	assert.Equal(t, "$15.00", Price(1500))
}

func TestParseDollars(t *testing.T) {
	c, err := ParseDollars("15")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), c)

	c, err = ParseDollars("$1,234.565")
	require.NoError(t, err)
	assert.Equal(t, int64(123457), c)

	c, err = ParseDollars("0.1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), c)

	c, err = ParseDollars("1000000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(100000000000000), c)

	for _, bad := range []string{
		"", "abc", "-1", "NaN", "Inf",
		"1e20", "1e2", "0x1p4", "100000000000000000", "1000000000000.01",
		"1.2.3", "$", ".",
	} {
		_, err = ParseDollars(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}

	assert.Equal(t, "15.00", CentsToDollars(1500))
}

func TestDates(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	ts := time.Date(2023, time.November, 4, 9, 0, 0, 0, est)

	assert.Equal(t, "Saturday, November 4th, 2023", LongDate(ts))
	assert.Equal(t, "Saturday, November 4th", ShortDate(ts))
	assert.Equal(t, "9:00 AM EST", Clock(ts))
	assert.Equal(t, "2023-11-04T09:00", DateTimeLocal(ts))
	assert.Equal(t, "", LongDate(time.Time{}))
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th", 13: "13th", 21: "21st", 22: "22nd", 31: "31st"}
	for n, want := range cases {
		assert.Equal(t, want, Ordinal(n))
	}
	assert.Equal(t, "ticket", Plural(1, "ticket"))
	assert.Equal(t, "tickets", Plural(3, "ticket"))
}

func TestSanitizeHTML(t *testing.T) {
	t.Run("KeepsFormatting", func(t *testing.T) {
		got := SanitizeHTML(`<p>Hello <strong>world</strong><br></p><ul><li>one</li></ul>`)
		assert.Equal(t, `<p>Hello <strong>world</strong><br></p><ul><li>one</li></ul>`, string(got))
	})

	t.Run("DropsScripts", func(t *testing.T) {
		got := SanitizeHTML(`<p>Hi<script>alert(1)</script></p><img src=x onerror="alert(2)">`)
		assert.Equal(t, `<p>Hi</p>`, string(got))
	})

	t.Run("StripsAttributes", func(t *testing.T) {
		got := SanitizeHTML(`<p class="x" onclick="evil()">text</p>`)
		assert.Equal(t, `<p>text</p>`, string(got))
	})

	t.Run("Links", func(t *testing.T) {
		got := SanitizeHTML(`<a href="javascript:alert(1)">bad</a><a href="https://example.com">ok</a>`)
		assert.Equal(t,
			`<a rel="nofollow noopener" target="_blank">bad</a><a href="https://example.com" rel="nofollow noopener" target="_blank">ok</a>`,
			string(got))
	})

	t.Run("EscapesText", func(t *testing.T) {
		got := SanitizeHTML(`a < b & c`)
		assert.Equal(t, `a &lt; b &amp; c`, string(got))
	})
}
