package validate

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery_Valid(t *testing.T) {
	q, err := ParseQuery(url.Values{"q": {"  ospf areas "}, "limit": {"3"}, "sources": {"wikipedia, cse"}}, []string{"bing"})
	require.NoError(t, err)
	assert.Equal(t, "ospf areas", q.Text)
	assert.Equal(t, 3, q.Limit)
	assert.Equal(t, []string{"wikipedia", "cse"}, q.Providers)
}

func TestParseQuery_DefaultsProviders(t *testing.T) {
	q, err := ParseQuery(url.Values{"q": {"vlan"}, "sources": {" , ,"}}, []string{"wikipedia", "cse", "wikipedia"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wikipedia", "cse"}, q.Providers)
	assert.Equal(t, DefaultLimit, q.Limit)
}

func TestParseQuery_TextErrors(t *testing.T) {
	cases := map[string]url.Values{
		"missing":   {},
		"too short": {"q": {"a"}},
		"blank":     {"q": {"   x   "}},
		"too long":  {"q": {strings.Repeat("a", 201)}},
	}
	for name, params := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseQuery(params, nil)
			require.Error(t, err)
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, CodeValidation, verr.Code)
			assert.Equal(t, "q", verr.Field)
			assert.NotEmpty(t, verr.Message)
		})
	}
}

func TestParseText_Boundaries(t *testing.T) {
	_, err := ParseText("ab")
	assert.NoError(t, err)
	_, err = ParseText(strings.Repeat("x", 200))
	assert.NoError(t, err)
	// length is counted in characters, not bytes
	_, err = ParseText(strings.Repeat("é", 200))
	assert.NoError(t, err)
}

func TestParseLimit(t *testing.T) {
	cases := map[string]int{
		"":       5,
		"abc":    5,
		"0":      5,
		"NaN":    5,
		"1":      1,
		"7":      7,
		"10":     10,
		"50":     10,
		"-3":     1,
		"0.5":    1,
		"3.9":    3,
		" 4 ":    4,
		"1e3":    10,
		"-0.2":   1,
		"1e400":  10,
		"-1e400": 1,
		"1e-400": 5,
		"0x10":   10,
		"0x3":    3,
		"0b11":   3,
		"0o7":    7,
		"0xZZ":   5,
		"-0x10":  5,
		"0x1p4":  5,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLimit(in), "limit=%q", in)
	}
	assert.Equal(t, MaxLimit, ParseLimit("0xFFFFFFFFFFFFFFFFFFFF"))
}

func TestParseProviders(t *testing.T) {
	assert.Nil(t, ParseProviders(""))
	assert.Equal(t, []string{"cse", "bing"}, ParseProviders("CSE,,bing, cse"))
}
