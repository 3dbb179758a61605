package priceutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEU(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{
			name:     "통화 기호와 천 단위 구분자",
			input:    "1.299,99 €",
			expected: 1299.99,
			ok:       true,
		},
		{
			name:     "통화 기호가 앞에 있는 경우",
			input:    "€ 34,99",
			expected: 34.99,
			ok:       true,
		},
		{
			name:     "공백 천 단위 구분자",
			input:    "1 299 EUR",
			expected: 1299,
			ok:       true,
		},
		{
			name:     "NBSP 천 단위 구분자",
			input:    "1 299,50 €",
			expected: 1299.5,
			ok:       true,
		},
		{
			name:     "천 단위 구분자 없는 네 자리 정수부",
			input:    "1234,56",
			expected: 1234.56,
			ok:       true,
		},
		{
			name:     "소수부 한 자리",
			input:    "ab 12,9 €",
			expected: 12.9,
			ok:       true,
		},
		{
			name:     "정수 가격",
			input:    "Preis: 5 EUR",
			expected: 5,
			ok:       true,
		},
		{
			name:  "숫자가 없는 텍스트",
			input: "ausverkauft",
			ok:    false,
		},
		{
			name:  "빈 문자열",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, ok := Parse(tt.input, LocaleEU)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, value, 0.001)
			}
		})
	}
}

func TestParseUS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected float64
		ok       bool
	}{
		{
			name:     "통화 기호와 천 단위 구분자",
			input:    "$1,299.99",
			expected: 1299.99,
			ok:       true,
		},
		{
			name:     "1달러 미만",
			input:    "$0.99",
			expected: 0.99,
			ok:       true,
		},
		{
			name:     "정수 가격",
			input:    "USD 15",
			expected: 15,
			ok:       true,
		},
		{
			name:     "백만 단위",
			input:    "1,234,567.89",
			expected: 1234567.89,
			ok:       true,
		},
		{
			name:  "숫자가 없는 텍스트",
			input: "Sold Out",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, ok := Parse(tt.input, LocaleUS)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, value, 0.001)
			}
		})
	}
}

func TestParseUnknownLocale(t *testing.T) {
	t.Parallel()

	_, ok := Parse("1.299,99 €", Locale("kr"))
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    float64
		locale   Locale
		expected string
	}{
		{
			name:     "유럽식 천 단위",
			value:    1299.99,
			locale:   LocaleEU,
			expected: "1.299,99",
		},
		{
			name:     "유럽식 소수부 채움",
			value:    5,
			locale:   LocaleEU,
			expected: "5,00",
		},
		{
			name:     "미국식 천 단위",
			value:    1299.99,
			locale:   LocaleUS,
			expected: "1,299.99",
		},
		{
			name:     "미국식 백만 단위",
			value:    1234567.89,
			locale:   LocaleUS,
			expected: "1,234,567.89",
		},
		{
			name:     "1 미만",
			value:    0.5,
			locale:   LocaleEU,
			expected: "0,50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Format(tt.value, tt.locale))
		})
	}
}

// 파싱된 가격을 같은 로케일로 포맷한 뒤 다시 파싱하면 원래 값이 나와야 합니다.
func TestFormatParseRoundTrip(t *testing.T) {
	t.Parallel()

	values := []float64{0.5, 9.99, 100, 1299.99, 1234567.89}

	for _, locale := range []Locale{LocaleEU, LocaleUS} {
		for _, value := range values {
			parsed, ok := Parse(Format(value, locale), locale)
			assert.True(t, ok, "로케일 %s, 값 %f", locale, value)
			assert.InDelta(t, value, parsed, 0.01)
		}
	}
}

func TestLocaleValid(t *testing.T) {
	t.Parallel()

	assert.True(t, LocaleEU.Valid())
	assert.True(t, LocaleUS.Valid())
	assert.False(t, Locale("").Valid())
	assert.False(t, Locale("kr").Valid())
}

func BenchmarkParseEU(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Parse("1.299,99 €", LocaleEU)
	}
}
