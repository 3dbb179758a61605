// Package priceutil은 쇼핑몰별 로케일 형식의 가격 문자열 파싱과 표시용 포맷팅 기능을 제공합니다.
package priceutil

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/darkkaiser/price-scanner/pkg/strutil"
)

// Locale 가격 문자열의 표기 형식을 나타냅니다.
type Locale string

const (
	// LocaleEU 유럽식 표기 (천 단위 구분자 '.', 소수점 ',')
	// 예: "1.299,99 €"
	LocaleEU Locale = "eu"

	// LocaleUS 미국식 표기 (천 단위 구분자 ',', 소수점 '.')
	// 예: "$1,299.99"
	LocaleUS Locale = "us"
)

// Valid 지원하는 로케일인지 확인합니다.
func (l Locale) Valid() bool {
	switch l {
	case LocaleEU, LocaleUS:
		return true
	}
	return false
}

var (
	// 유럽식 가격 표기: 천 단위 구분자로 '.', 공백, NBSP를 허용하고 소수부는 ',' 뒤 1~2자리
	euPriceRegexp = regexp.MustCompile(`\d+(?:[. \x{00A0}]\d{3})*(?:,\d{1,2})?`)

	// 미국식 가격 표기: 천 단위 구분자로 ','를 허용하고 소수부는 '.' 뒤 1~2자리
	usPriceRegexp = regexp.MustCompile(`\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?`)

	// 유럽식 표기의 천 단위 구분자 제거 및 소수점 통일
	euSeparatorReplacer = strings.NewReplacer(".", "", " ", "", " ", "", ",", ".")
)

// Parse 가격 문자열에서 첫 번째 숫자 표기를 찾아 실수로 변환합니다.
//
// 통화 기호나 단위 문자("€", "$", "EUR" 등)는 무시하며, 로케일에 맞는 숫자 표기를
// 찾지 못하면 false를 반환합니다. 품절 안내 문구처럼 숫자가 없는 텍스트가 가격
// 셀렉터에 걸리는 경우가 흔하므로 호출부는 반드시 반환값을 확인해야 합니다.
func Parse(text string, locale Locale) (float64, bool) {
	var normalized string

	switch locale {
	case LocaleEU:
		matched := euPriceRegexp.FindString(text)
		if matched == "" {
			return 0, false
		}
		normalized = euSeparatorReplacer.Replace(matched)
	case LocaleUS:
		matched := usPriceRegexp.FindString(text)
		if matched == "" {
			return 0, false
		}
		normalized = strings.ReplaceAll(matched, ",", "")
	default:
		return 0, false
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// Format 가격을 로케일 표기 문자열로 변환합니다. 소수부는 항상 2자리로 표기합니다.
// 예: 1299.99 -> "1.299,99"(eu), "1,299.99"(us)
func Format(value float64, locale Locale) string {
	negative := value < 0
	if negative {
		value = -value
	}

	formatted := strconv.FormatFloat(value, 'f', 2, 64)
	intPart, fracPart, _ := strings.Cut(formatted, ".")

	grouped := intPart
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		grouped = strutil.FormatCommas(n)
	}

	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}

	switch locale {
	case LocaleUS:
		sb.WriteString(grouped)
		sb.WriteByte('.')
		sb.WriteString(fracPart)
	default:
		sb.WriteString(strings.ReplaceAll(grouped, ",", "."))
		sb.WriteByte(',')
		sb.WriteString(fracPart)
	}

	return sb.String()
}
