// Package extract 쇼핑몰 페이지에서 데이터를 뽑아내는 Extractor 추상화를 제공합니다.
//
// 두 가지 구현이 있습니다. 정적(static) 구현은 HTTP GET과 HTML 파싱만으로
// 동작하여 가볍고 병렬 처리에 적합하며, 렌더링(rendered) 구현은 헤드리스
// 브라우저로 자바스크립트를 실행한 뒤의 DOM을 읽습니다. 두 구현 모두 셀렉터
// 묶음(shop.Selector)의 css/xpath/text/json-attr 네 종류를 해석하며,
// ExtractMany의 결과는 문서 순서(document order)를 보장합니다.
package extract

import (
	"context"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/darkkaiser/price-scanner/internal/shop"
	"github.com/tidwall/gjson"
)

// ErrNoPage Goto 호출 전에 추출을 시도하면 반환되는 에러입니다.
var ErrNoPage = apperrors.New(apperrors.ExecutionFailed, "페이지가 로드되지 않았습니다. Goto를 먼저 호출해야 합니다")

// Extractor 페이지 하나를 로드하고 셀렉터로 데이터를 추출하는 기능입니다.
//
// 하나의 Extractor는 동시에 한 페이지만 바라봅니다. Goto가 성공한 뒤의
// Extract 계열 호출은 모두 그 페이지를 대상으로 하며, 호출 간 순서 보장은
// 호출자가 같은 고루틴에서 사용하는 것으로 성립합니다.
type Extractor interface {
	// Goto 지정된 URL의 페이지를 로드합니다.
	Goto(ctx context.Context, url string) error

	// CurrentURL 리다이렉트를 따라간 뒤의 현재 페이지 URL을 반환합니다.
	CurrentURL() string

	// ExtractOne 셀렉터와 일치하는 첫 번째 값을 추출합니다.
	// 일치하는 노드가 없으면 found=false를 반환하며, 이는 에러가 아닙니다.
	ExtractOne(ctx context.Context, sel shop.Selector) (value string, found bool, err error)

	// ExtractMany 셀렉터와 일치하는 모든 요소를 문서 순서대로 반환합니다.
	ExtractMany(ctx context.Context, sel shop.Selector) ([]Element, error)

	// Exists 셀렉터와 일치하는 노드가 존재하는지 확인합니다.
	// json-attr 셀렉터는 aggregate 설정(any/all/none)에 따라 판정합니다.
	Exists(ctx context.Context, sel shop.Selector) (bool, error)

	// Close Extractor가 보유한 자원(커넥션, 브라우저 탭 등)을 해제합니다.
	Close(ctx context.Context) error
}

// Element ExtractMany가 반환하는 개별 요소입니다. 검색 결과 페이지의 기사 노드처럼
// 요소 내부를 다시 탐색해야 하는 경우에 사용합니다.
type Element interface {
	// Text 요소와 자손의 텍스트를 공백 정규화하여 반환합니다.
	Text(ctx context.Context) (string, error)

	// Attr 요소의 속성 값을 반환합니다. 속성이 없으면 found=false입니다.
	Attr(ctx context.Context, name string) (value string, found bool, err error)

	// Find 요소의 서브트리에서 셀렉터와 일치하는 첫 요소를 찾습니다.
	// 없으면 (nil, nil)을 반환합니다.
	Find(ctx context.Context, sel shop.Selector) (Element, error)

	// FindAll 요소의 서브트리에서 셀렉터와 일치하는 모든 요소를 문서 순서대로 찾습니다.
	FindAll(ctx context.Context, sel shop.Selector) ([]Element, error)

	// Matches 요소 자신(text 셀렉터는 서브트리)이 셀렉터와 일치하는지 확인합니다.
	Matches(ctx context.Context, sel shop.Selector) (bool, error)
}

// ExtractFrom 요소에서 셀렉터의 추출 모드에 맞는 값을 꺼내는 헬퍼입니다.
//
// 셀렉터에 attribute가 지정되어 있으면(json-attr 제외) 해당 속성 값을 추출하고,
// 그 외에는 extract 모드(text 기본)를 따릅니다. 검색 결과의 기사 노드처럼 제목이
// 자손 텍스트가 아니라 속성에 들어있는 쇼핑몰을 지원합니다.
func ExtractFrom(ctx context.Context, el Element, sel shop.Selector) (string, bool, error) {
	if sel.Kind != shop.SelectorJSONAttr && sel.Attribute != "" {
		return el.Attr(ctx, sel.Attribute)
	}

	switch sel.Mode() {
	case shop.ExtractHref:
		return el.Attr(ctx, "href")
	default:
		text, err := el.Text(ctx)
		if err != nil {
			return "", false, err
		}
		return text, text != "", nil
	}
}

// jsonPathMatches 속성에 담긴 JSON 문자열이 셀렉터의 경로/기대값 조건을 만족하는지
// 확인합니다.
func jsonPathMatches(attrVal string, sel shop.Selector) bool {
	if attrVal == "" {
		return false
	}
	result := gjson.Get(attrVal, sel.Path)
	if !result.Exists() {
		return false
	}
	return sel.Expected == "" || result.String() == sel.Expected
}

// aggregateSatisfied json-attr의 any/all/none 판정 규칙을 적용합니다.
func aggregateSatisfied(agg shop.Aggregate, total, satisfied int) bool {
	switch agg {
	case shop.AggregateAll:
		return total > 0 && satisfied == total
	case shop.AggregateNone:
		return satisfied == 0
	default: // any
		return satisfied > 0
	}
}
