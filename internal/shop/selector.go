package shop

// SelectorKind 셀렉터 값이 해석되는 방식입니다.
type SelectorKind string

const (
	// SelectorCSS CSS 경로 셀렉터
	SelectorCSS SelectorKind = "css"

	// SelectorXPath XPath 표현식 셀렉터
	SelectorXPath SelectorKind = "xpath"

	// SelectorText 대소문자를 구분하지 않는 부분 문자열 매칭.
	// 서브트리의 텍스트에 값이 포함되어 있으면 매칭된 것으로 봅니다.
	SelectorText SelectorKind = "text"

	// SelectorJSONAttr 요소 속성에 담긴 JSON에서 점 표기 경로의 값을 조회합니다.
	SelectorJSONAttr SelectorKind = "json-attr"
)

// ExtractMode 매칭된 노드에서 문자열을 뽑아내는 방식입니다.
type ExtractMode string

const (
	// ExtractText 노드와 자손 노드의 텍스트 전체
	ExtractText ExtractMode = "text"

	// ExtractHref 노드의 href 속성 값
	ExtractHref ExtractMode = "href"

	// ExtractInnerHTML 노드 내부의 HTML 원문
	ExtractInnerHTML ExtractMode = "inner-html"

	// ExtractOwnText 자손 노드를 제외한 노드 자신의 텍스트
	ExtractOwnText ExtractMode = "own-text"
)

// Aggregate json-attr 셀렉터가 여러 노드에 걸쳐 매칭 여부를 판정하는 방식입니다.
type Aggregate string

const (
	// AggregateAny 하나라도 조건을 만족하면 매칭
	AggregateAny Aggregate = "any"

	// AggregateAll 모든 노드가 조건을 만족해야 매칭
	AggregateAll Aggregate = "all"

	// AggregateNone 조건을 만족하는 노드가 없어야 매칭
	AggregateNone Aggregate = "none"
)

// Selector 페이지에서 데이터를 찾아 추출하는 규칙입니다.
//
// Kind에 따라 Value의 의미가 달라집니다. css/xpath는 해당 문법의 경로이고, text는
// 서브트리에서 찾을 부분 문자열이며, json-attr은 JSON을 담은 속성을 가진 노드를
// 고르는 CSS 경로입니다. Fallbacks는 Value가 아무것도 찾지 못했을 때 순서대로
// 시도할 대체 값들이며, 처음으로 비어있지 않은 결과를 낸 값이 채택됩니다.
type Selector struct {
	Kind      SelectorKind `json:"kind" validate:"required,oneof=css xpath text json-attr"`
	Value     string       `json:"value" validate:"required"`
	Fallbacks []string     `json:"fallbacks,omitempty"`
	Extract   ExtractMode  `json:"extract,omitempty" validate:"omitempty,oneof=text href inner-html own-text"`

	// Attribute json-attr에서는 JSON을 담고 있는 속성 이름이며, 그 외 Kind에서는
	// 설정 시 Extract 모드 대신 해당 속성 값을 추출합니다. 제목이 자손 텍스트가
	// 아니라 기사 노드의 속성에 들어있는 쇼핑몰을 지원하기 위한 것입니다.
	Attribute string `json:"attribute,omitempty" validate:"required_if=Kind json-attr"`

	// Path json-attr 전용. JSON 내부를 탐색할 점 표기 경로입니다.
	Path string `json:"path,omitempty" validate:"required_if=Kind json-attr"`

	// Expected json-attr 전용. 설정 시 경로의 값이 이 문자열과 일치해야 매칭으로
	// 판정하며, 비어있으면 경로가 존재하기만 하면 매칭입니다.
	Expected string `json:"expected,omitempty"`

	// Aggregate json-attr 전용. 비어있으면 any로 동작합니다.
	Aggregate Aggregate `json:"aggregate,omitempty" validate:"omitempty,oneof=any all none"`
}

// Values 기본 값과 폴백 값들을 시도 순서대로 반환합니다.
func (s Selector) Values() []string {
	values := make([]string, 0, 1+len(s.Fallbacks))
	values = append(values, s.Value)
	values = append(values, s.Fallbacks...)
	return values
}

// Mode 추출 방식을 반환하며, 설정되지 않은 경우 text를 기본값으로 사용합니다.
func (s Selector) Mode() ExtractMode {
	if s.Extract == "" {
		return ExtractText
	}
	return s.Extract
}

// Aggregation json-attr의 판정 방식을 반환하며, 설정되지 않은 경우 any를 기본값으로
// 사용합니다.
func (s Selector) Aggregation() Aggregate {
	if s.Aggregate == "" {
		return AggregateAny
	}
	return s.Aggregate
}

// IsZero 셀렉터가 설정 파일에 정의되지 않았는지 확인합니다.
func (s Selector) IsZero() bool {
	return s.Kind == "" && s.Value == ""
}
