package strutil

import (
	"strings"
)

// ExcludeMatcher 제외 키워드 목록으로 문자열을 거르는 상태 기반(Stateful) 구조체입니다.
//
// 생성 시점에 키워드 전처리(공백 제거, 소문자 변환)를 수행합니다.
// 검색 결과 페이지의 후보 제목들을 같은 제외어 셋으로 반복 검사하는 대량 처리
// 상황에서 반복적인 파싱과 메모리 할당 비용을 제거하기 위한 것입니다.
type ExcludeMatcher struct {
	// excluded 제외 키워드 목록 (OR 조건)
	// 이 중 하나라도 포함되면 제외 대상으로 판정합니다.
	excluded []string
}

// NewExcludeMatcher 주어진 제외 키워드로 새로운 ExcludeMatcher를 생성합니다.
// 빈 키워드는 걸러지며, 대소문자를 구분하지 않는 매칭을 위해 모두 소문자로 변환됩니다.
func NewExcludeMatcher(excluded []string) *ExcludeMatcher {
	m := &ExcludeMatcher{
		excluded: make([]string, 0, len(excluded)),
	}

	for _, k := range excluded {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		m.excluded = append(m.excluded, strings.ToLower(k))
	}

	return m
}

// Empty 제외 키워드가 하나도 없는지 확인합니다.
func (m *ExcludeMatcher) Empty() bool {
	return len(m.excluded) == 0
}

// Excluded 대상 문자열이 제외 키워드 중 하나라도 포함하는지 검사합니다.
func (m *ExcludeMatcher) Excluded(s string) bool {
	for _, k := range m.excluded {
		if ContainsFold(s, k) {
			return true
		}
	}
	return false
}

// ContainsFold 문자열 s가 substr을 대소문자 구분 없이 포함하는지 검사합니다.
//
// strings.ToLower(s)는 매 호출마다 전체 문자열의 복사본을 힙에 할당하므로,
// 원본 문자열을 순회하며 부분 슬라이스를 strings.EqualFold로 비교하는 방식을
// 사용합니다. 대소문자 변환 시 바이트 길이가 달라지는 일부 언어(예: 터키어 İ/i)
// 에서는 부정확할 수 있으나, 상품명 매칭 용도에서는 문제가 되지 않습니다.
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	if len(s) < len(substr) {
		return false
	}

	// range 순회로 유효한 문자 경계의 시작 바이트 인덱스에서만 비교합니다.
	for i := range s {
		if i+len(substr) > len(s) {
			break
		}
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return true
		}
	}
	return false
}
