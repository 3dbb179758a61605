package strutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestExcludeMatcher_Excluded 제외 키워드 판정 로직을 검증합니다.
// 기본 기능, 대소문자 구분 없음, 엣지 케이스 및 실제 사용 시나리오를 포괄합니다.
func TestExcludeMatcher_Excluded(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		excluded []string
		input    string
		want     bool
	}{
		// 1. 기본 시나리오
		{name: "빈 문자열, 키워드 없음", input: "", excluded: nil, want: false},
		{name: "일반 문자열, 키워드 없음", input: "Hello World", excluded: nil, want: false},
		{name: "단일 제외 일치", input: "Deprecated API", excluded: []string{"deprecated"}, want: true},
		{name: "단일 제외 불일치", input: "Modern API", excluded: []string{"deprecated"}, want: false},
		{name: "다수 제외 중 하나 일치", input: "Legacy System", excluded: []string{"deprecated", "legacy", "old"}, want: true},
		{name: "다수 제외 모두 불일치", input: "Modern System", excluded: []string{"deprecated", "legacy", "old"}, want: false},

		// 2. 대소문자 구분 없음
		{name: "대소문자 혼합 키워드", input: "surging sparks booster box", excluded: []string{"Booster Box"}, want: true},
		{name: "대소문자 혼합 대상", input: "Surging Sparks ETB", excluded: []string{"etb"}, want: true},

		// 3. 전처리
		{name: "공백 키워드는 무시", input: "anything", excluded: []string{"  ", ""}, want: false},
		{name: "키워드 앞뒤 공백 제거", input: "promo pack", excluded: []string{"  promo  "}, want: true},

		// 4. 실제 사용 시나리오: 형제 세트 이름 제외
		{name: "형제 세트 제목 거부", input: "Promos SWSH Elite Trainer Box", excluded: []string{"promos swsh"}, want: true},
		{name: "자기 세트 제목 통과", input: "Promos Single Pack", excluded: []string{"promos swsh"}, want: false},

		// 5. 유니코드
		{name: "한글 키워드 일치", input: "한정판 부스터 박스", excluded: []string{"한정판"}, want: true},
		{name: "한글 키워드 불일치", input: "일반판 부스터 박스", excluded: []string{"한정판"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewExcludeMatcher(tt.excluded)
			assert.Equal(t, tt.want, m.Excluded(tt.input))
		})
	}
}

func TestExcludeMatcher_Empty(t *testing.T) {
	t.Parallel()

	assert.True(t, NewExcludeMatcher(nil).Empty())
	assert.True(t, NewExcludeMatcher([]string{"", "  "}).Empty())
	assert.False(t, NewExcludeMatcher([]string{"promo"}).Empty())
}

func TestContainsFold(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		s      string
		substr string
		want   bool
	}{
		{name: "빈 부분 문자열은 항상 포함", s: "abc", substr: "", want: true},
		{name: "대상이 더 짧으면 불포함", s: "ab", substr: "abc", want: false},
		{name: "동일 문자열", s: "abc", substr: "abc", want: true},
		{name: "대소문자 무시", s: "Booster Box", substr: "bOOSTER", want: true},
		{name: "중간 위치", s: "the booster box deal", substr: "Booster", want: true},
		{name: "불포함", s: "elite trainer box", substr: "booster", want: false},
		{name: "멀티바이트 경계", s: "한정판 booster", substr: "booster", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, ContainsFold(tt.s, tt.substr))
		})
	}
}

// BenchmarkExcludeMatcher_Excluded strings.ToLower 기반 단순 구현과의 비교 기준선입니다.
func BenchmarkExcludeMatcher_Excluded(b *testing.B) {
	m := NewExcludeMatcher([]string{"promos swsh", "japanese", "korean", "single card"})
	title := "Surging Sparks Booster Box (36 Packs) Factory Sealed"

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if m.Excluded(title) {
			b.Fatal("unexpected match")
		}
	}
}

func BenchmarkExcludeMatcher_Naive(b *testing.B) {
	excluded := []string{"promos swsh", "japanese", "korean", "single card"}
	title := "Surging Sparks Booster Box (36 Packs) Factory Sealed"

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		lower := strings.ToLower(title)
		for _, k := range excluded {
			if strings.Contains(lower, k) {
				b.Fatal("unexpected match")
			}
		}
	}
}
