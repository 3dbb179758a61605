package catalog

import (
	"testing"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTypes() map[contract.TypeID]contract.ProductType {
	return map[contract.TypeID]contract.ProductType{
		"booster-box": {
			ID:      "booster-box",
			Phrases: []string{"Booster Box", "Display"},
			Exclude: []string{"japanese", "korean"},
		},
	}
}

func testSets() map[contract.SetID]contract.ProductSet {
	return map[contract.SetID]contract.ProductSet{
		"ssp": {ID: "ssp", Name: "Surging Sparks", Series: "Scarlet & Violet"},
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		product     contract.Product
		wantPhrases []string
		wantExclude []string
		wantDropped bool
	}{
		{
			name: "유형 없음 + 자체 문구 유지",
			product: contract.Product{
				ID:     "p1",
				Search: &contract.SearchOverride{Phrases: []string{"surging sparks etb"}},
			},
			wantPhrases: []string{"surging sparks etb"},
		},
		{
			name:        "유형 없음 + 자체 문구 없음은 해석 불가",
			product:     contract.Product{ID: "p2"},
			wantDropped: true,
		},
		{
			name: "알 수 없는 유형은 자체 문구로 폴백",
			product: contract.Product{
				ID:     "p3",
				TypeID: "no-such-type",
				Search: &contract.SearchOverride{Phrases: []string{"fallback phrase"}},
			},
			wantPhrases: []string{"fallback phrase"},
		},
		{
			name:        "알 수 없는 유형 + 자체 문구 없음은 해석 불가",
			product:     contract.Product{ID: "p4", TypeID: "no-such-type"},
			wantDropped: true,
		},
		{
			name: "재정의 상품은 유형 설정을 무시",
			product: contract.Product{
				ID:     "p5",
				TypeID: "booster-box",
				SetID:  "ssp",
				Search: &contract.SearchOverride{
					Phrases:  []string{"Only This"},
					Exclude:  []string{"only-exclude"},
					Override: true,
				},
			},
			wantPhrases: []string{"Only This"},
			wantExclude: []string{"only-exclude"},
		},
		{
			name:    "유형 문구는 세트 이름과 결합",
			product: contract.Product{ID: "p6", TypeID: "booster-box", SetID: "ssp"},
			wantPhrases: []string{
				"surging sparks booster box",
				"surging sparks display",
			},
			wantExclude: []string{"japanese", "korean"},
		},
		{
			name: "자체 문구가 유형 파생 문구보다 앞",
			product: contract.Product{
				ID:     "p7",
				TypeID: "booster-box",
				SetID:  "ssp",
				Search: &contract.SearchOverride{Phrases: []string{"own first"}, Exclude: []string{"own-exclude"}},
			},
			wantPhrases: []string{"own first", "surging sparks booster box", "surging sparks display"},
			wantExclude: []string{"japanese", "korean", "own-exclude"},
		},
		{
			name:    "세트 없는 상품은 유형 문구를 버리고 제외어만 병합",
			product: contract.Product{ID: "p8", TypeID: "booster-box"},
			// 자체 문구도 없으므로 해석 불가
			wantDropped: true,
		},
		{
			name: "세트 없는 상품 + 자체 문구는 유형 제외어를 병합",
			product: contract.Product{
				ID:     "p9",
				TypeID: "booster-box",
				Search: &contract.SearchOverride{Phrases: []string{"loose phrase"}},
			},
			wantPhrases: []string{"loose phrase"},
			wantExclude: []string{"japanese", "korean"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resolved := Resolve([]contract.Product{tt.product}, testTypes(), testSets())

			if tt.wantDropped {
				assert.Empty(t, resolved)
				return
			}

			require.Len(t, resolved, 1)
			assert.Equal(t, tt.wantPhrases, resolved[0].Phrases)
			assert.Equal(t, tt.wantExclude, resolved[0].Exclude)
			assert.NotEmpty(t, resolved[0].Phrases, "확정된 상품은 문구를 한 개 이상 가져야 한다")
		})
	}
}

// TestResolve_DedupeIdempotent 병합을 두 번 적용해도 결과가 같아야 합니다.
func TestResolve_DedupeIdempotent(t *testing.T) {
	t.Parallel()

	p := contract.Product{
		ID:     "p1",
		TypeID: "booster-box",
		SetID:  "ssp",
		Search: &contract.SearchOverride{
			// 유형 파생 문구와 대소문자만 다른 중복
			Phrases: []string{"Surging Sparks Booster Box", "surging sparks booster box"},
			Exclude: []string{"Japanese", "japanese"},
		},
	}

	first := Resolve([]contract.Product{p}, testTypes(), testSets())
	require.Len(t, first, 1)

	// 확정 결과를 다시 병합 입력으로 사용
	again := dedupe(first[0].Phrases)
	assert.Equal(t, first[0].Phrases, again)

	assert.Equal(t, []string{"Surging Sparks Booster Box", "surging sparks display"}, first[0].Phrases)
	assert.Equal(t, []string{"Japanese", "korean"}, first[0].Exclude)
}

func TestResolve_EmptyPhrasesAfterMerge(t *testing.T) {
	t.Parallel()

	// 재정의인데 문구가 공백뿐이면 해석 불가
	p := contract.Product{
		ID:     "p1",
		TypeID: "booster-box",
		SetID:  "ssp",
		Search: &contract.SearchOverride{Phrases: []string{"  ", ""}, Override: true},
	}

	assert.Empty(t, Resolve([]contract.Product{p}, testTypes(), testSets()))
}
