package search

import (
	"testing"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestScore(t *testing.T) {
	t.Parallel()

	t.Run("단어 순서가 달라도 높은 점수", func(t *testing.T) {
		t.Parallel()

		score, ok := Score("Booster Box Surging Sparks", "surging sparks booster box", nil)
		require.True(t, ok)
		assert.GreaterOrEqual(t, score, MinScore)
	})

	t.Run("부가 단어가 붙어도 높은 점수", func(t *testing.T) {
		t.Parallel()

		score, ok := Score("[신제품] Surging Sparks Booster Box 무료배송", "surging sparks booster box", nil)
		require.True(t, ok)
		assert.GreaterOrEqual(t, score, MinScore)
	})

	t.Run("제외어가 포함되면 탈락", func(t *testing.T) {
		t.Parallel()

		_, ok := Score("Promos SWSH Booster Box", "promos booster box", []string{"promos swsh"})
		assert.False(t, ok)
	})

	t.Run("제외어는 대소문자를 구분하지 않음", func(t *testing.T) {
		t.Parallel()

		_, ok := Score("PROMOS swsh booster box", "promos booster box", []string{"Promos SWSH"})
		assert.False(t, ok)
	})

	t.Run("다른 상품은 낮은 점수", func(t *testing.T) {
		t.Parallel()

		score, ok := Score("Paradox Rift Elite Trainer Box", "surging sparks booster box", nil)
		require.True(t, ok)
		assert.Less(t, score, MinScore)
	})
}

func TestSelectBest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		candidates []contract.Candidate
		wantURL    string
		wantNil    bool
	}{
		{
			name:    "후보가 없으면 nil",
			wantNil: true,
		},
		{
			name: "재고 있는 후보가 가격이 비싸도 우선",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 97, Page: &contract.SearchPageData{Price: floatPtr(100), Available: false}},
				{Title: "b", URL: "/b", Score: 96, Page: &contract.SearchPageData{Price: floatPtr(300), Available: true}},
			},
			wantURL: "/b",
		},
		{
			name: "재고 정보가 없는 후보는 품절 후보보다 우선",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 97, Page: &contract.SearchPageData{Price: floatPtr(100), Available: false}},
				{Title: "b", URL: "/b", Score: 96},
			},
			wantURL: "/b",
		},
		{
			name: "같은 재고 순위에서는 싼 가격 우선",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 96, Page: &contract.SearchPageData{Price: floatPtr(200), Available: true}},
				{Title: "b", URL: "/b", Score: 99, Page: &contract.SearchPageData{Price: floatPtr(150), Available: true}},
			},
			wantURL: "/b",
		},
		{
			name: "가격을 모르는 후보는 뒤로",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 96, Page: &contract.SearchPageData{Available: true}},
				{Title: "b", URL: "/b", Score: 96, Page: &contract.SearchPageData{Price: floatPtr(999), Available: true}},
			},
			wantURL: "/b",
		},
		{
			name: "재고와 가격이 같으면 점수 내림차순",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 96},
				{Title: "b", URL: "/b", Score: 99},
			},
			wantURL: "/b",
		},
		{
			name: "모든 후보가 기준 미달이면 nil",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 94},
				{Title: "b", URL: "/b", Score: 80},
			},
			wantNil: true,
		},
		{
			name: "1순위 후보가 기준 미달이면 다른 후보가 기준을 넘어도 nil",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 80, Page: &contract.SearchPageData{Price: floatPtr(10), Available: true}},
				{Title: "b", URL: "/b", Score: 96},
			},
			wantNil: true,
		},
		{
			name: "1순위 후보가 기준을 넘으면 채택",
			candidates: []contract.Candidate{
				{Title: "a", URL: "/a", Score: 96, Page: &contract.SearchPageData{Price: floatPtr(59.99), Available: true}},
				{Title: "b", URL: "/b", Score: 80, Page: &contract.SearchPageData{Price: floatPtr(399.99), Available: true}},
			},
			wantURL: "/a",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			best := SelectBest(tt.candidates)
			if tt.wantNil {
				assert.Nil(t, best)
				return
			}
			require.NotNil(t, best)
			assert.Equal(t, tt.wantURL, best.URL)
		})
	}
}

// TestSelectBest_DoesNotMutateInput 원본 후보 목록의 순서를 바꾸지 않아야 합니다.
func TestSelectBest_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	candidates := []contract.Candidate{
		{Title: "a", URL: "/a", Score: 80},
		{Title: "b", URL: "/b", Score: 99},
	}

	_ = SelectBest(candidates)

	assert.Equal(t, "/a", candidates[0].URL)
	assert.Equal(t, "/b", candidates[1].URL)
}

func TestMatchCandidates(t *testing.T) {
	t.Parallel()

	product := contract.ResolvedProduct{
		Product: contract.Product{ID: "p1", Name: "Surging Sparks Booster Box"},
		Phrases: []string{"surging sparks booster box"},
	}

	candidates := []contract.Candidate{
		{Title: "Surging Sparks Booster Box", URL: "https://shop.example/bb",
			Page: &contract.SearchPageData{Price: floatPtr(399.99), Available: true}},
		{Title: "Surging Sparks Elite Trainer Box", URL: "https://shop.example/etb",
			Page: &contract.SearchPageData{Price: floatPtr(59.99), Available: true}},
	}

	best := MatchCandidates(product, candidates)
	require.NotNil(t, best)
	assert.Equal(t, "https://shop.example/bb", best.URL)
	assert.GreaterOrEqual(t, best.Score, MinScore)
}

// TestMatchCandidates_GenericSetExclude 일반 세트 상품은 형제 세트 이름이 제목에
// 포함된 후보를 점수와 무관하게 거부해야 합니다.
func TestMatchCandidates_GenericSetExclude(t *testing.T) {
	t.Parallel()

	product := contract.ResolvedProduct{
		Product: contract.Product{ID: "p1", Name: "Promos Booster Box"},
		Phrases: []string{"promos booster box"},
		Exclude: []string{"promos swsh"},
	}

	candidates := []contract.Candidate{
		{Title: "Promos SWSH Booster Box", URL: "https://shop.example/swsh-bb",
			Page: &contract.SearchPageData{Price: floatPtr(100), Available: true}},
	}

	assert.Nil(t, MatchCandidates(product, candidates))
}

// TestMatchCandidates_MultiplePhrases 후보 점수는 문구들 중 최고 점수입니다.
func TestMatchCandidates_MultiplePhrases(t *testing.T) {
	t.Parallel()

	product := contract.ResolvedProduct{
		Product: contract.Product{ID: "p1", Name: "Surging Sparks Booster Box"},
		Phrases: []string{"completely different words", "surging sparks booster box"},
	}

	candidates := []contract.Candidate{
		{Title: "Surging Sparks Booster Box", URL: "https://shop.example/bb"},
	}

	best := MatchCandidates(product, candidates)
	require.NotNil(t, best)
	assert.GreaterOrEqual(t, best.Score, MinScore)
}

func TestAvailabilityTier(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, availabilityTier(contract.Candidate{}))
	assert.Equal(t, 0, availabilityTier(contract.Candidate{Page: &contract.SearchPageData{Available: true}}))
	assert.Equal(t, 2, availabilityTier(contract.Candidate{Page: &contract.SearchPageData{Available: false}}))
}
