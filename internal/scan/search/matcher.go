// Package search 쇼핑몰 검색 결과에서 상품을 찾아내는 탐색기와 후보 매칭 로직을
// 제공합니다.
//
// 탐색은 두 가지 경로로 수행됩니다. 상품 단위 탐색(FindProduct)은 상품의 검색
// 문구로 직접 검색하고, 세트 단위 탐색(CollectSetCandidates)은 세트 이름 한 번의
// 검색으로 후보 목록을 수집한 뒤 순수 함수인 MatchCandidates로 세트의 모든 상품에
// 재사용합니다.
package search

import (
	"sort"

	"github.com/darkkaiser/price-scanner/internal/contract"
	"github.com/darkkaiser/price-scanner/pkg/strutil"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

const (
	// MinScore 여러 후보 중에서 상품으로 채택하기 위한 최소 유사도 점수
	MinScore = 95

	// DirectHitScore 검색이 상품 페이지로 바로 리다이렉트된 경우에 적용하는
	// 최소 유사도 점수. 목록에서 고르는 것이 아니므로 기준이 조금 낮습니다.
	DirectHitScore = 90
)

// Score 후보 제목을 검색 문구와 비교하여 유사도 점수를 계산합니다.
//
// 제목에 제외어가 포함되어 있으면 점수와 무관하게 (0, false)를 반환합니다.
// 점수는 토큰 집합 비율(token set ratio)이므로 단어 순서가 달라도, 제목에 부가
// 단어가 붙어도 높게 유지됩니다.
func Score(title, phrase string, exclude []string) (int, bool) {
	if strutil.NewExcludeMatcher(exclude).Excluded(title) {
		return 0, false
	}
	return fuzzy.TokenSetRatio(strutil.NormalizeForMatch(phrase), strutil.NormalizeForMatch(title)), true
}

// availabilityTier 후보의 재고 상태를 정렬 순위로 바꿉니다.
// 검색 페이지가 재고 있음을 명시한 후보(0)가 가장 앞서고, 재고 정보가 없는
// 후보(1), 품절이 명시된 후보(2) 순입니다.
func availabilityTier(c contract.Candidate) int {
	switch {
	case c.Page == nil:
		return 1
	case c.Page.Available:
		return 0
	default:
		return 2
	}
}

// candidatePrice 정렬에 사용할 후보 가격을 반환합니다. 가격을 모르면 +무한대로
// 취급하여 가격이 알려진 후보가 앞서게 합니다.
func candidatePrice(c contract.Candidate) float64 {
	if c.Page == nil || c.Page.Price == nil {
		return float64(int64(1) << 62)
	}
	return *c.Page.Price
}

// SelectBest 점수가 매겨진 후보들 중 최선의 후보를 고릅니다.
//
// 모든 후보를 (재고 순위 오름차순, 가격 오름차순, 점수 내림차순)으로 정렬한 뒤,
// 최상위 후보의 점수가 MinScore 이상일 때만 채택합니다. 구매 우선순위에서 1순위인
// 후보가 상품과 닮지 않았다면 전체 결과를 신뢰할 수 없으므로 선택을 포기합니다.
// nil 반환은 에러가 아닙니다.
func SelectBest(candidates []contract.Candidate) *contract.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	ranked := make([]contract.Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		ti, tj := availabilityTier(ranked[i]), availabilityTier(ranked[j])
		if ti != tj {
			return ti < tj
		}
		pi, pj := candidatePrice(ranked[i]), candidatePrice(ranked[j])
		if pi != pj {
			return pi < pj
		}
		return ranked[i].Score > ranked[j].Score
	})

	if ranked[0].Score < MinScore {
		return nil
	}
	return &ranked[0]
}

// MatchCandidates 세트 검색으로 수집한 후보 목록에서 상품에 맞는 후보를 고릅니다.
//
// I/O가 없는 순수 함수이므로 세트의 모든 상품이 같은 후보 목록을 공유할 수
// 있습니다. 후보 점수는 상품의 검색 문구들 중 가장 높은 유사도입니다.
func MatchCandidates(product contract.ResolvedProduct, candidates []contract.Candidate) *contract.Candidate {
	scored := make([]contract.Candidate, 0, len(candidates))

	for _, candidate := range candidates {
		bestScore, matched := 0, false
		for _, phrase := range product.Phrases {
			score, ok := Score(candidate.Title, phrase, product.Exclude)
			if !ok {
				matched = false
				break
			}
			matched = true
			if score > bestScore {
				bestScore = score
			}
		}
		if !matched {
			continue
		}

		candidate.Score = bestScore
		scored = append(scored, candidate)
	}

	return SelectBest(scored)
}
