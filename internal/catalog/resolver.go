// Package catalog 카탈로그 상품의 검색 설정을 확정하고 세트 단위로 묶습니다.
//
// 상품, 상품 유형, 세트는 외부 CRUD가 소유하는 느슨한 데이터입니다. 스캔을
// 시작하려면 상품마다 "무엇으로 검색할지"(phrases)와 "무엇을 걸러낼지"(exclude)를
// 확정해야 하며, 이 패키지의 Resolve가 상품/유형/세트 설정을 병합하여 그 답을
// 만듭니다. GroupBySet은 확정된 상품들을 세트 단위 검색 그룹으로 묶습니다.
package catalog

import (
	"strings"

	"github.com/darkkaiser/price-scanner/internal/contract"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	log "github.com/sirupsen/logrus"
)

const componentResolver = "catalog.resolver"

// Resolve 카탈로그 상품들의 검색 문구와 제외어를 확정합니다.
//
// 병합 규칙 (우선순위 순):
//  1. 유형이 없는 상품: 자체 문구가 있으면 그대로 사용, 없으면 해석 불가.
//  2. 알 수 없는 유형을 참조하는 상품: 자체 문구로 폴백, 없으면 해석 불가.
//  3. 재정의(override) 상품: 자체 문구와 제외어만 사용.
//  4. 그 외: 유형 문구를 세트 이름과 결합("{세트명} {유형문구}", 소문자)하여
//     자체 문구 뒤에 병합. 세트가 없는 상품은 유형 문구가 너무 포괄적이므로
//     버리되 유형 제외어는 병합한다.
//
// 해석 불가 상품은 경고 로그와 함께 결과에서 제외됩니다. 반환된 모든 상품은
// 문구를 한 개 이상 가집니다.
func Resolve(products []contract.Product, types map[contract.TypeID]contract.ProductType, sets map[contract.SetID]contract.ProductSet) []contract.ResolvedProduct {
	logger := applog.WithComponent(componentResolver)

	resolved := make([]contract.ResolvedProduct, 0, len(products))
	skipped := 0

	for _, p := range products {
		rp, ok := resolveOne(p, types, sets)
		if !ok {
			skipped++
			logger.WithFields(log.Fields{
				"product_id": p.ID,
				"product":    p.Name,
			}).Warn("검색 문구를 확정할 수 없어 상품을 스캔 대상에서 제외합니다")
			continue
		}
		resolved = append(resolved, rp)
	}

	logger.WithFields(log.Fields{
		"resolved": len(resolved),
		"skipped":  skipped,
	}).Info("상품 검색 설정 확정이 완료되었습니다")

	return resolved
}

// resolveOne 상품 하나의 검색 설정을 확정합니다.
func resolveOne(p contract.Product, types map[contract.TypeID]contract.ProductType, sets map[contract.SetID]contract.ProductSet) (contract.ResolvedProduct, bool) {
	var ownPhrases, ownExclude []string
	override := false
	if p.Search != nil {
		ownPhrases = p.Search.Phrases
		ownExclude = p.Search.Exclude
		override = p.Search.Override
	}

	// 유형이 없거나 알 수 없는 유형이면 자체 문구만 사용할 수 있다.
	pt, typeKnown := types[p.TypeID]
	if p.TypeID.IsEmpty() || !typeKnown {
		return buildResolved(p, ownPhrases, ownExclude)
	}

	// 재정의 상품은 유형 설정을 완전히 무시한다.
	if override {
		return buildResolved(p, ownPhrases, ownExclude)
	}

	// 유형 문구는 세트 이름과 결합해야 의미가 있다. 세트가 없으면 문구는 버리고
	// 유형 제외어만 살린다.
	var typeDerived []string
	if set, ok := sets[p.SetID]; ok && !p.SetID.IsEmpty() {
		typeDerived = make([]string, 0, len(pt.Phrases))
		for _, phrase := range pt.Phrases {
			typeDerived = append(typeDerived, strings.ToLower(set.Name+" "+phrase))
		}
	}

	phrases := dedupe(append(append([]string{}, ownPhrases...), typeDerived...))
	exclude := dedupe(append(append([]string{}, pt.Exclude...), ownExclude...))

	if len(phrases) == 0 {
		return contract.ResolvedProduct{}, false
	}

	return contract.ResolvedProduct{Product: p, Phrases: phrases, Exclude: exclude}, true
}

// buildResolved 자체 설정만으로 확정 결과를 만듭니다. 문구가 없으면 해석 불가입니다.
func buildResolved(p contract.Product, phrases, exclude []string) (contract.ResolvedProduct, bool) {
	phrases = dedupe(phrases)
	if len(phrases) == 0 {
		return contract.ResolvedProduct{}, false
	}
	return contract.ResolvedProduct{Product: p, Phrases: phrases, Exclude: dedupe(exclude)}, true
}

// dedupe 대소문자를 구분하지 않고 중복을 제거합니다. 먼저 나온 항목이 유지되므로
// 같은 입력에 두 번 적용해도 결과가 변하지 않습니다.
func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
