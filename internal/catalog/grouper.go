package catalog

import (
	"sort"
	"strings"

	"github.com/darkkaiser/price-scanner/internal/contract"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	log "github.com/sirupsen/logrus"
)

const componentGrouper = "catalog.group"

// GroupBySet 확정된 상품들을 세트 단위 검색 그룹으로 묶습니다.
//
// 세트가 있는 상품은 세트 이름 한 번의 검색으로 여러 상품의 URL을 한꺼번에
// 해석할 수 있으므로 SetGroup으로 묶이고, 세트가 없거나 알 수 없는 세트를
// 참조하는 상품은 ungrouped로 반환됩니다.
//
// 이름이 시리즈와 동일한 일반(generic) 세트는 검색 결과에 같은 시리즈의 다른
// 세트 상품이 섞여 들어오므로, 그룹 멤버 전원의 제외어에 형제 세트 이름
// (소문자)을 추가합니다. 반환 그룹은 세트 ID 기준 오름차순으로 정렬됩니다.
func GroupBySet(products []contract.ResolvedProduct, sets map[contract.SetID]contract.ProductSet) ([]contract.SetGroup, []contract.ResolvedProduct) {
	// 시리즈 -> 시리즈에 속한 세트 이름 전체
	seriesIndex := make(map[string][]string)
	for _, set := range sets {
		seriesIndex[set.Series] = append(seriesIndex[set.Series], set.Name)
	}

	bySet := make(map[contract.SetID][]contract.ResolvedProduct)
	var ungrouped []contract.ResolvedProduct

	for _, p := range products {
		if _, ok := sets[p.SetID]; !p.SetID.IsEmpty() && ok {
			bySet[p.SetID] = append(bySet[p.SetID], p)
			continue
		}
		ungrouped = append(ungrouped, p)
	}

	groups := make([]contract.SetGroup, 0, len(bySet))
	for setID, members := range bySet {
		set := sets[setID]

		if set.Generic() {
			siblings := siblingExcludes(set, seriesIndex[set.Series])
			if len(siblings) > 0 {
				for i := range members {
					members[i].Exclude = dedupe(append(append([]string{}, members[i].Exclude...), siblings...))
				}
			}
		}

		groups = append(groups, contract.SetGroup{
			SetID:        setID,
			SearchPhrase: set.Name,
			Products:     members,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].SetID < groups[j].SetID
	})

	applog.WithComponentAndFields(componentGrouper, log.Fields{
		"groups":    len(groups),
		"ungrouped": len(ungrouped),
	}).Info("세트 그룹 구성이 완료되었습니다")

	return groups, ungrouped
}

// siblingExcludes 같은 시리즈에서 자신을 제외한 세트 이름들을 소문자로 반환합니다.
func siblingExcludes(set contract.ProductSet, seriesSetNames []string) []string {
	siblings := make([]string, 0, len(seriesSetNames))
	for _, name := range seriesSetNames {
		if name == set.Name {
			continue
		}
		siblings = append(siblings, strings.ToLower(name))
	}
	sort.Strings(siblings)
	return siblings
}
