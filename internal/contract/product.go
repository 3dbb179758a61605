package contract

import (
	"time"
)

// SearchOverride 상품별 검색 문구 재정의 설정입니다.
//
// Override가 true이면 상품 유형의 기본 문구를 무시하고 Phrases만 사용하며,
// false이면 기본 문구에 Phrases를 추가합니다. Exclude는 항상 병합됩니다.
type SearchOverride struct {
	Phrases  []string
	Exclude  []string
	Override bool
}

// Product 카탈로그에 등록된 상품입니다. 외부 CRUD가 소유하며 사이클마다 한 번 읽습니다.
type Product struct {
	ID       ProductID
	Name     string
	SetID    SetID
	TypeID   TypeID
	Search   *SearchOverride
	Disabled bool
}

// ProductType 여러 상품이 공유하는 기본 검색 문구와 제외어 묶음입니다.
type ProductType struct {
	ID      TypeID
	Phrases []string
	Exclude []string
}

// ProductSet 시리즈 내 발매 단위입니다. 같은 세트의 상품들은 세트 이름 한 번의
// 검색으로 묶어서 탐색할 수 있습니다.
type ProductSet struct {
	ID          SetID
	Name        string
	Series      string
	ReleaseDate *time.Time
}

// Generic 세트 이름이 시리즈 이름과 동일한 일반(generic) 세트인지 확인합니다.
//
// 일반 세트의 이름으로 검색하면 같은 시리즈의 다른 세트 상품까지 걸려들기 때문에,
// 일반 세트에 속한 상품들은 형제 세트 이름을 제외어로 추가해야 합니다.
func (s ProductSet) Generic() bool {
	return s.Name == s.Series
}

// ResolvedProduct 검색 문구가 확정된 사이클 로컬 상품입니다.
// Phrases는 항상 한 개 이상이며, Exclude는 유형/세트/상품 설정을 병합한 결과입니다.
type ResolvedProduct struct {
	Product

	Phrases []string
	Exclude []string
}

// SetGroup 같은 세트에 속한 상품들의 검색 그룹입니다.
// SearchPhrase(세트 이름) 한 번의 검색 결과를 Products 전원이 공유합니다.
type SetGroup struct {
	SetID        SetID
	SearchPhrase string
	Products     []ResolvedProduct
}
