package contract

import "time"

// hourBucketLayout 시간 단위 중복 제거에 사용하는 시각 포맷입니다.
// 같은 (상품, 쇼핑몰) 조합의 결과는 한 시간에 한 건만 저장됩니다.
const hourBucketLayout = "2006-01-02T15"

// SearchPageData 검색 결과 목록 페이지에서 바로 추출한 가격과 재고 정보입니다.
// 상품 상세 페이지를 열지 않고도 결과를 합성할 수 있게 해줍니다.
type SearchPageData struct {
	Price     *float64
	Available bool
}

// Candidate 검색 결과 페이지에서 수집한 후보 상품입니다.
type Candidate struct {
	Title string
	URL   string

	// Score 상품 이름과의 유사도 점수 (0~100)
	Score int

	// Page 검색 결과 페이지에서 함께 추출한 가격/재고 정보 (없으면 nil)
	Page *SearchPageData
}

// ExtractionResult 한 (상품, 쇼핑몰) 조합에 대한 스크래핑 결과입니다.
//
// ProductURL이 빈 문자열이면 쇼핑몰에서 상품을 찾지 못한 것이며, 이 경우 결과는
// 저장 대상이 아닙니다. URL은 알지만 가격 추출에 실패한 경우 Price는 nil입니다.
type ExtractionResult struct {
	ProductID  ProductID
	ShopID     ShopID
	ProductURL string
	Price      *float64
	Available  bool
	Timestamp  time.Time
}

// Found 쇼핑몰에서 상품 페이지를 찾았는지 확인합니다.
func (r ExtractionResult) Found() bool {
	return r.ProductURL != ""
}

// HourBucket 결과가 속한 시간 버킷을 반환합니다. UTC 기준으로 계산하므로
// 실행 환경의 타임존과 무관하게 같은 시각은 같은 버킷에 속합니다.
func (r ExtractionResult) HourBucket() string {
	return r.Timestamp.UTC().Format(hourBucketLayout)
}
