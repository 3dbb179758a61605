// Package contract 스캔 사이클을 구성하는 컴포넌트들이 공유하는 도메인 타입과
// 저장소 인터페이스를 정의합니다.
//
// 상품 카탈로그, 사용자 감시 목록, 알림 상태와 같은 데이터는 외부 CRUD가 소유하며,
// 스캔 코어는 사이클 시작 시 한 번 읽고 종료 시 배치로 기록합니다. 이 패키지의
// 타입들은 그 경계를 건너는 데이터의 형태를 고정합니다.
package contract

import (
	"strings"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
)

// ProductID 카탈로그에 등록된 상품의 고유 식별자입니다.
type ProductID string

func (id ProductID) IsEmpty() bool {
	return len(id) == 0
}

func (id ProductID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.InvalidInput, "ProductID는 필수입니다")
	}
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

// SetID 상품이 속한 세트(시리즈 내 발매 단위)의 고유 식별자입니다.
type SetID string

func (id SetID) IsEmpty() bool {
	return len(id) == 0
}

func (id SetID) String() string {
	return string(id)
}

// TypeID 상품 유형(기본 검색 문구 묶음)의 고유 식별자입니다.
type TypeID string

func (id TypeID) IsEmpty() bool {
	return len(id) == 0
}

func (id TypeID) String() string {
	return string(id)
}

// ShopID 쇼핑몰 설정 파일에 정의된 쇼핑몰의 고유 식별자입니다.
type ShopID string

func (id ShopID) IsEmpty() bool {
	return len(id) == 0
}

func (id ShopID) Validate() error {
	if strings.TrimSpace(string(id)) == "" {
		return apperrors.New(apperrors.InvalidInput, "ShopID는 필수입니다")
	}
	return nil
}

func (id ShopID) String() string {
	return string(id)
}

// UserID 감시 목록과 알림 대상을 소유한 사용자의 고유 식별자입니다.
type UserID string

func (id UserID) IsEmpty() bool {
	return len(id) == 0
}

func (id UserID) String() string {
	return string(id)
}
