package config

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/darkkaiser/price-scanner/internal/pkg/validation"
	"github.com/go-playground/validator/v10"
)

// validate 애플리케이션 설정 검증에 사용하는 패키지 전역 Validator 인스턴스입니다.
var validate = newValidator()

// newValidator 새로운 Validator 인스턴스를 생성합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: ShopsDir) 대신 JSON 이름(예: shops_dir)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// 커스텀 유효성 검사 함수 등록
	if err := v.RegisterValidation("mongodb_uri", validateMongoDBURI); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'mongodb_uri' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}
	if err := v.RegisterValidation("proxy_url", validateProxyURL); err != nil {
		panic(fmt.Sprintf("초기화 치명적 오류: 'proxy_url' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", err))
	}

	return v
}

// validateMongoDBURI 입력된 문자열이 MongoDB 연결 문자열 형식인지 검증합니다.
//
// 연결 문자열은 표준 연결 스키마(mongodb://) 또는 DNS 시드 리스트 스키마(mongodb+srv://)로 시작해야 합니다.
func validateMongoDBURI(fl validator.FieldLevel) bool {
	uri := fl.Field().String()
	return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
}

// validateProxyURL `validator` 라이브러리의 검증 인터페이스를 도메인 로직과 연결하는 어댑터(Adapter)입니다.
//
// 설정 파일에 정의된 프록시 주소 문자열을 추출한 뒤, 실제 검증은 `validation.ValidateURL` 함수로 위임합니다.
func validateProxyURL(fl validator.FieldLevel) bool {
	return validation.ValidateURL(fl.Field().String()) == nil
}

// checkStruct 구조체 인스턴스의 유효성을 태그 규칙에 따라 검증하고, 발생한 오류를 사용자 친화적인 도메인 에러로 변환합니다.
func checkStruct(v *validator.Validate, s interface{}, contextName string) error {
	if err := v.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			// 첫 번째 에러만 상세히 보고
			firstErr := validationErrors[0]

			// 필드별(Field) 커스텀 에러 처리
			switch firstErr.StructField() {
			case "ShopsDir":
				return apperrors.New(apperrors.InvalidInput, "쇼핑몰 설정 디렉터리(shops_dir)는 필수입니다")
			case "URI":
				if firstErr.Tag() == "required" {
					return apperrors.New(apperrors.InvalidInput, "데이터베이스 연결 주소(database.uri)는 필수입니다")
				}
				// 다른 태그(mongodb_uri)는 아래 공통 핸들러로 위임
			case "Name":
				return apperrors.New(apperrors.InvalidInput, "데이터베이스 이름(database.name)은 필수입니다")
			case "ShopConcurrency":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("쇼핑몰 동시 처리 개수(scan.shop_concurrency)는 1 이상이어야 합니다: '%v'", firstErr.Value()))
			case "ProductConcurrency":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("상품 동시 처리 개수(scan.product_concurrency)는 1 이상이어야 합니다: '%v'", firstErr.Value()))
			case "MaxRetryAttempts":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 재시도 횟수(scan.max_retry_attempts)는 0 이상이어야 합니다: '%v'", firstErr.Value()))
			}

			// 태그별(Tag) 커스텀 에러 처리 (범용)
			switch firstErr.Tag() {
			case "mongodb_uri":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("데이터베이스 연결 주소(database.uri)는 mongodb:// 또는 mongodb+srv:// 로 시작해야 합니다: '%v'", firstErr.Value()))
			case "proxy_url":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("프록시 주소(scan.proxy_url)가 올바른 URL 형식이 아닙니다: '%v'", firstErr.Value()))
			}

			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}
	return nil
}
