package shop

import (
	"fmt"
	"reflect"
	"strings"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/go-playground/validator/v10"
)

// validate 쇼핑몰 설정 검증에 사용하는 패키지 전역 Validator 인스턴스입니다.
var validate = newValidator()

// newValidator 새로운 Validator 인스턴스를 생성합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 검증 에러가 났을 때, 에러 메시지에 Go 구조체 필드명(예: SearchURL) 대신 JSON 이름(예: search_url)을 보여주도록 설정합니다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// checkStruct 구조체의 유효성을 검사하고, 사용자 친화적인 에러 메시지를 반환합니다.
func checkStruct(v *validator.Validate, s interface{}, contextName string) error {
	if err := v.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			// 첫 번째 에러만 상세히 보고
			firstErr := validationErrors[0]

			switch firstErr.StructField() {
			case "Kind":
				if strings.Contains(firstErr.StructNamespace(), "Engine") {
					return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 엔진 종류(engine.kind)는 static 또는 rendered여야 합니다: '%v'", contextName, firstErr.Value()))
				}
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 셀렉터 종류(kind)는 css, xpath, text, json-attr 중 하나여야 합니다: '%v'", contextName, firstErr.Value()))
			case "Availability":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 상품 페이지 재고 셀렉터(availability)는 최소 1개 이상이어야 합니다", contextName))
			case "Attribute", "Path":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 json-attr 셀렉터에는 attribute와 path가 모두 필요합니다", contextName))
			case "PriceLocale":
				return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 가격 로케일(price_locale)은 eu 또는 us여야 합니다: '%v'", contextName, firstErr.Value()))
			}

			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
		}
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}
	return nil
}
