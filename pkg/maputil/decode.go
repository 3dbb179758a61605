// Package maputil 맵(Map) 데이터를 타입이 있는 구조체로 변환하는 유틸리티 기능을 제공합니다.
//
// 쇼핑몰 설정 파일의 엔진 옵션처럼 스키마가 엔진 종류에 따라 달라지는 동적 맵 데이터를
// 각 엔진의 옵션 구조체로 안전하게 디코딩하는 데 사용됩니다.
package maputil

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode 입력된 맵(Map)이나 인터페이스 데이터를 지정된 제네릭 타입 T의 구조체로 변환하여 반환합니다.
//
// 내부적으로 `mapstructure` 라이브러리를 활용하며, 기본 설정은 다음과 같습니다.
//   - 유연한 타입 변환 (Weakly Typed): "3" -> 3 (int), 1 -> true (bool) 등 타입을 자동으로 보정합니다.
//   - 태그 지원: 구조체의 `json` 태그를 기준으로 필드를 매핑합니다.
//   - 전용 훅: "300ms" -> time.Duration, "a,b" -> []string 변환이 내장되어 있습니다.
//
// 기본적으로 구조체에 정의되지 않은 필드는 에러 없이 무시됩니다. 설정 파일의 오타를
// 잡아내려면 WithErrorUnused(true) 옵션을 사용하십시오.
//
// [사용 예시]
//
//	opts, err := maputil.Decode[RenderedOptions](shopCfg.Engine.Options,
//	    maputil.WithErrorUnused(true),
//	)
func Decode[T any](input any, opts ...Option) (*T, error) {
	output := new(T)
	if err := DecodeTo(input, output, opts...); err != nil {
		return nil, err
	}
	return output, nil
}

// DecodeTo 입력된 데이터를 대상 구조체 포인터(output)에 디코딩하여 값을 채웁니다.
//
// output 인자는 반드시 `nil`이 아닌 포인터여야 합니다. 기존 output 구조체에 값이 있다면
// 유지하면서 입력 데이터와 병합(Merge)하므로, 기본값이 채워진 구조체에 덮어쓰는 방식으로
// 사용할 수 있습니다. 완전한 초기화 후 디코딩을 원한다면 WithZeroFields(true) 옵션을
// 사용하십시오.
func DecodeTo[T any](input any, output *T, opts ...Option) error {
	if output == nil {
		return errors.New("디코딩 결과를 저장할 output 포인터가 nil입니다")
	}

	cfg := &decodingConfig{
		tagName:          "json",
		weaklyTypedInput: true,
		errorUnused:      false,
		zeroFields:       false,
		trimSpace:        true,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	if cfg.zeroFields {
		var zero T
		*output = zero
	}

	msConfig := &mapstructure.DecoderConfig{
		Result:  output,
		TagName: cfg.tagName,

		WeaklyTypedInput: cfg.weaklyTypedInput,
		ErrorUnused:      cfg.errorUnused,

		// 공통 옵션을 임베딩한 엔진 옵션 구조체를 상위 맵 필드와 바로 매핑할 수 있도록
		// 평탄화를 항상 활성화합니다.
		Squash: true,

		DecodeHook: cfg.buildDecodeHook(),
	}

	decoder, err := mapstructure.NewDecoder(msConfig)
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("입력 데이터를 %T(으)로 디코딩하는 데 실패했습니다: %w", output, err)
	}

	return nil
}

// decodingConfig 디코딩에 필요한 옵션을 한곳에 모아 관리하는 비공개 설정 구조체입니다.
type decodingConfig struct {
	tagName string

	weaklyTypedInput bool
	errorUnused      bool
	zeroFields       bool
	trimSpace        bool

	extraHooks []mapstructure.DecodeHookFunc
}

// buildDecodeHook 설정된 옵션을 기반으로 mapstructure.DecodeHookFunc 체인을 조립합니다.
//
// 실행 순서는 [사용자 정의 훅] -> [기본 내장 훅] 순이며, 매 호출마다 독립적인 체인을
// 구성하므로 전역 상태가 없습니다.
func (c *decodingConfig) buildDecodeHook() mapstructure.DecodeHookFunc {
	hooks := make([]mapstructure.DecodeHookFunc, 0, len(c.extraHooks)+3)

	if len(c.extraHooks) > 0 {
		hooks = append(hooks, c.extraHooks...)
	}

	hooks = append(hooks,
		mapstructure.TextUnmarshallerHookFunc(),
		stringToDurationHookFunc(),
		stringToSliceHookFunc(c.trimSpace),
	)

	return mapstructure.ComposeDecodeHookFunc(hooks...)
}

// Option 디코딩 설정을 커스터마이징하기 위한 함수형 옵션 타입입니다.
type Option func(*decodingConfig)

// WithTagName 구조체 필드 매핑에 사용할 태그 이름을 지정합니다. (기본값: "json")
func WithTagName(tagName string) Option {
	return func(c *decodingConfig) {
		c.tagName = tagName
	}
}

// WithWeaklyTypedInput 타입이 달라도 가능한 경우 자동으로 변환할지 설정합니다. (기본값: true)
func WithWeaklyTypedInput(enable bool) Option {
	return func(c *decodingConfig) {
		c.weaklyTypedInput = enable
	}
}

// WithErrorUnused 대상 구조체에 없는 필드가 입력 데이터에 존재할 경우, 무시하지 않고
// 에러를 발생시킵니다. (기본값: false)
//
// 쇼핑몰 설정 파일의 옵션 키 오타가 조용히 무시되는 것을 방지하기 위해 설정 로딩
// 경로에서는 활성화하여 사용합니다.
func WithErrorUnused(enable bool) Option {
	return func(c *decodingConfig) {
		c.errorUnused = enable
	}
}

// WithDecodeHook 기본 제공되는 변환 로직 외에 사용자 정의 변환 훅(Hook)을 추가합니다.
// 추가된 훅들은 기본 훅보다 먼저 실행됩니다.
func WithDecodeHook(hooks ...mapstructure.DecodeHookFunc) Option {
	return func(c *decodingConfig) {
		c.extraHooks = append(c.extraHooks, hooks...)
	}
}

// WithZeroFields 디코딩 전에 대상 구조체의 모든 필드를 제로 값으로 초기화할지 설정합니다.
// true로 설정하면 병합(Merge)이 아니라 교체(Replace) 방식으로 동작합니다.
func WithZeroFields(enable bool) Option {
	return func(c *decodingConfig) {
		c.zeroFields = enable
	}
}

// WithTrimSpace 쉼표(,)로 구분된 문자열을 슬라이스로 변환할 때, 각 요소의 앞뒤 공백을
// 자동으로 제거할지 설정합니다. (기본값: true)
func WithTrimSpace(enable bool) Option {
	return func(c *decodingConfig) {
		c.trimSpace = enable
	}
}
