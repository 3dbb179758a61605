// Package config 애플리케이션 설정 파일의 로드와 검증을 담당합니다.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "price-scanner"

	// DefaultFilename 애플리케이션 초기화 시 참조하는 기본 설정 파일명입니다.
	// 실행 인자를 통해 명시적인 경로가 제공되지 않을 경우, 시스템은 이 파일을 탐색하여 구성을 로드합니다.
	DefaultFilename = AppName + ".json"

	// envPrefix 환경 변수로 설정을 덮어쓸 때 사용하는 접두사입니다.
	envPrefix = "PRICESCAN_"

	// maxRetryAttemptsEnv 하위 호환을 위해 접두사 없이 지원하는 재시도 횟수 환경 변수입니다.
	// 설정 파일과 PRICESCAN_ 환경 변수보다 우선합니다.
	maxRetryAttemptsEnv = "MAX_RETRY_ATTEMPTS"

	// ------------------------------------------------------------------------------------------------
	// 스캔 동작 기본값
	// ------------------------------------------------------------------------------------------------

	// DefaultShopConcurrency 정적 엔진 쇼핑몰의 동시 처리 개수 기본값
	DefaultShopConcurrency = 10

	// DefaultProductConcurrency 쇼핑몰 내 상품의 동시 처리 개수 기본값
	DefaultProductConcurrency = 3

	// DefaultMaxRetryAttempts HTTP 요청 실패 시 최대 재시도 횟수 기본값 (총 시도 횟수 = 재시도 + 1)
	DefaultMaxRetryAttempts = 1

	// DefaultConnectTimeout 데이터베이스 연결 대기 시간 기본값
	DefaultConnectTimeout = "10s"
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug    bool           `json:"debug"`
	Database DatabaseConfig `json:"database"`
	ShopsDir string         `json:"shops_dir" validate:"required"`
	Scan     ScanConfig     `json:"scan"`
}

// DatabaseConfig 상품 카탈로그와 알림 상태를 보관하는 문서 저장소 연결 설정
type DatabaseConfig struct {
	URI            string `json:"uri" validate:"required,mongodb_uri"`
	Name           string `json:"name" validate:"required"`
	ConnectTimeout string `json:"connect_timeout"`
}

// ConnectTimeoutDuration 연결 대기 시간을 time.Duration으로 반환합니다.
// 값은 validate에서 이미 검증되었으므로 파싱 실패 시 기본값을 사용합니다.
func (c *DatabaseConfig) ConnectTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ConnectTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultConnectTimeout)
	}
	return d
}

// ScanConfig 스캔 사이클의 동시성과 네트워크 동작을 제어하는 설정
type ScanConfig struct {
	// ShopConcurrency 정적 엔진 쇼핑몰을 동시에 처리할 개수
	ShopConcurrency int `json:"shop_concurrency" validate:"min=1"`

	// ProductConcurrency 쇼핑몰 하나 안에서 상품을 동시에 처리할 개수.
	// 쇼핑몰 설정의 max_concurrency가 이 값을 덮어쓸 수 있습니다.
	ProductConcurrency int `json:"product_concurrency" validate:"min=1"`

	// MaxRetryAttempts HTTP 요청 실패 시 재시도 횟수 (0이면 재시도하지 않음)
	MaxRetryAttempts int `json:"max_retry_attempts" validate:"min=0"`

	// ProxyURL use_proxy가 설정된 쇼핑몰의 요청을 보낼 프록시 주소 (선택)
	ProxyURL string `json:"proxy_url" validate:"omitempty,proxy_url"`

	// UngroupedSearch 세트가 없는 상품을 상품별 개별 검색으로 처리할지 여부
	UngroupedSearch bool `json:"ungrouped_search"`
}

// TotalAttempts 첫 시도를 포함한 HTTP 요청의 총 시도 횟수를 반환합니다.
func (c *ScanConfig) TotalAttempts() int {
	return c.MaxRetryAttempts + 1
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate() error {
	if err := checkStruct(validate, c, "애플리케이션 설정"); err != nil {
		return err
	}

	if _, err := time.ParseDuration(c.Database.ConnectTimeout); err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("데이터베이스 연결 대기 시간(connect_timeout) 설정이 올바르지 않습니다: '%s' (예: 10s, 500ms)", c.Database.ConnectTimeout))
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	// 쇼핑몰 동시 처리 개수가 너무 크면 대상 쇼핑몰에 부담을 줄 수 있음
	if c.Scan.ShopConcurrency > DefaultShopConcurrency {
		warnings = append(warnings, fmt.Sprintf("쇼핑몰 동시 처리 개수(shop_concurrency: %d)가 권장 상한(%d)을 초과했습니다. 대상 쇼핑몰의 차단 정책에 걸릴 수 있습니다", c.Scan.ShopConcurrency, DefaultShopConcurrency))
	}

	// 재시도 횟수가 많으면 백오프 대기 시간 때문에 사이클이 과도하게 길어질 수 있음
	if c.Scan.MaxRetryAttempts > 3 {
		warnings = append(warnings, fmt.Sprintf("HTTP 재시도 횟수(max_retry_attempts: %d)가 많습니다. 백오프 대기 시간으로 인해 사이클 실행 시간이 길어질 수 있습니다", c.Scan.MaxRetryAttempts))
	}

	// 평문 프록시는 요청 내용이 노출될 수 있음
	if strings.HasPrefix(c.Scan.ProxyURL, "http://") {
		warnings = append(warnings, "프록시(proxy_url)가 평문 HTTP로 설정되었습니다. 가능하면 HTTPS 프록시 사용을 권장합니다")
	}

	return warnings
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	// 1. 기본값 로드 (가장 낮은 우선순위)
	err := k.Load(confmap.Provider(map[string]interface{}{
		"database.connect_timeout": DefaultConnectTimeout,
		"scan.shop_concurrency":    DefaultShopConcurrency,
		"scan.product_concurrency": DefaultProductConcurrency,
		"scan.max_retry_attempts":  DefaultMaxRetryAttempts,
		"scan.ungrouped_search":    true,
	}, "."), nil)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	// 2. JSON 설정 파일 로드 (기본값 덮어쓰기)
	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("설정 파일을 찾을 수 없습니다: '%s'", filename))
		}
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
	}

	// 3. 환경 변수 로드 (최우선 순위, JSON 설정 덮어쓰기)
	if err := k.Load(env.Provider(envPrefix, ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	// 4. 구조체 언마샬링 (Strict Validation 적용)
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true, // 파일에 존재하지만 구조체에 없는 필드가 있을 경우 에러를 발생시킴
			WeaklyTypedInput: true,
		},
	}
	var appConfig AppConfig
	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	// 5. 접두사 없는 MAX_RETRY_ATTEMPTS 환경 변수 적용 (최우선)
	if err := applyMaxRetryAttemptsEnv(&appConfig); err != nil {
		return nil, err
	}

	// 6. 유효성 검사 수행 (정합성 체크)
	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

// normalizeEnvKey 환경 변수 이름을 koanf 설정 키로 변환합니다.
//
// 접두사(PRICESCAN_)를 제거하고 소문자로 변환한 뒤, 계층 구분자인 이중 언더스코어(__)를 점(.)으로 치환합니다.
// 예: PRICESCAN_SCAN__SHOP_CONCURRENCY -> scan.shop_concurrency
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// applyMaxRetryAttemptsEnv 접두사 없는 MAX_RETRY_ATTEMPTS 환경 변수가 설정되어 있으면
// 재시도 횟수를 덮어씁니다.
func applyMaxRetryAttemptsEnv(cfg *AppConfig) error {
	value, ok := os.LookupEnv(maxRetryAttemptsEnv)
	if !ok {
		return nil
	}

	attempts, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || attempts < 0 {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("환경 변수 %s 값이 올바르지 않습니다: '%s' (0 이상의 정수여야 합니다)", maxRetryAttemptsEnv, value))
	}

	cfg.Scan.MaxRetryAttempts = attempts
	return nil
}
