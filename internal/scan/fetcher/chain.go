package fetcher

import (
	"time"

	"golang.org/x/time/rate"
)

// ChainConfig 표준 미들웨어 체인 구성에 필요한 설정입니다.
type ChainConfig struct {
	// MaxRetries 실패 시 재시도 횟수 (0이면 재시도 없음)
	MaxRetries int

	// ProxyURL 요청을 전달할 프록시 주소 (빈 문자열이면 직접 연결)
	ProxyURL string

	// Limiter 쇼핑몰 단위로 공유하는 요청 간격 제한기 (nil이면 간격 제어 없음)
	Limiter *rate.Limiter

	// BaseDelay 지터 계산의 기준 지연
	BaseDelay time.Duration

	// Timeout 요청 타임아웃 (0이면 기본값 15초)
	Timeout time.Duration

	// UserAgents User-Agent 후보 목록 (비어있으면 기본 목록)
	UserAgents []string
}

// NewChain 쇼핑몰 스크래핑용 표준 미들웨어 체인을 조립합니다.
//
//	PacedFetcher -> RetryFetcher -> StatusCheckFetcher -> UserAgentFetcher -> HTTPFetcher
//
// 페이싱이 재시도 바깥에 있으므로 재시도 요청에도 요청 간격이 적용되고,
// User-Agent 주입이 재시도 안쪽에 있으므로 시도마다 다른 User-Agent가 쓰입니다.
func NewChain(cfg ChainConfig) (Fetcher, error) {
	httpOpts := []HTTPOption{WithProxy(cfg.ProxyURL)}
	if cfg.Timeout > 0 {
		httpOpts = append(httpOpts, WithTimeout(cfg.Timeout))
	}

	base, err := NewHTTPFetcher(httpOpts...)
	if err != nil {
		return nil, err
	}

	var chain Fetcher = base
	chain = NewUserAgentFetcher(chain, cfg.UserAgents)
	chain = NewStatusCheckFetcher(chain)
	chain = NewRetryFetcher(chain, cfg.MaxRetries)
	chain = NewPacedFetcher(chain, cfg.Limiter, cfg.BaseDelay)

	return chain, nil
}
