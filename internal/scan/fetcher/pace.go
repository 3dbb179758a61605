package fetcher

import (
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// jitterRatio 기본 지연에 적용하는 지터의 비율(±30%)입니다.
const jitterRatio = 0.3

// PacedFetcher 쇼핑몰별 요청 간격을 강제하는 미들웨어입니다.
//
// 같은 쇼핑몰을 향한 요청은 Phase 2에서 여러 고루틴이 동시에 보내므로,
// 쇼핑몰 하나당 rate.Limiter 하나를 공유하여 설정된 기본 지연 간격을 전체
// 태스크에 걸쳐 유지합니다. 각 요청에는 기본 지연의 ±30% 범위에서 무작위
// 지터가 더해져 규칙적인 요청 패턴이 만들어지는 것을 막습니다.
type PacedFetcher struct {
	delegate Fetcher

	// limiter 쇼핑몰 단위로 공유되는 요청 간격 제한기 (nil이면 제한 없음)
	limiter *rate.Limiter

	// baseDelay 지터 계산의 기준이 되는 기본 지연
	baseDelay time.Duration

	// sleep 테스트에서 교체 가능한 대기 함수
	sleep func(d time.Duration)
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*PacedFetcher)(nil)

// NewShopLimiter 쇼핑몰 하나의 요청 간격 제한기를 생성합니다.
// 같은 쇼핑몰의 모든 PacedFetcher가 이 제한기를 공유해야 합니다.
func NewShopLimiter(baseDelay time.Duration) *rate.Limiter {
	if baseDelay <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(baseDelay), 1)
}

// NewPacedFetcher 새로운 PacedFetcher 인스턴스를 생성합니다.
// limiter가 nil이면 간격 제어 없이 그대로 전달합니다.
func NewPacedFetcher(delegate Fetcher, limiter *rate.Limiter, baseDelay time.Duration) *PacedFetcher {
	return &PacedFetcher{
		delegate:  delegate,
		limiter:   limiter,
		baseDelay: baseDelay,
		sleep:     time.Sleep,
	}
}

// Do 요청 간격을 확보한 뒤 HTTP 요청을 수행합니다.
func (f *PacedFetcher) Do(req *http.Request) (*http.Response, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	if jitter := f.jitterDelay(); jitter > 0 {
		f.sleep(jitter)
	}

	return f.delegate.Do(req)
}

func (f *PacedFetcher) Close() error {
	return f.delegate.Close()
}

// jitterDelay 기본 지연의 0 ~ +30% 범위에서 추가 대기 시간을 고릅니다.
// -30% 방향의 지터는 limiter가 이미 확보한 간격을 줄일 수 없으므로, 간격의
// 실제 분포는 기본 지연의 70%~130%가 아닌 100%~130%가 됩니다. 규칙적인 패턴을
// 깨뜨린다는 목적에는 동일하게 부합합니다.
func (f *PacedFetcher) jitterDelay() time.Duration {
	if f.baseDelay <= 0 {
		return 0
	}
	return time.Duration(rand.Float64() * jitterRatio * float64(f.baseDelay))
}
