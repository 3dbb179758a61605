package fetcher

import (
	"context"
	"errors"
	"net/http"
	"time"

	applog "github.com/darkkaiser/price-scanner/pkg/log"
)

const component = "scan.fetcher"

// retryBackoff 재시도 전 대기 시간표입니다. 첫 시도는 즉시, 2번째 시도 전 2초,
// 3번째 시도 전 5초를 대기하며, 그 이후의 시도는 마지막 값을 재사용합니다.
var retryBackoff = []time.Duration{2 * time.Second, 5 * time.Second}

// RetryFetcher HTTP 요청 실패 시 자동으로 재시도하는 미들웨어입니다.
//
// 재시도 대상:
//   - 네트워크 오류 (타임아웃, DNS 실패, 연결 거부 등)
//   - 403 Forbidden (봇 차단 오탐), 429 Too Many Requests, 5xx 서버 에러
//
// 재시도 제외:
//   - 컨텍스트 취소/만료
//   - 그 외 4xx 클라이언트 에러 (404 등)
type RetryFetcher struct {
	delegate Fetcher

	// maxRetries 최대 재시도 횟수 (0이면 재시도하지 않음, 총 시도 = maxRetries+1)
	maxRetries int

	// sleep 대기 함수. 테스트에서 실제 대기 없이 시간표를 검증할 수 있도록
	// 교체 가능합니다.
	sleep func(ctx context.Context, d time.Duration) error
}

// 컴파일 타임에 인터페이스 구현 여부를 검증합니다.
var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher 새로운 RetryFetcher 인스턴스를 생성합니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int) *RetryFetcher {
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &RetryFetcher{
		delegate:   delegate,
		maxRetries: maxRetries,
		sleep:      sleepContext,
	}
}

// Do HTTP 요청을 수행하며, 재시도 대상 실패에 한해 시간표에 따라 재시도합니다.
func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoffDelay(attempt)

			applog.WithComponentAndFields(component, applog.Fields{
				"url":     req.URL.Redacted(),
				"attempt": attempt + 1,
				"wait":    wait.String(),
			}).Debug("요청 실패로 재시도를 대기합니다")

			if err := f.sleep(req.Context(), wait); err != nil {
				return nil, err
			}
		}

		resp, err := f.delegate.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(req.Context(), err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (f *RetryFetcher) Close() error {
	return f.delegate.Close()
}

// backoffDelay n번째 재시도(1부터 시작) 전 대기 시간을 반환합니다.
func backoffDelay(attempt int) time.Duration {
	if attempt > len(retryBackoff) {
		return retryBackoff[len(retryBackoff)-1]
	}
	return retryBackoff[attempt-1]
}

// isRetryable 실패 원인이 재시도할 가치가 있는지 판단합니다.
func isRetryable(ctx context.Context, err error) bool {
	// 호출자가 취소한 요청은 재시도하지 않는다.
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	// 상태 코드 에러는 코드로 판단하고, 그 외(네트워크 계열)는 모두 재시도한다.
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}

// sleepContext 컨텍스트 취소를 감지하며 지정된 시간 동안 대기합니다.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
