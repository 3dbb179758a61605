package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep 실제 대기 없이 대기 시간만 기록하는 sleep 대체 함수를 만듭니다.
func recordingSleep(waits *[]time.Duration) func(ctx context.Context, d time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
}

// TestRetryFetcher_BackoffSchedule 429 -> 500 -> 200 순서로 응답하는 서버에 대해
// 시간표(즉시, 2초, 5초)대로 재시도하여 성공해야 합니다.
func TestRetryFetcher_BackoffSchedule(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusTooManyRequests)
		case 2:
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte("ok"))
		}
	}))
	defer server.Close()

	base, err := NewHTTPFetcher()
	require.NoError(t, err)

	// MAX_RETRY_ATTEMPTS=2 ⇒ 총 3회 시도
	retry := NewRetryFetcher(NewStatusCheckFetcher(base), 2)

	var waits []time.Duration
	retry.sleep = recordingSleep(&waits)
	defer retry.Close()

	resp, err := Get(context.Background(), retry, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second, 5 * time.Second}, waits)
}

// TestRetryFetcher_ExhaustsAttempts 모든 시도가 실패하면 마지막 에러를 반환합니다.
func TestRetryFetcher_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	base, err := NewHTTPFetcher()
	require.NoError(t, err)

	retry := NewRetryFetcher(NewStatusCheckFetcher(base), 1)
	var waits []time.Duration
	retry.sleep = recordingSleep(&waits)
	defer retry.Close()

	_, err = Get(context.Background(), retry, server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []time.Duration{2 * time.Second}, waits)
}

// TestRetryFetcher_NonRetryableStatus 404는 재시도 없이 즉시 실패해야 합니다.
func TestRetryFetcher_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	base, err := NewHTTPFetcher()
	require.NoError(t, err)

	retry := NewRetryFetcher(NewStatusCheckFetcher(base), 3)
	defer retry.Close()

	_, err = Get(context.Background(), retry, server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

// TestRetryFetcher_RetryableStatus403 403은 봇 차단 오탐일 수 있으므로 재시도합니다.
func TestRetryFetcher_RetryableStatus403(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	base, err := NewHTTPFetcher()
	require.NoError(t, err)

	retry := NewRetryFetcher(NewStatusCheckFetcher(base), 1)
	var waits []time.Duration
	retry.sleep = recordingSleep(&waits)
	defer retry.Close()

	resp, err := Get(context.Background(), retry, server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, int32(2), calls.Load())
}

// TestRetryFetcher_ContextCanceled 취소된 컨텍스트의 요청은 재시도하지 않습니다.
func TestRetryFetcher_ContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	base, err := NewHTTPFetcher()
	require.NoError(t, err)

	retry := NewRetryFetcher(NewStatusCheckFetcher(base), 5)
	defer retry.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Get(ctx, retry, server.URL)
	require.Error(t, err)
}

func TestBackoffDelay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2*time.Second, backoffDelay(1))
	assert.Equal(t, 5*time.Second, backoffDelay(2))
	// 시간표를 넘어서는 시도는 마지막 값을 재사용
	assert.Equal(t, 5*time.Second, backoffDelay(3))
	assert.Equal(t, 5*time.Second, backoffDelay(10))
}
