package fetcher

import (
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
)

// maxDrainBytes 커넥션 재사용을 위해 에러 응답 본문을 비울 때 읽는 최대 크기입니다.
const maxDrainBytes = 4 << 10

// StatusError 2xx가 아닌 HTTP 응답을 나타내는 구조화된 에러입니다.
// 재시도 미들웨어가 상태 코드로 재시도 여부를 판단할 수 있도록 코드를 보존합니다.
type StatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP 요청이 실패했습니다 (%s): %s", e.Status, e.URL)
}

// Retryable 재시도할 가치가 있는 상태 코드인지 확인합니다.
// 403(봇 차단 오탐), 408, 429(요청 제한), 5xx(일시적 서버 장애)가 대상입니다.
func (e *StatusError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusForbidden,
		e.StatusCode == http.StatusRequestTimeout,
		e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// CheckResponseStatus 응답 상태 코드가 2xx 범위인지 검사합니다.
// 범위를 벗어나면 본문을 비우고 닫은 뒤 StatusError를 반환합니다.
func CheckResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	url := ""
	if resp.Request != nil && resp.Request.URL != nil {
		url = resp.Request.URL.String()
	}

	drainAndCloseBody(resp.Body)

	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        url,
	}

	errType := apperrors.Unavailable
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && !statusErr.Retryable() {
		errType = apperrors.NotFound
	}

	return apperrors.Wrap(statusErr, errType, fmt.Sprintf("페이지 요청이 %s 응답으로 거부되었습니다", resp.Status))
}

// drainAndCloseBody 커넥션 재사용(Keep-Alive)이 가능하도록 응답 본문을 일부 읽어
// 비운 뒤 닫습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, body, maxDrainBytes)
	_ = body.Close()
}
