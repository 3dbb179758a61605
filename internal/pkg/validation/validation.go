// Package validation 설정 값 검증에 사용하는 공용 검사 함수들을 제공합니다.
package validation

import (
	"fmt"
	"net/url"
	"os"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	log "github.com/sirupsen/logrus"
)

// ValidateFileExists 파일 존재 여부를 검사합니다.
// warnOnly가 true면 경고만 출력하고 에러는 반환하지 않습니다.
func ValidateFileExists(path string, warnOnly bool) error {
	if path == "" {
		return nil // 빈 경로는 검사하지 않음
	}

	_, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			errMsg := apperrors.New(apperrors.NotFound, fmt.Sprintf("파일이 존재하지 않습니다: %s", path))
			if warnOnly {
				applog.WithComponentAndFields("validation", log.Fields{
					"file_path": path,
				}).Warn(errMsg.Error())
				return nil
			}
			return errMsg
		}
		return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("파일 접근 오류: %s", path))
	}
	return nil
}

// ValidateDirExists 디렉터리 존재 여부를 검사합니다.
func ValidateDirExists(path string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.New(apperrors.NotFound, fmt.Sprintf("디렉터리가 존재하지 않습니다: %s", path))
		}
		return apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("디렉터리 접근 오류: %s", path))
	}
	if !info.IsDir() {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("디렉터리가 아닙니다: %s", path))
	}
	return nil
}

// ValidateURL URL 형식의 유효성을 검사합니다. 빈 문자열은 검사하지 않습니다.
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return nil
	}

	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("잘못된 URL 형식입니다: %s", urlStr))
	}

	// Scheme 검증 (http 또는 https만 허용)
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("URL은 http 또는 https 스키마를 사용해야 합니다: %s", urlStr))
	}

	// Host 검증
	if parsedURL.Host == "" {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("URL에 호스트가 없습니다: %s", urlStr))
	}

	return nil
}
