package main

import (
	"strings"
	"testing"

	"github.com/darkkaiser/price-scanner/internal/config"
	"github.com/darkkaiser/price-scanner/internal/pkg/version"
	"github.com/stretchr/testify/assert"
)

// TestAppMetadata는 애플리케이션의 기본 메타데이터 설정이 올바른지 검증합니다.
func TestAppMetadata(t *testing.T) {
	t.Parallel()

	t.Run("AppName 검증", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "price-scanner", config.AppName, "애플리케이션 이름은 'price-scanner'여야 합니다")
		assert.NotContains(t, config.AppName, " ", "애플리케이션 이름에는 공백이 포함될 수 없습니다")
	})

	t.Run("ConfigFileName 검증", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "price-scanner.json", config.DefaultFilename)
	})

	t.Run("Version 검증", func(t *testing.T) {
		t.Parallel()
		assert.NotEmpty(t, version.Version(), "버전 정보는 비어있을 수 없습니다")
	})
}

// TestBanner는 시작 배너의 포맷 문자열이 버전 하나만 받는지 검증합니다.
func TestBanner(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, strings.Count(banner, "%s"))
	assert.Equal(t, 1, strings.Count(banner, "%"), "배너에는 버전 자리 외의 포맷 지시자가 없어야 합니다")
}
