package shop

import (
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validShopJSON = `{
  "id": "card-market",
  "name": "Card Market",
  "base_url": "https://cardmarket.example.com",
  "search_url": "https://cardmarket.example.com/search?q={query}",
  "direct_hit_url": "^https://cardmarket\\.example\\.com/product/",
  "price_locale": "eu",
  "engine": {
    "kind": "static",
    "options": {"timeout": "15s"}
  },
  "delay_ms": 800,
  "max_concurrency": 2,
  "selectors": {
    "search": {
      "article": {"kind": "css", "value": "div.search-result"},
      "title": {"kind": "css", "value": "a.title"},
      "product_url": {"kind": "css", "value": "a.title", "extract": "href"},
      "price": {"kind": "css", "value": "span.price"},
      "availability": [{"kind": "css", "value": ".in-stock"}]
    },
    "product": {
      "title": {"kind": "css", "value": "h1.product-title"},
      "price": {"kind": "css", "value": ".price-box .price", "fallbacks": [".price"]},
      "availability": [
        {"kind": "css", "value": "button.add-to-cart"},
        {"kind": "text", "value": "auf lager"}
      ]
    }
  }
}`

const renderedShopJSON = `{
  "id": "toy-world",
  "name": "Toy World",
  "base_url": "https://toyworld.example.com",
  "search_url": "https://toyworld.example.com/search/",
  "engine": {
    "kind": "rendered",
    "options": {"settle_delay": "300ms", "blocked_resources": "image,font"}
  },
  "selectors": {
    "search": {
      "article": {"kind": "css", "value": "li.product"},
      "title": {"kind": "css", "value": ".product-name"},
      "product_url": {"kind": "css", "value": "a", "extract": "href"}
    },
    "product": {
      "title": {"kind": "css", "value": "h1"},
      "price": {"kind": "css", "value": ".price"},
      "availability": [{"kind": "json-attr", "value": "div[data-stock]", "attribute": "data-stock", "path": "available", "expected": "true"}]
    }
  }
}`

func writeShopFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("정상 로드 및 ID 정렬", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeShopFile(t, dir, "toy-world.json", renderedShopJSON)
		writeShopFile(t, dir, "card-market.json", validShopJSON)

		configs, err := Load(dir)
		require.NoError(t, err)
		require.Len(t, configs, 2)

		assert.Equal(t, "card-market", configs[0].ID.String())
		assert.Equal(t, "toy-world", configs[1].ID.String())

		assert.True(t, configs[0].MatchesDirectHit("https://cardmarket.example.com/product/123"))
		assert.Equal(t, 2, configs[0].EffectiveConcurrency(3))
		assert.True(t, configs[1].Rendered())
		assert.Equal(t, "300ms", configs[1].Engine.Options["settle_delay"])
	})

	t.Run("비활성화된 쇼핑몰 제외", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeShopFile(t, dir, "card-market.json", validShopJSON)

		disabled := renderedShopJSON[:len(renderedShopJSON)-1] + `,"disabled": true}`
		writeShopFile(t, dir, "toy-world.json", disabled)

		configs, err := Load(dir)
		require.NoError(t, err)
		require.Len(t, configs, 1)
		assert.Equal(t, "card-market", configs[0].ID.String())
	})

	t.Run("JSON 이외의 파일과 하위 디렉터리 무시", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeShopFile(t, dir, "card-market.json", validShopJSON)
		writeShopFile(t, dir, "README.md", "# shops")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o700))

		configs, err := Load(dir)
		require.NoError(t, err)
		assert.Len(t, configs, 1)
	})

	t.Run("중복 ID는 설정 오류", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeShopFile(t, dir, "a.json", validShopJSON)
		writeShopFile(t, dir, "b.json", validShopJSON)

		_, err := Load(dir)
		require.Error(t, err)
		assert.Equal(t, apperrors.Conflict, apperrors.UnderlyingType(err))
		assert.Contains(t, err.Error(), "card-market")
	})

	t.Run("구조체에 없는 필드는 오류", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		unknown := validShopJSON[:len(validShopJSON)-1] + `,"serach_url": "oops"}`
		writeShopFile(t, dir, "card-market.json", unknown)

		_, err := Load(dir)
		require.Error(t, err)
		assert.Equal(t, apperrors.InvalidInput, apperrors.UnderlyingType(err))
	})

	t.Run("존재하지 않는 디렉터리", func(t *testing.T) {
		t.Parallel()

		_, err := Load(filepath.Join(t.TempDir(), "no-such-dir"))
		require.Error(t, err)
		assert.Equal(t, apperrors.System, apperrors.UnderlyingType(err))
	})

	t.Run("검증 실패 파일", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writeShopFile(t, dir, "bad.json", `{"id": "bad", "name": "Bad"}`)

		_, err := Load(dir)
		require.Error(t, err)
		assert.Equal(t, apperrors.InvalidInput, apperrors.UnderlyingType(err))
	})
}
