package shop

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/darkkaiser/price-scanner/internal/contract"
	apperrors "github.com/darkkaiser/price-scanner/internal/pkg/errors"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

// Load 지정된 디렉터리의 쇼핑몰 설정 파일(*.json)을 모두 읽어들입니다.
//
// 비활성화된 쇼핑몰은 결과에서 제외되며, 같은 ID를 가진 설정 파일이 두 개 이상
// 존재하면 설정 오류로 처리합니다. 반환 목록은 ID 기준 오름차순으로 정렬됩니다.
func Load(dir string) ([]*Config, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, fmt.Sprintf("쇼핑몰 설정 디렉터리를 읽을 수 없습니다: '%s'", dir))
	}

	logger := applog.WithComponent("shop")

	var configs []*Config
	seen := map[contract.ShopID]string{}
	disabledCount := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		cfg, err := loadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if prev, ok := seen[cfg.ID]; ok {
			return nil, apperrors.New(apperrors.Conflict, fmt.Sprintf("중복된 쇼핑몰 ID('%s')가 존재합니다: '%s', '%s'", cfg.ID, prev, entry.Name()))
		}
		seen[cfg.ID] = entry.Name()

		if cfg.Disabled {
			disabledCount++
			logger.WithField("shop_id", cfg.ID).Info("비활성화된 쇼핑몰을 건너뜁니다")
			continue
		}

		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ID < configs[j].ID
	})

	logger.WithFields(log.Fields{
		"enabled":  len(configs),
		"disabled": disabledCount,
	}).Info("쇼핑몰 설정 로드가 완료되었습니다")

	return configs, nil
}

// loadFile 쇼핑몰 설정 파일 하나를 읽고 검증합니다.
func loadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("쇼핑몰 설정 파일 로드 중 오류가 발생했습니다: '%s'", path))
	}

	// 구조체에 없는 필드가 파일에 존재하면 에러를 발생시켜 오타를 조기에 잡습니다.
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("쇼핑몰 설정 파일을 구조체로 변환하는데 실패했습니다: '%s'", path))
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("쇼핑몰 설정 파일('%s')의 유효성 검증에 실패했습니다", path))
	}

	return &cfg, nil
}
