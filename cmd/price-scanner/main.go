package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/darkkaiser/price-scanner/internal/config"
	"github.com/darkkaiser/price-scanner/internal/pkg/version"
	"github.com/darkkaiser/price-scanner/internal/scan"
	"github.com/darkkaiser/price-scanner/internal/storage"
	applog "github.com/darkkaiser/price-scanner/pkg/log"
	log "github.com/sirupsen/logrus"
)

const (
	banner = `
  ____         _              ____
 |  _ \  _ __ (_)  ___  ___  / ___|   ___  __ _  _ __   _ __    ___  _ __
 | |_) || '__|| | / __|/ _ \ \___ \  / __|/ _' || '_ \ | '_ \  / _ \| '__|
 |  __/ | |   | || (__|  __/  ___) || (__| (_| || | | || | | ||  __/| |
 |_|    |_|   |_| \___|\___| |____/  \___|\__,_||_| |_||_| |_| \___||_|
                                                             %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	configFile := flag.String("config", config.DefaultFilename, "설정 파일 경로")
	showVersion := flag.Bool("version", false, "버전 정보를 출력하고 종료")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Get().String())
		return
	}

	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := config.LoadWithFile(*configFile)
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 스캔 실행을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}
	defer appLogCloser.Close()

	// 3. 로그 레벨 최종 확정
	applog.SetDebugMode(appConfig.Debug)

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	buildInfo := version.Get()
	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields("main", log.Fields{
		"version":  buildInfo.String(),
		"env":      map[bool]string{true: "development", false: "production"}[appConfig.Debug],
		"database": applog.MaskSensitiveData(appConfig.Database.URI),
	}).Info("스캔 사이클 초기화 시작")

	// 권장 설정 위반은 경고로만 남기고 실행은 계속한다.
	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(warning)
	}

	if err := run(appConfig); err != nil {
		applog.WithComponentAndFields("main", log.Fields{
			"error": err,
		}).Error("스캔 사이클 실행 실패")
		os.Exit(1)
	}

	applog.WithComponent("main").Info("스캔 사이클 완료")
}

// run 저장소에 연결하고 스캔 사이클을 한 번 수행합니다.
// 주기적인 실행은 OS 스케줄러(cron 등)가 담당합니다.
func run(appConfig *config.AppConfig) error {
	// 종료 시그널을 받으면 컨텍스트 취소로 진행 중인 사이클을 중단한다.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, disconnect, err := storage.Connect(ctx, appConfig.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := disconnect(context.Background()); err != nil {
			applog.WithComponent("main").Warnf("데이터베이스 연결 해제에 실패하였습니다. (error:%v)", err)
		}
	}()

	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	return scan.NewDriver(appConfig, store).Run(ctx)
}
