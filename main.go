package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerniceZTT/outreach_crm/config"
	"github.com/BerniceZTT/outreach_crm/controllers"
	"github.com/BerniceZTT/outreach_crm/metrics"
	"github.com/BerniceZTT/outreach_crm/repository"
	"github.com/BerniceZTT/outreach_crm/routes"
	"github.com/BerniceZTT/outreach_crm/service"
	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		// 로거 초기화 전에 실패할 수 있으므로 표준 에러에도 남긴다
		utils.Logger.Error().Err(err).Msg("서버 실행 실패")
		fmt.Fprintln(os.Stderr, "서버 실행 실패:", err)
		os.Exit(1)
	}
}

func run() error {
	// 설정 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// 로그 초기화
	utils.InitLogger(cfg)

	if cfg.Debug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 저장소 연결
	store, err := repository.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			utils.Logger.Error().Err(err).Msg("저장소 종료 실패")
		}
	}()

	// 초기 데이터
	utils.Logger.Info().Msg("시스템 초기화 시작")
	if err := store.Initialize(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("컬렉션 초기화 실패")
	}
	if err := repository.InitializeAdminAccount(ctx, store, cfg); err != nil {
		utils.Logger.Error().Err(err).Msg("관리자 계정 초기화 실패")
	}
	utils.Logger.Info().Msg("시스템 초기화 완료")

	// 세션 저장소
	kv, closeKV, err := openSessionKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeKV()

	sessions := service.NewSessionStore(kv, repository.NewUserRepository(store), service.SessionOptions{
		SigningKey:    cfg.JWTKey,
		TTL:           cfg.SessionTTL,
		CheckInterval: cfg.SessionCheckInterval,
	})

	handler := controllers.NewHandler(cfg, store, sessions, metrics.New())
	router := routes.NewRouter(handler)

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// 세션 알림 웹소켓은 오래 열려 있으므로 WriteTimeout 을 두지 않는다
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		utils.Logger.Info().Msgf("서버 시작, 포트: %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("서버 시작 실패: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		utils.Logger.Info().Msg("서버 종료 중...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	utils.Logger.Info().Msg("서버 정상 종료")
	return nil
}

// openSessionKV 설정된 드라이버로 세션 키-값 저장소 생성
func openSessionKV(ctx context.Context, cfg *config.Config) (service.KeyValueStore, func(), error) {
	if cfg.SessionDriver == "memory" {
		utils.Logger.Warn().Msg("메모리 세션 저장소 사용 중: 재시작하면 모든 세션이 만료됩니다")
		return service.NewMemoryKV(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}

	utils.Logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis 연결 성공")
	return service.NewRedisKV(client), func() {
		if err := client.Close(); err != nil {
			utils.Logger.Error().Err(err).Msg("Redis 종료 실패")
		}
	}, nil
}
