package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"nebulavault/internal/config"
	"nebulavault/internal/handler/httpapi"
	"nebulavault/internal/registry/access"
	"nebulavault/internal/registry/filereg"
	"nebulavault/internal/registry/gateway"
	"nebulavault/internal/registry/proof"
	"nebulavault/internal/repository/blacklist"
	"nebulavault/internal/repository/credrepo"
	"nebulavault/internal/repository/filerepo"
	"nebulavault/internal/repository/refreshtoken"
	"nebulavault/internal/repository/userrepo"
	"nebulavault/internal/service/auth"
	"nebulavault/internal/storage/blob"
	"nebulavault/pkg/database/postgres"
	"nebulavault/pkg/database/redis"
	"nebulavault/pkg/logger"
)

func main() {
	ctx := context.Background()

	ctx, _ = logger.New(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.GetLogger(ctx).Fatal("failed to load config", zap.Error(err))
	}

	conn, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		logger.GetLogger(ctx).Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer conn.Close(ctx)

	redisClient := redis.New(cfg.Redis)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.GetLogger(ctx).Fatal("cannot connect to redis", zap.Error(err))
	}

	userRepo := userrepo.New(conn)
	fileRepo := filerepo.New(conn)
	credRepo := credrepo.New(conn)
	for _, init := range []func(context.Context) error{userRepo.Init, fileRepo.Init, credRepo.Init} {
		if err := init(ctx); err != nil {
			logger.GetLogger(ctx).Fatal("failed to initialize schema", zap.Error(err))
		}
	}

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		logger.GetLogger(ctx).Fatal("failed to connect to blob storage", zap.Error(err))
	}

	tokenRepo := refreshtoken.New(redisClient)
	blacklistRepo := blacklist.New(redisClient)
	authSvc := auth.New(credRepo, cfg.JWTSecret, tokenRepo, blacklistRepo)
	if err := authSvc.EnsureCredential(ctx, cfg.AdminIdentity, cfg.AdminSecret); err != nil {
		logger.GetLogger(ctx).Fatal("failed to seed admin credential", zap.Error(err))
	}

	accessReg := access.New(userRepo, cfg.DefaultQuota, cfg.MaxQuota)
	fileReg := filereg.New(fileRepo, accessReg, cfg.AdminIdentity, cfg.StorageFee)
	verifier := proof.New(fileRepo, cfg.VerificationThreshold)
	gw := gateway.New(accessReg, fileReg, verifier, cfg.AdminIdentity)

	handler := httpapi.New(gw, authSvc, blobs, cfg.ChunkSize)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler: handler.Router(),
	}

	go func() {
		logger.GetLogger(ctx).Info("server started", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger(ctx).Error("failed to serve", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger(ctx).Error("shutdown error", zap.Error(err))
	}
	logger.GetLogger(ctx).Info("server stopped")
}
