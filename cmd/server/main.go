package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rodrigogk87/crowdfunding/internal/config"
	"github.com/rodrigogk87/crowdfunding/internal/database"
	"github.com/rodrigogk87/crowdfunding/internal/event"
	"github.com/rodrigogk87/crowdfunding/internal/host"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
	"github.com/rodrigogk87/crowdfunding/internal/router"
	"github.com/rodrigogk87/crowdfunding/internal/storage"
	"github.com/rodrigogk87/crowdfunding/internal/task"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		logger.Fatal("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化账本
	kv, err := storage.Open(cfg.Ledger.Storage)
	if err != nil {
		logger.Fatal("Failed to open ledger storage: %v", err)
	}
	defer kv.Close()

	var opts []host.Option
	if cfg.Ledger.GenesisTime > 0 {
		opts = append(opts, host.WithGenesisTime(uint64(cfg.Ledger.GenesisTime)))
	}
	ledger, err := host.New(kv, opts...)
	if err != nil {
		logger.Fatal("Failed to initialize ledger: %v", err)
	}

	// 事件同步
	contractLogic := logic.NewContractLogic(db)
	monitor := event.NewDefaultMonitor(ledger,
		logic.NewEventLogic(db),
		contractLogic,
		logic.NewContributeRecordLogic(db),
		logic.NewRefundRecordLogic(db),
		logic.NewSettlementRecordLogic(db),
		cfg.Task.BatchSize,
	)

	// 启动定时任务
	interval := time.Duration(cfg.Task.Interval) * time.Second
	manager, err := task.Start(
		task.NewBlockProducerJob(ledger, time.Duration(cfg.Ledger.BlockInterval)*time.Second),
		task.NewEventSyncJob(monitor, interval),
		task.NewContractStatusJob(ledger, contractLogic, interval, cfg.Task.BatchSize),
	)
	if err != nil {
		logger.Fatal("Failed to start task manager: %v", err)
	}
	defer manager.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, ledger, cfg)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}
}
