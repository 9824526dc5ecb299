package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/rodrigogk87/crowdfunding/internal/config"
	"github.com/rodrigogk87/crowdfunding/internal/handler"
	"github.com/rodrigogk87/crowdfunding/internal/logger"
	"github.com/rodrigogk87/crowdfunding/internal/logic"
)

const requestIDHeader = "X-Request-Id"

func Setup(db *gorm.DB, ledger handler.Ledger, cfg *config.Config) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(requestIDMiddleware())
	r.Use(requestLogger())
	r.Use(gin.RecoveryWithWriter(zap.NewStdLog(logger.GetDefaultZapLogger()).Writer()))
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		head, err := ledger.Head()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"service": "crowdfunding-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "crowdfunding-service",
			"height":  head.Height,
		})
	})

	formatter := handler.AmountFormatter{Decimals: cfg.Ledger.Decimals}
	contractLogic := logic.NewContractLogic(db)
	eventLogic := logic.NewEventLogic(db)

	contractHandler := handler.NewContractHandler(ledger, contractLogic, formatter)
	contributeHandler := handler.NewContributeHandler(logic.NewContributeRecordLogic(db), formatter)
	refundHandler := handler.NewRefundHandler(logic.NewRefundRecordLogic(db), formatter)
	settlementHandler := handler.NewSettlementHandler(logic.NewSettlementRecordLogic(db), formatter)
	accountHandler := handler.NewAccountHandler(ledger, formatter)
	ledgerHandler := handler.NewLedgerHandler(ledger, eventLogic, formatter)

	devOnly := devModeMiddleware(cfg.Server.DevMode)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 合约相关路由
		contracts := v1.Group("/contracts")
		{
			contracts.POST("", contractHandler.DeployContract)
			contracts.GET("", contractHandler.GetContracts)
			contracts.GET("/stats", contractHandler.GetContractStats)
			contracts.GET("/:address", contractHandler.GetContract)
			contracts.GET("/:address/status", contractHandler.GetStatus)
			contracts.GET("/:address/target", contractHandler.GetTarget)
			contracts.GET("/:address/deadline", contractHandler.GetDeadline)
			contracts.GET("/:address/funds", contractHandler.GetFunds)
			contracts.GET("/:address/deposits/:depositor", contractHandler.GetDeposit)
			contracts.POST("/:address/fund", contractHandler.Fund)
			contracts.POST("/:address/claim", contractHandler.Claim)
			contracts.GET("/:address/contributions", contributeHandler.GetContractContributeRecords)
			contracts.GET("/:address/contributions/stats", contributeHandler.GetContributeStats)
			contracts.GET("/:address/refunds", refundHandler.GetContractRefunds)
			contracts.GET("/:address/refunds/stats", refundHandler.GetRefundStats)
			contracts.GET("/:address/settlements", settlementHandler.GetContractSettlements)
			contracts.GET("/:address/events/stats", ledgerHandler.GetEventStats)
		}

		// 账户相关路由
		accounts := v1.Group("/accounts")
		{
			accounts.GET("/:address/balance", accountHandler.GetBalance)
			accounts.GET("/:address/contributions", contributeHandler.GetUserContributeRecords)
			accounts.POST("/:address/faucet", devOnly, accountHandler.Faucet)
		}

		// 账本相关路由
		ledgerGroup := v1.Group("/ledger")
		{
			ledgerGroup.GET("/head", ledgerHandler.GetHead)
			ledgerGroup.GET("/events", ledgerHandler.GetEvents)
			ledgerGroup.POST("/advance", devOnly, ledgerHandler.AdvanceTime)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, "+requestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// 请求ID中间件，沿用客户端传入的ID
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// 请求日志中间件，每条日志带上请求ID
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		l := logger.With(zap.String("request_id", c.GetString("request_id")))
		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			l.Error("%s %s %d %s", c.Request.Method, path, status, time.Since(start))
		case status >= http.StatusBadRequest:
			l.Warn("%s %s %d %s", c.Request.Method, path, status, time.Since(start))
		default:
			l.Info("%s %s %d %s", c.Request.Method, path, status, time.Since(start))
		}
	}
}

// 开发模式中间件，关闭时隐藏水龙头和时钟接口
func devModeMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled {
			handler.ErrorResponse(c, http.StatusNotFound, "接口仅在开发模式下可用")
			c.Abort()
			return
		}
		c.Next()
	}
}
