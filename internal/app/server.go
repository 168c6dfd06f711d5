package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/api/router"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/database"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
	pkgredis "github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/redis"
)

// StartServer 启动 HTTP 服务器并处理优雅退出
func StartServer(cfg *config.Config, handlers *Handlers, services *Services) {
	r := router.Setup(
		handlers.Template,
		handlers.Submission,
		services.Tokens,
		cfg.Server.Mode,
		cfg.Server.AllowedOrigins,
	)

	addr := fmt.Sprintf(":%d", cfg.Server.APIPort)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	printStartupBanner(cfg)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Infof("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// 1. Shutdown HTTP server
	logger.Infof("  → Stopping HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Infof("  Warning: HTTP server shutdown error: %v", err)
	} else {
		logger.Infof("  ✓ HTTP server stopped")
	}

	// 2. Close database
	logger.Infof("  → Closing database...")
	database.Close()
	logger.Infof("  ✓ Database closed")

	// 3. Close Redis if enabled
	if cfg.Redis.Enabled {
		logger.Infof("  → Closing Redis...")
		pkgredis.Close()
		logger.Infof("  ✓ Redis closed")
	}

	logger.Infof("Shutdown complete")
}

// printStartupBanner 打印启动横幅
func printStartupBanner(cfg *config.Config) {
	logger.Infof("")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("Shift-Scan Form Engine API Server")
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("")
	logger.Infof("Features:")
	logger.Infof("   • Schema-driven form templates with typed fields")
	logger.Infof("   • Submission lifecycle: draft → pending → approved/denied")
	logger.Infof("   • Debounced draft autosave with optimistic concurrency")
	logger.Infof("   • Audited approval workflow with webhook notifications")
	logger.Infof("")
	logger.Infof("Listening on :%d (mode: %s)", cfg.Server.APIPort, cfg.Server.Mode)
	logger.Infof("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	logger.Infof("")
}
