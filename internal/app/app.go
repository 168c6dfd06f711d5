package app

import (
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/notification"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/config"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/database"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
)

// App 应用程序上下文
type App struct {
	Config              *config.Config
	Repos               *Repositories
	Services            *Services
	Handlers            *Handlers
	NotificationManager *notification.Manager
}

// Initialize 初始化应用程序
func Initialize(cfgPath string) (*App, error) {
	// 1. Bootstrap (logger, database, redis, casbin)
	cfg, err := Bootstrap(cfgPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			database.Close()
		}
	}()

	// 2. Initialize repositories
	repos := InitializeRepositories()
	logger.Infof("Repositories initialized")

	// 3. Initialize notification manager
	notificationMgr := notification.InitFromConfig(&cfg.Notification)
	logger.Infof("Notification Manager initialized")

	// 4. Initialize services
	services := InitializeServices(repos, cfg, notificationMgr)
	logger.Infof("Services initialized")

	// 5. Initialize handlers
	handlers := InitializeHandlers(services)
	logger.Infof("Handlers initialized")

	return &App{
		Config:              cfg,
		Repos:               repos,
		Services:            services,
		Handlers:            handlers,
		NotificationManager: notificationMgr,
	}, nil
}
