package casbin

import (
	"fmt"
	"sync"

	"github.com/casbin/casbin/v3"
	casbinmodel "github.com/casbin/casbin/v3/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	rediswatcher "github.com/casbin/redis-watcher/v2"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/database"
	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/logger"
	pkgredis "github.com/Streamline-Precision-Apps/shift-scan-server-sub009/pkg/redis"
)

// RBAC 模型：sub 为用户或角色，obj 为资源（模板ID或 *），act 为动作
// g 关系把用户映射到角色，模板级策略可以覆盖角色级通配策略
const modelText = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && r.act == p.act
`

var (
	enforcer     *casbin.SyncedCachedEnforcer
	enforcerOnce sync.Once
	enforcerMu   sync.RWMutex
)

// Init 初始化Casbin权限管理器
func Init() error {
	var initErr error
	enforcerOnce.Do(func() {
		initErr = initEnforcer()
	})
	return initErr
}

func initEnforcer() error {
	// 使用GORM适配器，将策略存储到数据库
	adapter, err := gormadapter.NewAdapterByDB(database.DB)
	if err != nil {
		return fmt.Errorf("初始化Casbin适配器失败: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(modelText)
	if err != nil {
		return fmt.Errorf("解析Casbin模型失败: %w", err)
	}

	// SyncedCachedEnforcer 解决单机多线程；多机器同步依赖下方 Watcher
	enforcer, err = casbin.NewSyncedCachedEnforcer(m, adapter)
	if err != nil {
		return fmt.Errorf("创建Casbin执行器失败: %w", err)
	}
	enforcer.SetExpireTime(60 * 60)

	// Redis Watcher：其他节点更新策略后，本节点自动重新加载
	// Redis未启用时降级为数据库模式，策略变更后需手动调用 ReloadPolicy
	if pkgredis.IsEnabled() {
		redisClient := pkgredis.GetClient()
		if redisClient != nil {
			redisAddr := redisClient.Options().Addr
			if redisAddr == "" {
				redisAddr = "localhost:6379"
			}

			watcher, err := rediswatcher.NewWatcher(redisAddr, rediswatcher.WatcherOptions{})
			if err != nil {
				logger.Warnf("创建Redis Watcher失败: %v，将使用数据库同步模式（降级）", err)
			} else if err := enforcer.SetWatcher(watcher); err != nil {
				logger.Warnf("设置Watcher失败: %v，将使用数据库同步模式（降级）", err)
			} else {
				watcher.SetUpdateCallback(func(msg string) {
					logger.Infof("收到策略更新通知: %s，重新加载策略", msg)
					if err := enforcer.LoadPolicy(); err != nil {
						logger.Errorf("重新加载策略失败: %v", err)
					} else {
						enforcer.InvalidateCache()
					}
				})
				logger.Infof("Redis Watcher已配置（地址: %s），支持多机器权限同步", redisAddr)
			}
		}
	} else {
		logger.Info("Redis未启用，使用数据库同步模式")
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("加载Casbin策略失败: %w", err)
	}

	if err := seedDefaultPolicies(); err != nil {
		return fmt.Errorf("初始化默认策略失败: %w", err)
	}

	logger.Info("Casbin权限管理器初始化成功")
	return nil
}

// seedDefaultPolicies 初始化默认角色策略（已存在则跳过）
func seedDefaultPolicies() error {
	defaults := [][]string{
		{"admin", "*", "templates:manage"},
		{"admin", "*", "submissions:approve"},
		{"manager", "*", "submissions:approve"},
	}
	for _, p := range defaults {
		if has, _ := enforcer.HasPolicy(p[0], p[1], p[2]); !has {
			if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetEnforcer 获取Casbin执行器（线程安全）
func GetEnforcer() *casbin.SyncedCachedEnforcer {
	enforcerMu.RLock()
	defer enforcerMu.RUnlock()
	return enforcer
}

// CheckPermission 检查 sub 对 obj 是否拥有 act 权限
func CheckPermission(sub, obj, act string) (bool, error) {
	e := GetEnforcer()
	if e == nil {
		return false, fmt.Errorf("casbin enforcer not initialized")
	}
	return e.Enforce(sub, obj, act)
}

// AddRoleForUser 为用户绑定角色
func AddRoleForUser(userID, role string) error {
	e := GetEnforcer()
	if e == nil {
		return fmt.Errorf("casbin enforcer not initialized")
	}
	_, err := e.AddGroupingPolicy(userID, role)
	return err
}

// ReloadPolicy 手动重新加载策略（Redis未启用时供管理接口调用）
func ReloadPolicy() error {
	e := GetEnforcer()
	if e == nil {
		return fmt.Errorf("casbin enforcer not initialized")
	}
	if err := e.LoadPolicy(); err != nil {
		return err
	}
	e.InvalidateCache()
	return nil
}
