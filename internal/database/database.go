// Package database 封装本地嵌入式 SQLite 数据库的打开与迁移
package database

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hanzhiyue/gemini-lens/internal/apperr"
	"github.com/hanzhiyue/gemini-lens/internal/config"
	"github.com/hanzhiyue/gemini-lens/internal/model"
)

// Gateway 数据库网关，惰性打开共享连接
// 所有仓库操作经由 Open 触发初始化，首次并发调用由 sync.Once 串行化，
// 不会重复建表
type Gateway struct {
	cfg   *config.Config
	once  sync.Once
	db    *gorm.DB
	err   error
	inMem bool
}

// NewGateway 创建数据库网关，不立即打开连接
func NewGateway(cfg *config.Config) *Gateway {
	return &Gateway{cfg: cfg}
}

// NewInMemoryGateway 创建内存数据库网关，测试用
func NewInMemoryGateway() *Gateway {
	return &Gateway{inMem: true}
}

// Open 打开（必要时创建）数据库并完成迁移，幂等
func (g *Gateway) Open() (*gorm.DB, error) {
	g.once.Do(func() {
		g.db, g.err = g.open()
	})
	if g.err != nil {
		return nil, apperr.Database("failed to open database", g.err)
	}
	return g.db, nil
}

func (g *Gateway) open() (*gorm.DB, error) {
	dsn := ":memory:"
	logLevel := gormlogger.Silent

	if !g.inMem {
		cfg := g.cfg.Database
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, err
		}
		dsn = filepath.Join(cfg.Dir, cfg.Name)
		if g.cfg.App.Debug {
			logLevel = gormlogger.Info
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	if g.inMem {
		// 内存库只允许单连接，连接池扩张会各自拿到独立的空库
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	// 自动迁移，已存在的表保持不动
	if err := db.AutoMigrate(model.AllModels...); err != nil {
		return nil, err
	}

	return db, nil
}

// Close 关闭数据库连接，未曾打开时为空操作
func (g *Gateway) Close() error {
	if g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
