// Package migrations 内嵌对局历史表结构并执行迁移
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Up 执行所有待处理的迁移。databaseURL 需为 postgres:// 形式
func Up(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("创建迁移源失败: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("创建迁移实例失败: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logrus.Warnf("⚠️ 关闭迁移实例失败: %v %v", srcErr, dbErr)
		}
	}()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("获取当前版本失败: %w", err)
	}
	if dirty {
		logrus.Warnf("⚠️ 数据库处于 dirty 状态 (version %d)，尝试修复", version)
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("修复 dirty 状态失败: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logrus.Info("🗄️ 数据库已是最新版本")
			return nil
		}
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	newVersion, _, _ := m.Version()
	logrus.Infof("🗄️ 数据库迁移完成，当前版本 %d", newVersion)
	return nil
}
