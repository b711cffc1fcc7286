package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/haierkeys/offline-note-vault/internal/app"
	"github.com/haierkeys/offline-note-vault/internal/service"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// backupPrefix 备份在对象存储中的根前缀，每轮一个时间戳目录
const backupPrefix = "backups"

// BackupTask 按 cron 策略把每个用户的导出文档写入对象存储
type BackupTask struct {
	app      *app.App
	logger   *zap.Logger
	schedule cron.Schedule
	nextRun  time.Time
}

// NewBackupTask 创建备份任务，未启用时返回 nil
func NewBackupTask(appContainer *app.App) (Task, error) {
	cfg := appContainer.Config().Backup
	if !cfg.Enabled {
		return nil, nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cfg.Cron)
	if err != nil {
		return nil, errors.Wrapf(err, "parse backup cron expression %q failed", cfg.Cron)
	}

	return &BackupTask{
		app:      appContainer,
		logger:   appContainer.Logger(),
		schedule: schedule,
		nextRun:  schedule.Next(time.Now()),
	}, nil
}

// Name returns the task name
func (t *BackupTask) Name() string {
	return "BackupScheduled"
}

// LoopInterval 每分钟对齐一次 cron 计划
func (t *BackupTask) LoopInterval() time.Duration {
	return 1 * time.Minute
}

// IsStartupRun returns whether to run on startup
func (t *BackupTask) IsStartupRun() bool {
	return false
}

// Run 到达计划时间则执行一轮全量备份
func (t *BackupTask) Run(ctx context.Context) error {
	now := time.Now()
	if now.Before(t.nextRun) {
		return nil
	}
	t.nextRun = t.schedule.Next(now)

	if err := t.executeRound(ctx, now); err != nil {
		t.sendAlertMail(err)
		return err
	}
	return nil
}

// executeRound 导出全部用户到 backups/<时间戳>/<用户名>.json
func (t *BackupTask) executeRound(ctx context.Context, now time.Time) error {
	svc := service.NewBackground(t.app.Store())
	backend := t.app.Backend()
	stamp := now.Format("20060102-150405")

	usernames := t.app.Store().Usernames()
	failed := 0
	for _, username := range usernames {
		raw, err := svc.ExportJSON(username)
		if err != nil {
			t.logger.Error("backup export failed",
				zap.String("username", username),
				zap.Error(err))
			failed++
			continue
		}
		key := fmt.Sprintf("%s/%s/%s.json", backupPrefix, stamp, username)
		if _, err := backend.PutContent(key, raw); err != nil {
			t.logger.Error("backup upload failed",
				zap.String("key", key),
				zap.Error(err))
			failed++
		}
	}

	if err := t.pruneOldRounds(); err != nil {
		t.logger.Warn("backup prune failed", zap.Error(err))
	}

	t.logger.Info("backup round finished",
		zap.String("stamp", stamp),
		zap.Int("users", len(usernames)),
		zap.Int("failed", failed))
	t.app.Interceptor().NotifyPeriodicBackup(len(usernames), failed)

	if failed > 0 {
		return errors.Errorf("backup round %s: %d of %d users failed", stamp, failed, len(usernames))
	}
	return nil
}

// pruneOldRounds 只保留最近 keep-count 轮备份
func (t *BackupTask) pruneOldRounds() error {
	keep := t.app.Config().Backup.KeepCount
	if keep <= 0 {
		return nil
	}

	keys, err := t.app.Backend().ListKeys(backupPrefix + "/")
	if err != nil {
		return err
	}

	// 时间戳目录名可排序，收集去重后的轮次
	seen := make(map[string]bool)
	var rounds []string
	for _, key := range keys {
		rest := strings.TrimPrefix(key, backupPrefix+"/")
		stamp, _, ok := strings.Cut(rest, "/")
		if !ok || seen[stamp] {
			continue
		}
		seen[stamp] = true
		rounds = append(rounds, stamp)
	}
	if len(rounds) <= keep {
		return nil
	}

	sort.Strings(rounds)
	for _, stamp := range rounds[:len(rounds)-keep] {
		if err := t.app.Backend().DeletePrefix(backupPrefix + "/" + stamp + "/"); err != nil {
			return err
		}
	}
	return nil
}

// sendAlertMail 备份失败时的告警邮件，未配置时静默跳过
func (t *BackupTask) sendAlertMail(cause error) {
	mail := t.app.Config().Backup.Mail
	if !mail.Enabled || mail.Host == "" || mail.To == "" {
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", mail.User)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", "[offline-note-vault] backup failed")
	m.SetBody("text/plain", fmt.Sprintf("Scheduled backup failed at %s\n\n%v",
		time.Now().Format(time.RFC3339), cause))

	d := gomail.NewDialer(mail.Host, mail.Port, mail.User, mail.Password)
	if err := d.DialAndSend(m); err != nil {
		t.logger.Error("backup alert mail failed", zap.Error(err))
	}
}
