package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher 监听配置文件变动并回调最新配置。某些编辑器保存时会触发
// 连续多个事件，用冷却时间合并。
type Watcher struct {
	Path     string
	Cooldown time.Duration
}

// Start 阻塞监听直到 ctx 取消；文件每次有效变更都会调用 onUpdate。
// 解析或校验失败的中间状态被跳过，保留上一份可用配置。
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if w.Cooldown <= 0 {
		w.Cooldown = time.Second
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	// 监听目录而不是文件本身：rename+create 式的原子写会让
	// 文件级 watch 失效
	if err := fw.Add(filepath.Dir(w.Path)); err != nil {
		return err
	}

	var lastReload time.Time
	target := filepath.Clean(w.Path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < w.Cooldown {
				continue
			}
			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				continue
			}
			lastReload = time.Now()
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case _, ok := <-fw.Errors:
			if !ok {
				return nil
			}
		}
	}
}
