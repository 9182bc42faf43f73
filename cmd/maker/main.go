package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"hyper-maker-go/config"
	"hyper-maker-go/gateway"
	"hyper-maker-go/infrastructure/logger"
	"hyper-maker-go/internal/agent"
	"hyper-maker-go/inventory"
	"hyper-maker-go/metrics"
	"hyper-maker-go/order"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	only := flag.String("asset", "", "只跑指定资产，留空则跑配置里的全部")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	if err := config.CheckCredentials(cfg); err != nil {
		log.Fatalf("凭证缺失: %v", err)
	}
	if *only != "" {
		ac, ok := cfg.Assets[*only]
		if !ok {
			log.Fatalf("asset %s not found in config", *only)
		}
		cfg.Assets = map[string]config.AssetConfig{*only: ac}
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer logg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats := metrics.NewCollector()
	if cfg.Metrics.Enabled {
		stats.StartServer(ctx, cfg.Metrics.Addr)
		logg.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
	}

	// 配置热更新目前只接日志级别，报价参数改动需要重启
	go func() {
		_ = config.Watcher{Path: *cfgPath}.Start(ctx, func(next config.AppConfig) {
			if err := logg.SetLevel(next.Log.Level); err != nil {
				logg.Warn("ignoring bad log level from reload", zap.Error(err))
				return
			}
			logg.Info("log level updated", zap.String("level", next.Log.Level))
		})
	}()

	var wg sync.WaitGroup
	for asset, ac := range cfg.Assets {
		// 每条资产一套独立的客户端与 agent，互不共享可变状态
		info := gateway.NewInfoClient(cfg.Gateway.APIURL)
		exch := gateway.NewExchangeClient(cfg.Gateway.APIURL, cfg.Gateway.AccountAddress, cfg.Gateway.APISecret)
		mgr := order.NewManager(exch, logg, stats)
		ag := agent.New(agent.Config{
			Asset:   asset,
			Account: cfg.Gateway.AccountAddress,
			Params:  ac.Params(),
		}, mgr, &inventory.Tracker{}, logg, stats)

		if err := ag.Sync(ctx, info); err != nil {
			logg.Fatal("启动对账失败", zap.String("asset", asset), zap.Error(err))
		}

		ws := gateway.NewWSClient(cfg.Gateway.WSURL, logg.With(zap.String("asset", asset)))
		must(ws.Subscribe(gateway.Subscription{Type: gateway.SubAllMids}, ag.Events()))
		must(ws.Subscribe(gateway.Subscription{
			Type: gateway.SubUserEvents,
			User: cfg.Gateway.AccountAddress,
		}, ag.Events()))

		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = ws.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			_ = ag.Run(ctx)
		}()
		logg.Info("agent started", zap.String("asset", asset))
	}

	<-ctx.Done()
	logg.Info("shutting down")
	wg.Wait()
}

func must(err error) {
	if err != nil {
		log.Fatalf("订阅失败: %v", err)
	}
}
