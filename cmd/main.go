package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"webshield/config"
	"webshield/engine"
	"webshield/logger"
	"webshield/stats"
	"webshield/subscription"
	"webshield/webapi"
)

func main() {
	// 定义命令行参数
	configPath := flag.String("c", "config.yaml", "配置文件路径")
	workDir := flag.String("w", "", "工作目录")
	verbose := flag.Bool("v", false, "详细输出")
	help := flag.Bool("h", false, "显示帮助信息")

	flag.Parse()

	if *help {
		printHelp()
		os.Exit(0)
	}

	// 确定工作目录和配置文件路径
	effectiveWorkDir := *workDir
	if effectiveWorkDir == "" {
		var err error
		effectiveWorkDir, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "错误：无法获取当前工作目录：%v\n", err)
			os.Exit(1)
		}
	}

	effectiveConfigPath := *configPath
	if !filepath.IsAbs(effectiveConfigPath) {
		effectiveConfigPath = filepath.Join(effectiveWorkDir, effectiveConfigPath)
	}

	// 加载配置（先加载配置以获取日志级别设置）
	cfg, err := config.LoadConfig(effectiveConfigPath)
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	if *verbose {
		cfg.System.LogLevel = "debug"
	}
	logger.SetLevel(cfg.System.LogLevel)
	logger.Infof("Log level set to: %s", cfg.System.LogLevel)

	// 相对缓存目录统一挂到工作目录下
	if !filepath.IsAbs(cfg.FilterLists.CacheDir) {
		cfg.FilterLists.CacheDir = filepath.Join(effectiveWorkDir, cfg.FilterLists.CacheDir)
	}

	// 初始化统计模块
	collector := stats.NewCollector()
	stats.WarmupSystemStats()

	// 订阅管理器与内置目录
	lists, err := subscription.NewManager(&cfg.FilterLists)
	if err != nil {
		logger.Fatalf("Failed to init subscription manager: %v", err)
	}
	if err := lists.RegisterCatalog(); err != nil {
		logger.Fatalf("Failed to register filter lists: %v", err)
	}

	// 过滤引擎
	eng, err := engine.New(cfg, lists, collector)
	if err != nil {
		logger.Fatalf("Failed to init engine: %v", err)
	}
	eng.SetPersistFunc(func(c *config.Config) error {
		return config.SaveConfig(effectiveConfigPath, c)
	})

	// 后台规则更新（先加载本地缓存，再按周期刷新）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lists.Start(ctx)

	fmt.Printf("WebShield content filter started (level: %s)\n", eng.Level().String())

	// 启动 Web API 服务（可选）
	var webServer *webapi.Server
	webServerDone := make(chan error, 1)
	if cfg.WebUI.Enabled {
		webServer = webapi.NewServer(cfg, eng)
		go func() {
			if err := webServer.Start(); err != nil {
				webServerDone <- err
			}
		}()
	}

	// 设置优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-webServerDone:
		logger.Errorf("Web API server exited: %v", err)
	}

	logger.Info("Shutting down...")
	cancel()

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := webServer.Stop(shutdownCtx); err != nil {
			logger.Errorf("Failed to stop Web API server: %v", err)
		}
	}

	logger.Info("Server gracefully stopped.")
}

func printHelp() {
	fmt.Print(`WebShield - 网页内容过滤引擎

使用方法：
  WebShield [选项]

选项：
  -c <路径>       配置文件路径（默认：config.yaml）
  -w <路径>       工作目录（默认：当前目录）
  -v              详细输出
  -h              显示此帮助信息

示例：
  # 启动过滤引擎
  WebShield -c /etc/webshield/config.yaml

  # 指定工作目录
  WebShield -w /var/lib/webshield
`)
}
