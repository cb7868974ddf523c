package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"oncoserve/db"
	qhttp "oncoserve/http"
	"oncoserve/logger"
	"oncoserve/ml"
	"oncoserve/monitoring"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Model struct {
		Path  string `yaml:"path"`
		Watch bool   `yaml:"watch"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func main() {
	configPath := "config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	config, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.Init(config.Log.Level, config.Log.File)
	defer logg.Sync()

	if err := db.InitDB(config.Database.Path); err != nil {
		logg.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logg.Info("database initialized", zap.String("path", config.Database.Path))

	// A failed load leaves the service Unloaded: the process still serves,
	// reporting itself unhealthy, until a good artifact appears.
	service := ml.NewInferenceService(logg)
	if err := service.Load(config.Model.Path); err != nil {
		logg.Warn("starting without a loaded model", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if config.Model.Watch {
		if err := service.WatchArtifact(ctx, config.Model.Path); err != nil {
			logg.Warn("artifact watcher unavailable", zap.Error(err))
		}
	}

	hub := monitoring.NewHub(logg)
	go hub.Start()
	defer hub.Stop()
	go heartbeat(ctx, hub, service)

	qhttp.SetInferenceService(service)
	qhttp.SetMonitor(hub)

	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds != 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	server := qhttp.NewServer(serverConfig)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logg.Info("shutting down")

	if err := server.Stop(); err != nil {
		logg.Warn("server forced to shutdown", zap.Error(err))
	}
}

func heartbeat(ctx context.Context, hub *monitoring.Hub, service *ml.InferenceService) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loaded := service.Loaded()
			status := "healthy"
			if !loaded {
				status = "unhealthy"
			}
			hub.SendStatus(monitoring.StatusMessage{
				Status:      status,
				ModelLoaded: loaded,
				Timestamp:   time.Now().UTC(),
			})
		}
	}
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
