package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"gaonbazar/db"
	ghttp "gaonbazar/http"
	"gaonbazar/iot"
	"gaonbazar/logging"
	"gaonbazar/ml"
	"gaonbazar/price"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

func main() {
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(config.Log.Level, config.Log.File)
	defer logger.Sync()

	store, err := db.Open(config.Database.Path)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer store.Close()
	logger.Info("store opened", zap.String("path", config.Database.Path))

	// A missing or corrupt artifact must not stop the process: the service
	// boots and answers model-unavailable until restarted with a good one.
	artifact, err := ml.LoadArtifact(config.Model.Path)
	if err != nil {
		logger.Warn("price model not loaded, predictions disabled",
			zap.String("path", config.Model.Path),
			zap.Error(err))
		artifact = nil
	} else {
		logger.Info("price model loaded",
			zap.Int("crops", len(artifact.SupportedCrops)),
			zap.Int("markets", len(artifact.SupportedMarkets)),
			zap.String("price_unit", artifact.PriceUnit),
			zap.Float64("fit_score", artifact.FitScore))
	}

	predictor := price.NewService(artifact, logger.Named("price"))
	api := ghttp.NewAPI(predictor, store, iot.NewSimulator(0), logger.Named("api"))

	serverConfig := ghttp.ServerConfig{
		Port:           config.Http.Port,
		Timeout:        time.Duration(config.Http.TimeoutSeconds) * time.Second,
		AllowedOrigins: config.Http.AllowedOrigins,
	}
	if serverConfig.Timeout == 0 {
		serverConfig.Timeout = 30 * time.Second
	}
	if len(serverConfig.AllowedOrigins) == 0 {
		serverConfig.AllowedOrigins = []string{"*"}
	}

	server := ghttp.NewServer(serverConfig, api, logger.Named("http"))
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
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
