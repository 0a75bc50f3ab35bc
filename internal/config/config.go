package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации движка блоков.
type Config struct {
	Registry  RegistryConfig  `yaml:"registry"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	World     WorldConfig     `yaml:"world"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LogLevel  string          `yaml:"log_level"`
}

// RegistryConfig настройки реестра блоков
type RegistryConfig struct {
	// Authoritative: сервер выдаёт новые id и подгружает все доступные семейства
	Authoritative bool   `yaml:"authoritative"`
	AssetsDir     string `yaml:"assets_dir"`
}

// StorageConfig настройки хранилища таблицы uri→id.
// Driver: badger | file | mysql | sqlite | redis | mongo.
type StorageConfig struct {
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"`
	DSN       string `yaml:"dsn"`
	Database  string `yaml:"database"`
	KeyPrefix string `yaml:"key_prefix"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

type ServerConfig struct {
	RESTPort int `yaml:"rest_port"`
}

// WorldConfig настройки in-memory мира
type WorldConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	LoadedRadius int `yaml:"loaded_radius"`
}

type TelemetryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Service string `yaml:"service"`
}

// Default возвращает конфигурацию для локального запуска без файла
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{Authoritative: true, AssetsDir: "assets/blocks"},
		Storage:  StorageConfig{Driver: "badger", Path: "data"},
		EventBus: EventBusConfig{Stream: "BLOCKS", Retention: 24, Buffer: 1024},
		World:    WorldConfig{ChunkSize: 16, LoadedRadius: 2},
		Telemetry: TelemetryConfig{
			Service: "block-engine",
		},
		LogLevel: "info",
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "BLOCK_REST_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений Default().
// Если path == "", пытается прочитать из ENV BLOCK_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("BLOCK_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if cfg.World.ChunkSize <= 0 {
		cfg.World.ChunkSize = 16
	}
	return cfg, nil
}
