// Package config предоставляет структуры и функцию для парсинга и загрузки конфига.
//
// Конфиг читается один раз при старте из файла, указанного в CONFIG_PATH,
// секреты переопределяются переменными окружения. Дальше структура передаётся
// явно в компоненты, которым она нужна.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	StaticDir  string `yaml:"static_dir" env-default:"./web/static"`
	Storage    `yaml:"storage"`
	HTTPServer `yaml:"http_server"`
	JWTToken   `yaml:"jwttoken"`
	Stripe     `yaml:"stripe"`
	Transcript `yaml:"transcript"`
}

// Storage структура для настройки хранилища пользователей.
type Storage struct {
	Driver         string `yaml:"driver" env-default:"sqlite"`
	DSN            string `yaml:"dsn" env:"STORAGE_DSN" env-default:"./users.db"`
	MigrationsPath string `yaml:"migrations_path" env-default:"./migrations"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Stripe структура для настройки платёжного провайдера.
type Stripe struct {
	APIKey        string `yaml:"api_key" env:"STRIPE_API_KEY"`
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	PriceID       string `yaml:"price_id"`
	Domain        string `yaml:"domain" env-default:"http://localhost:8080"`
}

// Transcript структура для настройки клиента субтитров.
type Transcript struct {
	Language        string        `yaml:"language" env-default:"en"`
	TimeoutUpstream time.Duration `yaml:"timeout_upstream" env-default:"15s"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH, при ошибке завершает процесс.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

// String печатает конфиг без значений секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Storage:\n"+
			"  Driver: %s\n"+
			"  DSN: %s\n"+
			"  MigrationsPath: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  TokenTTL: %s\n"+
			"Stripe:\n"+
			"  PriceID: %s\n"+
			"  Domain: %s\n"+
			"Transcript:\n"+
			"  Language: %s\n"+
			"  TimeoutUpstream: %s\n"+
			"StaticDir: %s\n",
		c.Env,
		c.Driver,
		c.DSN,
		c.MigrationsPath,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.TokenTTL,
		c.PriceID,
		c.Domain,
		c.Language,
		c.TimeoutUpstream,
		c.StaticDir,
	)
}
