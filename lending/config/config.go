package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/book-lending/pkg/kafka"
	"github.com/Astemirdum/book-lending/pkg/logger"
	"github.com/Astemirdum/book-lending/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LENDING_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LENDING_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ"`
	WriteTimeout time.Duration `yaml:"writeTimeout" envconfig:"HTTP_WRITE"`
}

type Auth struct {
	SessionTTL   time.Duration `envconfig:"AUTH_SESSION_TTL" default:"24h"`
	CookieName   string        `envconfig:"AUTH_COOKIE_NAME" default:"sessionId"`
	SecureCookie bool          `envconfig:"AUTH_SECURE_COOKIE" default:"false"`
	// DevHeader lets X-User-Id name the caller. Never enable in production.
	DevHeader bool `envconfig:"AUTH_DEV_HEADER" default:"false"`
}

type Reconcile struct {
	Parallelism int `envconfig:"RECONCILE_PARALLELISM" default:"4"`
}

type Kafka struct {
	kafka.Config
	ConsumerGroup string `envconfig:"KAFKA_CONSUMER_GROUP" default:"lending-review-reconciler"`
}

type Config struct {
	Server    HTTPServer  `yaml:"server"`
	Database  postgres.DB `yaml:"db"`
	Kafka     Kafka       `yaml:"kafka"`
	Log       logger.Log  `yaml:"log"`
	Auth      Auth        `yaml:"auth"`
	Reconcile Reconcile   `yaml:"reconcile"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Options seed values that have no
// environment default.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(cfg)
	})

	return cfg
}

func printConfig(cfg *Config) {
	masked := *cfg
	masked.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(masked, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
