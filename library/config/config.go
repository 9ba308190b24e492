package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Astemirdum/library-web/library/internal/session"
	"github.com/Astemirdum/library-web/pkg/kafka"
	"github.com/Astemirdum/library-web/pkg/logger"
	"github.com/Astemirdum/library-web/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration `envconfig:"HTTP_WRITE"`
}

// Admin is created at startup when both fields are set.
type Admin struct {
	Email    string `envconfig:"ADMIN_EMAIL"`
	Password string `envconfig:"ADMIN_PASSWORD" json:"-"`
}

func (a Admin) Enabled() bool {
	return a.Email != "" && a.Password != ""
}

type Config struct {
	Server   HTTPServer
	Database postgres.DB
	Log      logger.Log
	Kafka    kafka.Config
	Session  session.Config
	Admin    Admin
	// Seed loads the embedded catalog into an empty database.
	Seed bool `envconfig:"LIBRARY_SEED" default:"true"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
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
	masked.Session.Secret = "***"
	jscfg, _ := json.MarshalIndent(masked, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}
