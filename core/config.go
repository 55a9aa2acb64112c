package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Addr            string
		Host            string
		DebugHost       string
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	BackendConfig struct {
		BaseURL       string
		Timeout       time.Duration
		UploadTimeout time.Duration
	}

	SessionConfig struct {
		CookieName    string
		TTL           time.Duration
		SweepInterval time.Duration
		Store         string // memory | redis | postgres
	}

	RedisConfig struct {
		Addr     string
		Password string
		DB       int
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	Config struct {
		Env             string
		Debug           bool
		TestMode        bool
		AppName         string
		Build           string
		WorkDir         string
		SecretKey       string
		FrontendBaseURL string
		RollbarToken    string
		SendgridApiKey  string

		defaultFromEmail string

		Server   ServerConfig
		Backend  BackendConfig
		Session  SessionConfig
		Redis    RedisConfig
		Database DatabaseConfig
	}
)

func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.defaultFromEmail}
	}
	return *addr
}

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// NewConfig reads the configuration from the environment (and the matching config/.env.<env> file if any).
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Bainum Dashboard")
	conf.SetDefault("build", "develop")
	conf.SetDefault("secretKey", "")
	conf.SetDefault("defaultFromEmail", "Bainum Project <noreply@localhost>")
	conf.SetDefault("frontendBaseURL", "http://localhost:5173")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("sendgridApiKey", "")

	conf.SetDefault("server.addr", ":8000")
	conf.SetDefault("server.host", "localhost")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)

	conf.SetDefault("backend.baseURL", "http://localhost:5001")
	conf.SetDefault("backend.timeout", 15*time.Second)
	conf.SetDefault("backend.uploadTimeout", 2*time.Minute)

	conf.SetDefault("session.cookieName", "bainum_session")
	conf.SetDefault("session.ttl", 7*24*time.Hour)
	conf.SetDefault("session.sweepInterval", time.Minute)
	conf.SetDefault("session.store", "memory")

	conf.SetDefault("redis.addr", "localhost:6379")
	conf.SetDefault("redis.password", "")
	conf.SetDefault("redis.db", 0)

	conf.SetDefault("database.engine", "postgres")
	conf.SetDefault("database.host", "localhost")
	conf.SetDefault("database.port", "5432")
	conf.SetDefault("database.name", "bainum")
	conf.SetDefault("database.user", "bainum")
	conf.SetDefault("database.password", "")
	conf.SetDefault("database.adminUser", "")
	conf.SetDefault("database.adminPassword", "")
	conf.SetDefault("database.disableTLS", false)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("testMode", true)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:              env,
		Debug:            conf.GetBool("debug"),
		TestMode:         conf.GetBool("testMode"),
		AppName:          conf.GetString("appName"),
		Build:            conf.GetString("build"),
		WorkDir:          wd,
		SecretKey:        conf.GetString("secretKey"),
		FrontendBaseURL:  strings.TrimRight(conf.GetString("frontendBaseURL"), "/"),
		RollbarToken:     conf.GetString("rollbarToken"),
		SendgridApiKey:   conf.GetString("sendgridApiKey"),
		defaultFromEmail: conf.GetString("defaultFromEmail"),
		Server: ServerConfig{
			Addr:            conf.GetString("server.addr"),
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
		Backend: BackendConfig{
			BaseURL:       strings.TrimRight(conf.GetString("backend.baseURL"), "/"),
			Timeout:       conf.GetDuration("backend.timeout"),
			UploadTimeout: conf.GetDuration("backend.uploadTimeout"),
		},
		Session: SessionConfig{
			CookieName:    conf.GetString("session.cookieName"),
			TTL:           conf.GetDuration("session.ttl"),
			SweepInterval: conf.GetDuration("session.sweepInterval"),
			Store:         strings.ToLower(conf.GetString("session.store")),
		},
		Redis: RedisConfig{
			Addr:     conf.GetString("redis.addr"),
			Password: conf.GetString("redis.password"),
			DB:       conf.GetInt("redis.db"),
		},
		Database: DatabaseConfig{
			Engine:        conf.GetString("database.engine"),
			Host:          conf.GetString("database.host"),
			Port:          conf.GetString("database.port"),
			Name:          conf.GetString("database.name"),
			User:          conf.GetString("database.user"),
			Password:      conf.GetString("database.password"),
			AdminUser:     conf.GetString("database.adminUser"),
			AdminPassword: conf.GetString("database.adminPassword"),
			DisableTLS:    conf.GetBool("database.disableTLS"),
		},
	}
}
