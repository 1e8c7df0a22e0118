package core

import (
	"fmt"
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
	Config struct {
		AppName      string
		Build        string
		Env          string // DEV (local; default), TEST, QA, PROD
		Debug        bool
		TestMode     bool
		RollbarToken string

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Filters  FiltersConfig
		Email    EmailConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	DatabaseConfig struct {
		Engine        string // postgres | memory
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
		SeedStudents  bool
	}

	RedisConfig struct {
		URL     string        // empty: in-process locks
		LockTTL time.Duration // renewed while held; bounds how long a crashed holder blocks filter runs
	}

	FiltersConfig struct {
		Schedule         string // cron spec; empty disables scheduled runs
		FailFast         bool
		ReportRecipients []string
	}

	EmailConfig struct {
		DefaultFrom    string
		SendgridAPIKey string
	}
)

func (dc DatabaseConfig) Address() string {
	return net.JoinHostPort(dc.Host, dc.Port)
}

// DefaultFromEmail parses Email.DefaultFrom, falling back to a bare address.
func (c *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(c.Email.DefaultFrom)
	if err != nil {
		return mail.Address{Name: c.AppName, Address: c.Email.DefaultFrom}
	}
	return *addr
}

// ReportRecipients returns the parsed filter run report recipients; invalid entries are skipped.
func (c *Config) ReportRecipients() []mail.Address {
	addrs := make([]mail.Address, 0, len(c.Filters.ReportRecipients))
	for _, r := range c.Filters.ReportRecipients {
		if addr, err := mail.ParseAddress(CleanString(r)); err == nil {
			addrs = append(addrs, *addr)
		}
	}
	return addrs
}

func newViper() *viper.Viper {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("appName", "Rollcall")
	v.SetDefault("build", "develop")
	v.SetDefault("debug", true)
	v.SetDefault("testMode", false)
	v.SetDefault("rollbarToken", "")

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":4001")
	v.SetDefault("server.debugHost", ":4002")
	v.SetDefault("server.readTimeout", 5*time.Second)
	v.SetDefault("server.writeTimeout", 30*time.Second)
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.disableReqLogs", false)

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "rollcall")
	v.SetDefault("database.user", "rollcall")
	v.SetDefault("database.password", "rollcall")
	v.SetDefault("database.adminUser", "postgres")
	v.SetDefault("database.adminPassword", "postgres")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.seedStudents", true)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.lockTTL", 10*time.Minute)

	v.SetDefault("filters.schedule", "")
	v.SetDefault("filters.failFast", false)
	v.SetDefault("filters.reportRecipients", []string{})

	v.SetDefault("email.defaultFrom", "noreply@localhost")
	v.SetDefault("email.sendgridApiKey", "")
	return v
}

// NewConfig loads the application Config from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed by the current env, e.g. `DEV_DATABASE_HOST` for `database.host`.
func NewConfig() *Config {
	v := newViper()

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return configFromViper(v, env)
}

func configFromViper(v *viper.Viper, env string) *Config {
	return &Config{
		AppName:      v.GetString("appName"),
		Build:        v.GetString("build"),
		Env:          env,
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("testMode"),
		RollbarToken: v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ReadTimeout:     v.GetDuration("server.readTimeout"),
			WriteTimeout:    v.GetDuration("server.writeTimeout"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  v.GetBool("server.disableReqLogs"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
			SeedStudents:  v.GetBool("database.seedStudents"),
		},
		Redis: RedisConfig{
			URL:     v.GetString("redis.url"),
			LockTTL: v.GetDuration("redis.lockTTL"),
		},
		Filters: FiltersConfig{
			Schedule:         v.GetString("filters.schedule"),
			FailFast:         v.GetBool("filters.failFast"),
			ReportRecipients: v.GetStringSlice("filters.reportRecipients"),
		},
		Email: EmailConfig{
			DefaultFrom:    v.GetString("email.defaultFrom"),
			SendgridAPIKey: v.GetString("email.sendgridApiKey"),
		},
	}
}

func (c *Config) String() string {
	return fmt.Sprintf("%s@%s (%s)", c.AppName, c.Build, c.Env)
}
