// Package config reads the bot's settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Token    string `env:"TOKEN"`
	ClientID string `env:"CLIENT_ID"`
	GuildID  string `env:"GUILD_ID"`

	Addons bool `env:"ADDONS" envDefault:"false"`
	Debug  bool `env:"DEBUG" envDefault:"false"`

	ProjectDir string `env:"PROJECT_DIR" envDefault:"."`
	AddonsDir  string `env:"ADDONS_DIR" envDefault:"addons"`
	EventsDir  string `env:"EVENTS_DIR" envDefault:"events"`
	SchemaDir  string `env:"SCHEMA_DIR" envDefault:"addons"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"sqlite"`
	DBURL      string `env:"DB_URL"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     int    `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`

	LangFile      string `env:"LANG_FILE" envDefault:"lang/en.json"`
	LogFile       string `env:"LOG_FILE"`
	CommandCache  string `env:"COMMAND_CACHE" envDefault:"data/commands.json"`
	MemberWorkers int    `env:"MEMBER_WORKERS" envDefault:"4"`
	ShowBanner    bool   `env:"SHOW_BANNER" envDefault:"true"`
}

// Load reads envFile (a missing file is fine) and parses the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Missing lists the required variables that are empty.
func (c *Config) Missing() []string {
	var out []string
	for _, v := range []struct {
		name, value string
	}{
		{"TOKEN", c.Token},
		{"CLIENT_ID", c.ClientID},
		{"GUILD_ID", c.GuildID},
	} {
		if v.value == "" {
			out = append(out, v.name)
		}
	}
	return out
}

// DSN returns DB_URL, or for postgres a URL built from the DB_* parts, or
// for sqlite a file under PROJECT_DIR/data.
func (c *Config) DSN() string {
	if c.DBURL != "" {
		return c.DBURL
	}
	if c.DBDriver == "postgres" {
		u := url.URL{
			Scheme:   "postgres",
			Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
			Path:     "/" + c.DBName,
			RawQuery: "sslmode=disable",
		}
		if c.DBUser != "" {
			u.User = url.UserPassword(c.DBUser, c.DBPassword)
		}
		return u.String()
	}
	return filepath.Join(c.ProjectDir, "data", "botport.db")
}
