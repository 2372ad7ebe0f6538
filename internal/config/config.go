package config

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Push     PushConfig     `yaml:"push"`
	SiegeWar SiegeWarConfig `yaml:"siege_war"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Path     string `yaml:"path"` // sqlite file
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type PushConfig struct {
	Endpoint       string `yaml:"endpoint"`
	ServerKey      string `yaml:"server_key"`
	BatchSize      int    `yaml:"batch_size"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type SiegeWarConfig struct {
	EventDay         string `yaml:"event_day"`
	Timezone         string `yaml:"timezone"`
	OpenDay          string `yaml:"open_day"`
	OpenHour         int    `yaml:"open_hour"`
	CloseIntervalMin int    `yaml:"close_interval_min"`
	SchedulerEnabled bool   `yaml:"scheduler_enabled"`
}

// SiegeWarSchedule is SiegeWarConfig with names resolved.
type SiegeWarSchedule struct {
	EventDay      time.Weekday
	OpenDay       time.Weekday
	OpenHour      int
	Location      *time.Location
	CloseInterval time.Duration
}

func Load(configFile string) *Config {
	c := &Config{
		Server:   ServerConfig{Port: 9871},
		Log:      LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Database: DatabaseConfig{Driver: "mysql", Port: 3306, Name: "clan_hub", Path: "clan-hub.db"},
		Auth:     AuthConfig{JWTSecret: "clan-hub-secret", TokenTTLHours: 7 * 24},
		Push:     PushConfig{BatchSize: 500, TimeoutSeconds: 10},
		SiegeWar: SiegeWarConfig{
			EventDay: "sunday", Timezone: "UTC", OpenDay: "thursday",
			CloseIntervalMin: 10, SchedulerEnabled: true,
		},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/clan-hub/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			// logger.Init needs this config, so the warning goes to the bootstrap slog logger
			if err := yaml.Unmarshal(data, c); err != nil {
				slog.Warn("config.parse_failed", "path", path, "err", err)
			}
			break
		}
	}

	envOverride(&c.Database.Driver, "DB_DRIVER")
	envOverride(&c.Database.Host, "DB_HOST")
	envOverride(&c.Database.User, "DB_USER")
	envOverride(&c.Database.Password, "DB_PASS")
	envOverride(&c.Database.Name, "DB_NAME")
	envOverride(&c.Database.Path, "DB_PATH")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Push.Endpoint, "PUSH_ENDPOINT")
	envOverride(&c.Push.ServerKey, "PUSH_SERVER_KEY")
	envOverride(&c.SiegeWar.Timezone, "SIEGE_TIMEZONE")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Database.Port, "DB_PORT")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

func (c *Config) SiegeWarSchedule() (SiegeWarSchedule, error) {
	var s SiegeWarSchedule
	var err error
	if s.EventDay, err = ParseWeekday(c.SiegeWar.EventDay); err != nil {
		return s, fmt.Errorf("siege_war.event_day: %w", err)
	}
	if s.OpenDay, err = ParseWeekday(c.SiegeWar.OpenDay); err != nil {
		return s, fmt.Errorf("siege_war.open_day: %w", err)
	}
	if c.SiegeWar.OpenHour < 0 || c.SiegeWar.OpenHour > 23 {
		return s, fmt.Errorf("siege_war.open_hour: %d out of range", c.SiegeWar.OpenHour)
	}
	s.OpenHour = c.SiegeWar.OpenHour
	if s.Location, err = time.LoadLocation(c.SiegeWar.Timezone); err != nil {
		return s, fmt.Errorf("siege_war.timezone: %w", err)
	}
	s.CloseInterval = time.Duration(c.SiegeWar.CloseIntervalMin) * time.Minute
	if s.CloseInterval <= 0 {
		s.CloseInterval = 10 * time.Minute
	}
	return s, nil
}

func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if n == full || n == full[:3] {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", name)
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}

	switch c.Database.Driver {
	case "sqlite":
		return gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", c.Database.Path)), gcfg)
	case "mysql", "":
	default:
		return nil, fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), gcfg)
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
