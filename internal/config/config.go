package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	goyaml "gopkg.in/yaml.v3"
)

type Config struct {
	BotToken    string  `yaml:"bot_token"`
	DBPath      string  `yaml:"db_path"`
	DatabaseURL string  `yaml:"database_url"`
	AdminIDs    []int64 `yaml:"admin_ids"`
	Timezone    string  `yaml:"timezone"`
	HTTPAddr    string  `yaml:"http_addr"`
	// SessionStore is "db" or "memory".
	SessionStore string        `yaml:"session_store"`
	FormTTL      time.Duration `yaml:"form_ttl"`
	YandexDisk   YandexDisk    `yaml:"yandex_disk"`
	Schedule     Schedule      `yaml:"schedule"`
}

type YandexDisk struct {
	Token  string `yaml:"token"`
	Folder string `yaml:"folder"`
}

type Schedule struct {
	OverdueEvery      time.Duration `yaml:"overdue_every"`
	RemindersHour     int           `yaml:"reminders_hour"`
	OnboardingHour    int           `yaml:"onboarding_hour"`
	PitchingHour      int           `yaml:"pitching_hour"`
	SMMHour           int           `yaml:"smm_hour"`
	PitchingAlertDays int           `yaml:"pitching_alert_days"`
}

func Default() *Config {
	return &Config{
		DBPath:       "label.db",
		Timezone:     "Europe/Moscow",
		SessionStore: "db",
		YandexDisk:   YandexDisk{Folder: "LabelBot"},
		Schedule: Schedule{
			OverdueEvery:      time.Hour,
			RemindersHour:     10,
			OnboardingHour:    15,
			PitchingHour:      9,
			SMMHour:           9,
			PitchingAlertDays: 3,
		},
	}
}

// Load reads the YAML file at path over the defaults and applies environment
// overrides. A missing file is tolerated so the bot can run from env alone.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("WARN config %s not found, using defaults and environment", path)
	case err != nil:
		return nil, err
	default:
		if err := goyaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.BotToken = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("TZ"); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv("YANDEX_DISK_TOKEN"); v != "" {
		c.YandexDisk.Token = v
	}
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		c.HTTPAddr = v
	}
	if v := os.Getenv("ADMIN_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return fmt.Errorf("ADMIN_IDS: %w", err)
		}
		c.AdminIDs = ids
	}
	return nil
}

func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, f := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == ';' }) {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *Config) Validate() error {
	if c.DSN() == "" {
		return errors.New("db_path or database_url is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if c.SessionStore != "db" && c.SessionStore != "memory" {
		return fmt.Errorf("session_store must be db or memory, got %q", c.SessionStore)
	}
	if c.FormTTL < 0 {
		return errors.New("form_ttl must not be negative")
	}
	s := c.Schedule
	for name, h := range map[string]int{
		"reminders_hour": s.RemindersHour, "onboarding_hour": s.OnboardingHour,
		"pitching_hour": s.PitchingHour, "smm_hour": s.SMMHour,
	} {
		if h < 0 || h > 23 {
			return fmt.Errorf("schedule.%s must be 0..23, got %d", name, h)
		}
	}
	if s.OverdueEvery < 0 || s.PitchingAlertDays < 0 {
		return errors.New("schedule values must not be negative")
	}
	return nil
}

// DSN is what the store opens: a PostgreSQL URL when set, else the SQLite path.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
