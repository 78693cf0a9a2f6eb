package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultVacationDays = 25
	DefaultSickDays     = 10
	DefaultPersonalDays = 5
)

type Config struct {
	Server struct {
		Host                 string
		JWTSecret            string `toml:"jwt_secret"`
		ReadTimeout          time.Duration
		WriteTimeout         time.Duration
		ReadHeaderTimeout    time.Duration
		StrReadTimeout       string `toml:"read_timeout"`
		StrWriteTimeout      string `toml:"write_timeout"`
		StrReadHeaderTimeout string `toml:"read_header_timeout"`
	}
	Database struct {
		Host     string
		User     string
		Password string
		Database string
	}
	Redis struct {
		RedisAddr          string `toml:"redis_addr"`
		RedisPassword      string `toml:"redis_password"`
		RedisDB            int    `toml:"redis_db"`
		AccessTokenTTL     time.Duration
		RefreshTokenTTL    time.Duration
		StrAccessTokenTTL  string `toml:"access_token_ttl"`
		StrRefreshTokenTTL string `toml:"refresh_token_ttl"`
	}
	HR struct {
		VacationDaysPerYear int `toml:"vacation_days_per_year"`
		SickDaysPerYear     int `toml:"sick_days_per_year"`
		PersonalDaysPerYear int `toml:"personal_days_per_year"`
	} `toml:"hr"`
}

// PTOAllotment returns the annual allotment of days for a PTO type, falling
// back to the documented defaults when the config leaves a type unset.
func (c *Config) PTOAllotment(ptoType string) int {
	switch ptoType {
	case "vacation":
		if c.HR.VacationDaysPerYear > 0 {
			return c.HR.VacationDaysPerYear
		}
		return DefaultVacationDays
	case "sick":
		if c.HR.SickDaysPerYear > 0 {
			return c.HR.SickDaysPerYear
		}
		return DefaultSickDays
	case "personal":
		if c.HR.PersonalDaysPerYear > 0 {
			return c.HR.PersonalDaysPerYear
		}
		return DefaultPersonalDays
	default:
		return 0
	}
}

func GetConfig(logger *slog.Logger) (*Config, error) {
	data, err := os.ReadFile("configs/config.toml")
	if err != nil {
		logger.Error("Error read config.toml file", slog.String("error", err.Error()))
		return nil, err
	}

	var cfg *Config

	if _, tomlErr := toml.Decode(string(data), &cfg); tomlErr != nil {
		logger.Error("Error decode config.toml file", slog.String("error", tomlErr.Error()))
		return nil, tomlErr
	}

	cfg.Server.ReadTimeout, err = parseTimeout(cfg.Server.StrReadTimeout, "read_timeout")
	if err != nil {
		return nil, err
	}
	cfg.Server.WriteTimeout, err = parseTimeout(cfg.Server.StrWriteTimeout, "write_timeout")
	if err != nil {
		return nil, err
	}
	cfg.Server.ReadHeaderTimeout, err = parseTimeout(cfg.Server.StrReadHeaderTimeout, "read_header_timeout")
	if err != nil {
		return nil, err
	}

	cfg.Redis.AccessTokenTTL, err = time.ParseDuration(cfg.Redis.StrAccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid access_token_ttl: %w", err)
	}
	cfg.Redis.RefreshTokenTTL, err = time.ParseDuration(cfg.Redis.StrRefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh_token_ttl: %w", err)
	}

	if cfg.Server.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}

	logger.Info("Config is loaded")
	return cfg, nil
}

func parseTimeout(raw, field string) (time.Duration, error) {
	if raw == "" {
		return 30 * time.Second, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}

	return d, nil
}
