package config

import (
	"fmt"
	"net/url"

	dbutils "github.com/tendant/db-utils/db"
)

// DatabaseConfig holds PostgreSQL configuration. It is only read when
// ADMIN_PERSISTENCE is "postgres".
type DatabaseConfig struct {
	Host     string `env:"ADMIN_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"ADMIN_PG_PORT" env-default:"5432"`
	Database string `env:"ADMIN_PG_DATABASE" env-default:"admin_db"`
	User     string `env:"ADMIN_PG_USER" env-default:"admin"`
	Password string `env:"ADMIN_PG_PASSWORD" env-default:"pwd"`
	Schema   string `env:"ADMIN_PG_SCHEMA" env-default:"public"`
}

// ToDatabaseURL returns the URL used by migrations
func (d DatabaseConfig) ToDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s,public",
		url.QueryEscape(d.User), url.QueryEscape(d.Password), d.Host, d.Port, d.Database, d.Schema)
}

// ToDbConfig converts the config to a db-utils DbConfig
func (d DatabaseConfig) ToDbConfig() dbutils.DbConfig {
	return dbutils.DbConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		Password: d.Password,
	}
}

func (d DatabaseConfig) validate() ValidationErrors {
	return CollectErrors(
		RequireNonEmpty("ADMIN_PG_HOST", d.Host),
		RequireValidPort("ADMIN_PG_PORT", d.Port),
		RequireNonEmpty("ADMIN_PG_DATABASE", d.Database),
		RequireNonEmpty("ADMIN_PG_USER", d.User),
	)
}
