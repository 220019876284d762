package runtime

import (
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Config represents database configuration.
type Config struct {
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Charset  string            `koanf:"charset"`
	Options  map[string]string `koanf:"options"`
}

// DefaultConfig returns a default database configuration.
func DefaultConfig() Config {
	return Config{
		Host:    "localhost",
		Port:    3306,
		Charset: "utf8mb4",
	}
}

// DSN renders the configuration as a go-sql-driver/mysql data source name.
func (c Config) DSN() string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	charset := c.Charset
	if charset == "" {
		charset = "utf8mb4"
	}

	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(c.Host, strconv.Itoa(port))
	cfg.DBName = c.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	// Report matched rows for UPDATE so an unchanged row still counts.
	cfg.ClientFoundRows = true
	cfg.Params = map[string]string{"charset": charset}
	for k, v := range c.Options {
		cfg.Params[k] = v
	}

	return cfg.FormatDSN()
}
