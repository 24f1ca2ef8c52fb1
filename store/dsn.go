package store

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ParseURL maps a database URL to an engine name and a DSN its driver
// accepts. Postgres URLs pass through, mysql:// URLs are rewritten into the
// driver's native form and sqlite URLs become file paths.
func ParseURL(raw string) (engine, dsn string, err error) {
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		if strings.HasPrefix(raw, "file:") || strings.HasSuffix(raw, ".db") || raw == ":memory:" {
			return "sqlite", raw, nil
		}
		return "", "", fmt.Errorf("database url %q has no scheme", SanitizeDSN(raw))
	}

	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return "postgres", raw, nil
	case "sqlite", "sqlite3":
		if rest == "" {
			return "", "", fmt.Errorf("database url %q has no path", raw)
		}
		return "sqlite", rest, nil
	case "mysql":
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("parse database url: %w", err)
		}
		cfg := mysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		cfg.DBName = strings.TrimPrefix(u.Path, "/")
		cfg.ParseTime = true
		if u.User != nil {
			cfg.User = u.User.Username()
			cfg.Passwd, _ = u.User.Password()
		}
		if len(u.Query()) > 0 {
			cfg.Params = map[string]string{}
			for k, v := range u.Query() {
				cfg.Params[k] = v[len(v)-1]
			}
		}
		return "mysql", cfg.FormatDSN(), nil
	default:
		return "", "", fmt.Errorf("unsupported database scheme %q", scheme)
	}
}
