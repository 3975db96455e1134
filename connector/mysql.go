package connector

import (
	"context"
	"database/sql"

	"github.com/go-sql-driver/mysql"

	"github.com/Konsultn-Engineering/xqlorm/database"
	"github.com/Konsultn-Engineering/xqlorm/dialect"
)

func mysqlDSN(cfg Config) string {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg, 3306)
	mc.DBName = cfg.Database
	mc.ParseTime = true
	if len(cfg.Params) > 0 {
		mc.Params = make(map[string]string, len(cfg.Params))
		for k, v := range cfg.Params {
			mc.Params[k] = v
		}
	}
	if cfg.SSLMode != "" && cfg.SSLMode != "disable" && cfg.SSLMode != "prefer" {
		mc.TLSConfig = "true"
	}
	return mc.FormatDSN()
}

func connectMySQL(_ context.Context, cfg Config, opts ...database.Option) (Connection, error) {
	db, err := sql.Open("mysql", mysqlDSN(cfg))
	if err != nil {
		return nil, err
	}
	return newSQLConnection(db, dialect.NewMySQLDialect(), cfg.Pool, opts), nil
}
