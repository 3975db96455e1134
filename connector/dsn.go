package connector

import (
	"net"
	"net/url"
	"strconv"
)

// postgresURL renders cfg as a libpq connection URL, understood by both pgx
// and lib/pq. Empty params are dropped and the query is sorted by key, so
// equal configs give equal strings.
func postgresURL(cfg Config) *url.URL {
	u := &url.URL{Scheme: "postgres", Host: cfg.Host}
	if cfg.Port > 0 {
		u.Host = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	}
	switch {
	case cfg.Username != "" && cfg.Password != "":
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	case cfg.Username != "":
		u.User = url.User(cfg.Username)
	}
	if cfg.Database != "" {
		u.Path = "/" + cfg.Database
	}

	q := url.Values{}
	for k, v := range cfg.Params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u
}

// hostPort is the host:port form the database/sql drivers expect.
func hostPort(cfg Config, defaultPort int) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}
