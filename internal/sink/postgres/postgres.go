// Package postgres writes event batches into a single-column PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/leandrodaf/midilog/sdk/contracts"
	"github.com/lib/pq"
)

var (
	// ErrConnection is returned when no connection could be established at startup.
	ErrConnection = errors.New("postgres connection failed")
	// ErrSinkWrite wraps every failed batch insert.
	ErrSinkWrite = errors.New("postgres write failed")
)

// DefaultConnectTimeout bounds each startup connection attempt when DBConfig leaves it unset.
const DefaultConnectTimeout = 10 * time.Second

// DBConfig holds the connection settings read from the environment.
type DBConfig struct {
	User           string
	Password       string
	Host           string
	Port           string
	Name           string
	SSLMode        string
	ConnectTimeout time.Duration
}

func (c DBConfig) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return c.ConnectTimeout
}

// DSN builds a connection URL using password as given.
func (c DBConfig) DSN(password string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.Name,
	}
	q := url.Values{}
	// lib/pq takes whole seconds; anything below one rounds up.
	q.Set("connect_timeout", strconv.Itoa(int((c.connectTimeout()+time.Second-1)/time.Second)))
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

type openFunc func(ctx context.Context, dsn string) (*sql.DB, error)

func openAndPing(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Connect opens the database. The first attempt sends the password
// query-escaped; if that fails a single second attempt sends it unchanged.
// Some deployments only accept one of the two encodings.
func Connect(ctx context.Context, cfg DBConfig, log contracts.Logger) (*sql.DB, error) {
	return connect(ctx, cfg, log, openAndPing)
}

func connect(ctx context.Context, cfg DBConfig, log contracts.Logger, open openFunc) (*sql.DB, error) {
	log.Info("Connecting to Postgres database",
		log.Field().String("host", cfg.Host),
		log.Field().String("port", cfg.Port),
		log.Field().String("database", cfg.Name))

	attempt := func(password string) (*sql.DB, error) {
		ctx, cancel := context.WithTimeout(ctx, cfg.connectTimeout())
		defer cancel()
		return open(ctx, cfg.DSN(password))
	}

	db, firstErr := attempt(url.QueryEscape(cfg.Password))
	if firstErr == nil {
		log.Info("Connected successfully")
		return db, nil
	}

	log.Warn("Connection failed, retrying with the raw password encoding", log.Field().Error("error", firstErr))
	db, secondErr := attempt(cfg.Password)
	if secondErr != nil {
		return nil, fmt.Errorf("%w: %s/%s: escaped password: %v; raw password: %v", ErrConnection, cfg.Host, cfg.Name, firstErr, secondErr)
	}
	log.Info("Connected successfully")
	return db, nil
}

// Execer is the subset of *sql.DB used by Sink.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Sink inserts each batch as one multi-row INSERT into table.
type Sink struct {
	db    Execer
	table string
}

// NewSink returns a Sink writing to table, which may be schema qualified.
func NewSink(db Execer, table string) (*Sink, error) {
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("postgres: destination table is required")
	}
	return &Sink{db: db, table: table}, nil
}

// Flush writes events in order with a single statement. Nothing is written for an empty batch.
func (s *Sink) Flush(ctx context.Context, events []contracts.Event) error {
	if len(events) == 0 {
		return nil
	}
	stmt, err := BuildInsert(s.table, events)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: %v", ErrSinkWrite, err)
	}
	return nil
}

// BuildInsert renders INSERT INTO <table> (v) VALUES ('<json-1>'), ('<json-2>'), ...;
func BuildInsert(table string, events []contracts.Event) (string, error) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quoteTable(table))
	b.WriteString(" (v) VALUES ")
	for i, ev := range events {
		row, err := json.Marshal(ev)
		if err != nil {
			return "", fmt.Errorf("encode event %d: %w", i, err)
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		b.WriteString(pq.QuoteLiteral(string(row)))
		b.WriteString(")")
	}
	b.WriteString(";")
	return b.String(), nil
}

// quoteTable quotes each dot-separated part of table. Parts written without
// double quotes are folded to lower case the way Postgres folds bare
// identifiers; double-quoted parts keep their case.
func quoteTable(table string) string {
	parts := strings.Split(table, ".")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			p = strings.ReplaceAll(p[1:len(p)-1], `""`, `"`)
		} else {
			p = strings.ToLower(p)
		}
		parts[i] = pq.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}
