// Package datawarehouse provides read-only access to the MS SQL Server ledger
// warehouse. The lead workflow uses it to learn whether a customer account has
// settled its balance before a project can be handed over.
package datawarehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/microsoft/go-mssqldb" // MS SQL Server driver
	"github.com/woodcraft-crm/leadflow-api/internal/config"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultInitialBackoff = 1 * time.Second
	defaultMaxBackoff     = 10 * time.Second
	defaultBackoffFactor  = 2.0

	defaultHealthCheckTimeout = 5 * time.Second

	// LedgerTable holds one row per invoice with billed and received amounts
	LedgerTable = "dbo.customer_ledger"
)

// ErrDisabled is returned by queries when no warehouse connection exists
var ErrDisabled = errors.New("data warehouse is not enabled")

// Client provides read-only access to the data warehouse
type Client struct {
	db           *sql.DB
	logger       *zap.Logger
	queryTimeout time.Duration
}

// HealthStatus represents the health check result for the data warehouse connection
type HealthStatus struct {
	Status    string `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
	Open      int    `json:"open_connections"`
	InUse     int    `json:"in_use"`
	Idle      int    `json:"idle"`
}

// LedgerBalance is the outstanding amount of a customer account
type LedgerBalance struct {
	AccountID     string
	Billed        float64
	Received      float64
	PendingAmount float64
	IsPaid        bool
}

// NewClient connects to the warehouse, retrying transient failures with
// exponential backoff. It returns a nil client and no error when the
// warehouse is disabled or credentials are missing.
func NewClient(cfg *config.DataWarehouseConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Data warehouse connection disabled")
		return nil, nil
	}
	if cfg.URL == "" || cfg.User == "" || cfg.Password == "" {
		logger.Warn("Data warehouse enabled but missing credentials, skipping connection",
			zap.Bool("url_present", cfg.URL != ""),
			zap.Bool("user_present", cfg.User != ""),
			zap.Bool("password_present", cfg.Password != ""),
		)
		return nil, nil
	}

	dsn := ConnectionURL(cfg)

	var lastErr error
	backoff := defaultInitialBackoff
	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		db, err := open(dsn, cfg)
		if err == nil {
			logger.Info("Data warehouse connection established", zap.Int("attempts_taken", attempt))
			return &Client{db: db, logger: logger, queryTimeout: cfg.QueryTimeoutDuration()}, nil
		}

		lastErr = err
		logger.Warn("Data warehouse connection attempt failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
		)
		if attempt < defaultMaxRetries {
			time.Sleep(backoff)
			backoff = min(time.Duration(float64(backoff)*defaultBackoffFactor), defaultMaxBackoff)
		}
	}

	return nil, fmt.Errorf("failed to connect to data warehouse after %d attempts: %w", defaultMaxRetries, lastErr)
}

func open(dsn string, cfg *config.DataWarehouseConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	ctx, cancel := context.WithTimeout(context.Background(), defaultHealthCheckTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// ConnectionURL builds a sqlserver:// URL from a host:port/database style URL.
// The port defaults to 1433.
func ConnectionURL(cfg *config.DataWarehouseConfig) string {
	hostPort, database, _ := strings.Cut(cfg.URL, "/")
	host, port, found := strings.Cut(hostPort, ":")
	if !found || port == "" {
		port = "1433"
	}

	query := url.Values{}
	query.Add("encrypt", "true")
	query.Add("TrustServerCertificate", "false")
	query.Add("connection timeout", "30")
	query.Add("ApplicationIntent", "ReadOnly")
	if database != "" {
		query.Add("database", database)
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     host + ":" + port,
		RawQuery: query.Encode(),
	}
	return u.String()
}

// Close closes the connection pool
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close data warehouse connection: %w", err)
	}
	return nil
}

// IsEnabled returns true if the client is initialized and ready for queries
func (c *Client) IsEnabled() bool {
	return c != nil && c.db != nil
}

// HealthCheck pings the warehouse and reports pool statistics
func (c *Client) HealthCheck(ctx context.Context) *HealthStatus {
	if !c.IsEnabled() {
		return &HealthStatus{Status: "disabled"}
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHealthCheckTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.db.PingContext(ctx)
	stats := c.db.Stats()

	status := &HealthStatus{
		Status:    "healthy",
		LatencyMs: time.Since(start).Milliseconds(),
		Open:      stats.OpenConnections,
		InUse:     stats.InUse,
		Idle:      stats.Idle,
	}
	if err != nil {
		c.logger.Warn("Data warehouse health check failed", zap.Error(err))
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	return status
}

const pendingAmountQuery = `
SELECT
	COALESCE(SUM(billed_amount), 0)   AS billed,
	COALESCE(SUM(received_amount), 0) AS received
FROM ` + LedgerTable + `
WHERE account_id = @account AND is_cancelled = 0`

// PendingAmount returns the unpaid balance of a customer account. An account
// with no ledger rows has nothing pending.
func (c *Client) PendingAmount(ctx context.Context, accountID string) (*LedgerBalance, error) {
	if !c.IsEnabled() {
		return nil, ErrDisabled
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.queryTimeout)
		defer cancel()
	}

	bal := &LedgerBalance{AccountID: accountID}
	start := time.Now()
	err := c.db.QueryRowContext(ctx, pendingAmountQuery, sql.Named("account", accountID)).
		Scan(&bal.Billed, &bal.Received)
	if err != nil {
		c.logger.Error("Ledger balance query failed",
			zap.String("account_id", accountID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to query ledger balance: %w", err)
	}

	bal.PendingAmount = bal.Billed - bal.Received
	if bal.PendingAmount < 0 {
		bal.PendingAmount = 0
	}
	bal.IsPaid = bal.PendingAmount == 0
	return bal, nil
}
