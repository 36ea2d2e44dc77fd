package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/guardlink/config"
	"github.com/target/guardlink/internal/data"
)

// DatabaseConfig contains configuration for database connections.
type DatabaseConfig struct {
	DBConfig    config.DBConfig
	RedisConfig config.RedisConfig
	Logger      *slog.Logger
}

// ConnectDB establishes a connection to the PostgreSQL database.
func ConnectDB(cfg DatabaseConfig) (*sql.DB, error) {
	// Build DSN using url.URL to safely handle special characters in credentials
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBConfig.User, cfg.DBConfig.Password),
		Host:   net.JoinHostPort(cfg.DBConfig.Host, strconv.Itoa(cfg.DBConfig.Port)),
		Path:   "/" + cfg.DBConfig.Name,
	}
	q := u.Query()
	q.Set("sslmode", cfg.DBConfig.SSLMode)
	u.RawQuery = q.Encode()
	dsn := u.String()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	maxOpen := cfg.DBConfig.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(5, maxOpen))
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := db.PingContext(ctx); pingErr != nil {
		if closeErr := db.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close database connection: %w", closeErr))
		}
		return nil, fmt.Errorf("ping database: %w", pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("database connected",
			"host", cfg.DBConfig.Host,
			"port", cfg.DBConfig.Port,
			"database", cfg.DBConfig.Name,
		)
	}

	return db, nil
}

// ConnectRedis resolves the configured topology, builds the matching client
// and pings it.
//
//nolint:ireturn // single, sentinel and cluster clients share redis.UniversalClient.
func ConnectRedis(cfg DatabaseConfig) (redis.UniversalClient, error) {
	target, err := resolveRedisTarget(cfg.RedisConfig)
	if err != nil {
		return nil, err
	}
	client := target.newClient()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		if closeErr := client.Close(); closeErr != nil {
			pingErr = errors.Join(pingErr, fmt.Errorf("close redis client: %w", closeErr))
		}
		return nil, fmt.Errorf("ping %s redis: %w", target.mode, pingErr)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("redis connected", "mode", target.mode, "addr", redactRedisAddr(target.desc), "db", target.opts.DB)
	}
	return client, nil
}

type redisMode string

const (
	redisModeDirect   redisMode = "direct"
	redisModeSentinel redisMode = "sentinel"
	redisModeCluster  redisMode = "cluster"
)

// redisTarget is a resolved Redis topology. It holds no connection.
type redisTarget struct {
	mode redisMode
	opts *redis.UniversalOptions
	desc string
}

//nolint:ireturn // see ConnectRedis.
func (t redisTarget) newClient() redis.UniversalClient {
	switch t.mode {
	case redisModeCluster:
		return redis.NewClusterClient(t.opts.Cluster())
	case redisModeSentinel:
		return redis.NewFailoverClient(t.opts.Failover())
	default:
		return redis.NewClient(t.opts.Simple())
	}
}

// resolveRedisTarget picks cluster, then sentinel, then a direct connection.
func resolveRedisTarget(cfg config.RedisConfig) (redisTarget, error) {
	switch {
	case cfg.UseCluster:
		return resolveCluster(cfg)
	case cfg.UseSentinel:
		return resolveSentinel(cfg)
	default:
		return resolveDirect(cfg)
	}
}

func resolveCluster(cfg config.RedisConfig) (redisTarget, error) {
	opts := &redis.UniversalOptions{Addrs: normalizeAddrs(cfg.ClusterNodes), Password: cfg.Password}

	// Without explicit nodes the URI names a single seed node.
	if len(opts.Addrs) == 0 {
		seed, err := redisOptionsFromURI(cfg.URI, cfg.Password)
		if err != nil {
			return redisTarget{}, fmt.Errorf("parse redis cluster url: %w", err)
		}
		if seed != nil {
			opts.Addrs = []string{seed.Addr}
			opts.Username = seed.Username
			opts.Password = seed.Password
			opts.TLSConfig = seed.TLSConfig
		}
	}
	if len(opts.Addrs) == 0 {
		return redisTarget{}, errors.New("redis cluster configuration requires at least one address")
	}
	return redisTarget{mode: redisModeCluster, opts: opts, desc: "cluster:" + strings.Join(opts.Addrs, ",")}, nil
}

func resolveSentinel(cfg config.RedisConfig) (redisTarget, error) {
	nodes := normalizeAddrs(cfg.SentinelNodes)
	if len(nodes) == 0 {
		return redisTarget{}, errors.New("redis sentinel configuration requires at least one sentinel node")
	}
	if strings.TrimSpace(cfg.SentinelMasterName) == "" {
		return redisTarget{}, errors.New("redis sentinel configuration requires a master name")
	}
	return redisTarget{
		mode: redisModeSentinel,
		opts: &redis.UniversalOptions{
			Addrs:            nodes,
			MasterName:       cfg.SentinelMasterName,
			Password:         cfg.Password,
			SentinelPassword: cfg.SentinelPassword,
			DB:               cfg.DB,
		},
		desc: "sentinel:" + cfg.SentinelMasterName,
	}, nil
}

func resolveDirect(cfg config.RedisConfig) (redisTarget, error) {
	o, err := redisOptionsFromURI(cfg.URI, cfg.Password)
	if err != nil {
		return redisTarget{}, fmt.Errorf("parse redis url: %w", err)
	}
	if o == nil {
		return redisTarget{}, errors.New("redis direct configuration requires a URI")
	}
	// A database index in the URL wins over REDIS_DB.
	if o.DB == 0 {
		o.DB = cfg.DB
	}
	return redisTarget{
		mode: redisModeDirect,
		opts: &redis.UniversalOptions{
			Addrs:     []string{o.Addr},
			Username:  o.Username,
			Password:  o.Password,
			DB:        o.DB,
			TLSConfig: o.TLSConfig,
		},
		desc: o.Addr,
	}, nil
}

// redisOptionsFromURI accepts either a redis:// URL or a bare host:port.
// It returns nil options for an empty URI. A password in the URL overrides
// defaultPassword.
func redisOptionsFromURI(uri, defaultPassword string) (*redis.Options, error) {
	trimmed := strings.TrimSpace(uri)
	if trimmed == "" {
		return nil, nil
	}
	if !isRedisURL(trimmed) {
		return &redis.Options{Addr: trimmed, Password: defaultPassword}, nil
	}
	o, err := redis.ParseURL(trimmed)
	if err != nil {
		return nil, err
	}
	if o.Password == "" {
		o.Password = defaultPassword
	}
	return o, nil
}

func normalizeAddrs(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, addr := range raw {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func isRedisURL(value string) bool {
	return strings.HasPrefix(value, "redis://") || strings.HasPrefix(value, "rediss://")
}

// redactRedisAddr drops credentials before an address is logged.
func redactRedisAddr(desc string) string {
	if u, err := url.Parse(desc); err == nil && u.User != nil {
		u.User = nil
		return u.String()
	}
	if i := strings.LastIndex(desc, "@"); i > -1 {
		return desc[i+1:]
	}
	return desc
}

// RunMigrations applies the embedded schema.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if err := data.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if logger != nil {
		logger.InfoContext(ctx, "database migrations completed")
	}

	return nil
}
