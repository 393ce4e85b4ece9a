package environment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/e8yes/webchat/pkg/database"
	"github.com/e8yes/webchat/pkg/utilities"
)

// Mode selects which database a Context binds to and which destructive
// operations it allows.
type Mode int

const (
	ModeProd Mode = iota
	ModeTest
)

func (m Mode) String() string {
	switch m {
	case ModeProd:
		return "prod"
	case ModeTest:
		return "test"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses an APP_MODE value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return ModeProd, nil
	case "test":
		return ModeTest, nil
	default:
		return 0, fmt.Errorf("unknown mode %q", s)
	}
}

type Config struct {
	Mode   string `env:"APP_MODE" env-default:"prod"`
	HostID int64  `env:"HOST_ID" env-default:"1"`
}

// ConfigFromEnv reads environment settings from environment variables
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment env: %w", err)
	}
	return cfg, nil
}

var (
	ErrNotTestEnvironment = errors.New("operation only allowed in test mode")
	ErrNotInitialized     = errors.New("environment not initialized")
)

// seams for tests
var (
	connectDatabase = database.Connect
	migrateDatabase = database.Migrate
	signingKeyBits  = 2048
)

// Context owns the process-wide resources: the database handle, the id
// generator and the token signing key. It is safe for concurrent use.
type Context struct {
	mode   Mode
	hostID int64
	dbCfg  database.Config
	logger *zap.SugaredLogger

	mu   sync.RWMutex
	db   *sqlx.DB
	ids  *utilities.IDGenerator
	keys *RSAKeyGen
}

// New creates an uninitialized context for mode, reading HOST_ID and the
// database settings from the environment.
func New(mode Mode, logger *zap.SugaredLogger) (*Context, error) {
	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return newContext(mode, cfg.HostID, dbCfg, logger), nil
}

func newContext(mode Mode, hostID int64, dbCfg database.Config, logger *zap.SugaredLogger) *Context {
	return &Context{mode: mode, hostID: hostID, dbCfg: dbCfg, logger: logger}
}

// Init connects to the database of the context's mode, brings its schema up
// to date and creates the id and key generators. Calling Init on an
// initialized context does nothing.
func (c *Context) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db != nil {
		return nil
	}

	ids, err := utilities.NewIDGenerator(c.hostID)
	if err != nil {
		return err
	}
	keys, err := NewRSAKeyGen(signingKeyBits)
	if err != nil {
		return err
	}

	cfg := c.dbCfg
	if c.mode == ModeTest {
		cfg.DSN = cfg.TestDSN
	}
	sqlDB, err := connectDatabase(cfg)
	if err != nil {
		return fmt.Errorf("init %s environment: %w", c.mode, err)
	}
	if err := migrateDatabase(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return fmt.Errorf("init %s environment: %w", c.mode, err)
	}

	c.db = sqlx.NewDb(sqlDB, "postgres")
	c.ids = ids
	c.keys = keys
	c.logger.Infow("environment initialized", "mode", c.mode.String(), "host_id", c.hostID, "key_id", keys.KeyID())
	return nil
}

// CleanUp releases the database handle. The context may be initialized again.
func (c *Context) CleanUp() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	c.ids = nil
	c.keys = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	c.logger.Infow("environment cleaned up", "mode", c.mode.String())
	return nil
}

// DeleteAllData wipes all user data; system groups survive. Only test
// contexts may do this.
func (c *Context) DeleteAllData(ctx context.Context) error {
	if c.mode != ModeTest {
		return ErrNotTestEnvironment
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.db == nil {
		return ErrNotInitialized
	}
	return database.DeleteAllData(ctx, c.db.DB)
}

func (c *Context) Mode() Mode { return c.mode }

func (c *Context) HostID() int64 { return c.hostID }

// Database returns the handle, or nil before Init.
func (c *Context) Database() *sqlx.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

func (c *Context) IDs() *utilities.IDGenerator {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ids
}

func (c *Context) KeyGen() *RSAKeyGen {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys
}
