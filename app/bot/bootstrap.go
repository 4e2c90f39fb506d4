package bot

import (
	"fmt"

	appconfig "github.com/devsque/codegate/app/config"
	"github.com/devsque/codegate/app/projects"
	"github.com/devsque/codegate/core/bootstrap"
	"github.com/devsque/codegate/core/cmd"
	coreconfig "github.com/devsque/codegate/core/config"
)

// LoadConfig adapts appconfig.Load to cmd.Options.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	return appconfig.Load(path)
}

// Bootstrap opens storage and builds the application.
func Bootstrap(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := carrier.(*appconfig.Config)
	if !ok || cfg == nil {
		return nil, fmt.Errorf("bot: unexpected config type %T", carrier)
	}

	store, closer, err := OpenStore(cfg, nil)
	if err != nil {
		return nil, err
	}
	app, err := New(cfg, store)
	if err != nil {
		_ = closer()
		return nil, err
	}
	app.closer = closer
	return app, nil
}

// OpenStore initializes logging and the configured project store. The
// returned func releases the underlying database. A nil initLogger selects
// the default logger.
func OpenStore(cfg *appconfig.Config, initLogger func(*coreconfig.Config) error) (projects.Store, func() error, error) {
	res, err := bootstrap.Run(bootstrap.Options{
		Config:     cfg.CoreConfig(),
		LoggerInit: initLogger,
		Storage:    cfg.Store.Driver,
		Database:   cfg.Database,
		SQLitePath: cfg.Store.SQLitePath,
	})
	if err != nil {
		return nil, nil, err
	}
	store, err := StoreFor(res)
	if err != nil {
		_ = res.Close()
		return nil, nil, err
	}
	return store, res.Close, nil
}

// StoreFor picks the project store backed by the opened database.
func StoreFor(res *bootstrap.Result) (projects.Store, error) {
	switch {
	case res == nil:
		return nil, fmt.Errorf("bot: nil bootstrap result")
	case res.DB != nil:
		return projects.NewPostgresStore(res.DB), nil
	case res.SQLite != nil:
		return projects.NewSQLiteStore(res.SQLite)
	}
	return projects.NewMemoryStore(), nil
}
