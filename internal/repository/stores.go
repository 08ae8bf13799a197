package repository

import (
	"context"
	"fmt"

	"taskboard/internal/config"
	"taskboard/internal/db"
)

// Stores bundles the repositories of the configured database driver.
type Stores struct {
	Users UserRepository
	Tasks TaskRepository

	close func(ctx context.Context) error
}

// Close releases the database connection.
func (s *Stores) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects to the database selected by cfg.DBDriver, prepares its
// schema and returns the repositories backed by it.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		client, err := db.NewMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		database := client.Database(cfg.MongoDatabase)
		if err := db.EnsureMongoIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return &Stores{
			Users: NewMongoUserRepository(database),
			Tasks: NewMongoTaskRepository(database),
			close: client.Disconnect,
		}, nil

	case config.DriverMySQL:
		gormDB, err := db.NewMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateMySQL(gormDB); err != nil {
			_ = db.CloseMySQL(gormDB)
			return nil, err
		}
		return &Stores{
			Users: NewUserRepository(gormDB),
			Tasks: NewTaskRepository(gormDB),
			close: func(context.Context) error { return db.CloseMySQL(gormDB) },
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}
