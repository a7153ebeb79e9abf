package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/visadesk-backend/pkg/config"
	"github.com/angelmondragon/visadesk-backend/pkg/db"
	"github.com/angelmondragon/visadesk-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations on boot when the app runs in dev
// with VISADESK_AUTO_MIGRATE set. SQLite databases are skipped.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	if cfg.DB.IsSQLite() {
		logg.Warn(ctx, "auto-migrate skipped: "+ErrUnsupportedDialect.Error())
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	migrator, err := New(sqlDB, "")
	if err != nil {
		return err
	}

	logg.Info(ctx, "running migrations (dev auto-run)")
	applied, err := migrator.Up(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "applied", len(applied)), "migrations completed")
	return nil
}
