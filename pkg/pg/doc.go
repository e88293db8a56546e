// Package pg opens a pgx connection pool for the identity store, applies
// embedded goose migrations over it and classifies common pgx errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//	err = pg.Migrate(ctx, pool, identity.Migrations, "migrations", cfg, log)
package pg
