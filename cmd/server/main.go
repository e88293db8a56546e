// Command server runs the library identity portal.
//
// Configuration comes from the environment (and a .env file when present).
// Without PG_CONN_URL identities live in memory and are loaded from
// IDENTITY_SEED_FILE; with REDIS_ENABLED=true sessions and reset counters are
// shared through Redis.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jrmsu/libraryid/modules/portal"
	"github.com/jrmsu/libraryid/pkg/clientip"
	"github.com/jrmsu/libraryid/pkg/config"
	"github.com/jrmsu/libraryid/pkg/email"
	"github.com/jrmsu/libraryid/pkg/envelope"
	"github.com/jrmsu/libraryid/pkg/httpserver"
	"github.com/jrmsu/libraryid/pkg/logger"
	"github.com/jrmsu/libraryid/pkg/pg"
	"github.com/jrmsu/libraryid/pkg/qrcode"
	"github.com/jrmsu/libraryid/pkg/redis"
	"github.com/jrmsu/libraryid/pkg/resetlimit"
	"github.com/jrmsu/libraryid/pkg/session"
	"github.com/jrmsu/libraryid/pkg/totp"
	"github.com/jrmsu/libraryid/pkg/totpremote"
	"github.com/jrmsu/libraryid/svc/auth"
	"github.com/jrmsu/libraryid/svc/identity"
	"github.com/jrmsu/libraryid/svc/reset"
)

type appConfig struct {
	Env            string        `env:"APP_ENV" envDefault:"development"`
	Name           string        `env:"APP_NAME" envDefault:"libraryid"`
	PortalURL      string        `env:"PORTAL_URL" envDefault:"http://localhost:8080"`
	SeedFile       string        `env:"IDENTITY_SEED_FILE"`
	EnvelopeMaxAge time.Duration `env:"ENVELOPE_MAX_AGE" envDefault:"30m"`
	RedisEnabled   bool          `env:"REDIS_ENABLED" envDefault:"false"`
}

type identityStore interface {
	identity.Store
	identity.Writer
}

func main() {
	app := config.MustLoad[appConfig]()
	log := logger.New(
		logger.WithEnvironment(app.Env, app.Name),
		logger.WithContextExtractors(portal.RequestIDExtractor()),
	)

	if err := run(context.Background(), app, log); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, app appConfig, log *slog.Logger) error {
	ids, checks, closeIDs, err := openIdentities(ctx, log)
	if err != nil {
		return err
	}
	defer closeIDs()

	if app.SeedFile != "" {
		n, err := identity.LoadSeedFile(ctx, app.SeedFile, ids)
		if err != nil {
			return fmt.Errorf("load seed file: %w", err)
		}
		log.Info("identities seeded", slog.Int("count", n), slog.String("file", app.SeedFile))
	}

	sessCfg, err := config.Load[session.Config]()
	if err != nil {
		return err
	}
	resetCfg, err := config.Load[resetlimit.Config]()
	if err != nil {
		return err
	}

	var (
		sessStore  session.Store
		resetStore resetlimit.Store
	)
	if app.RedisEnabled {
		redisCfg, err := config.Load[redis.Config]()
		if err != nil {
			return err
		}
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		sessStore = session.NewRedisStore(client, sessCfg.RedisPrefix, sessCfg.IdleTimeout)
		resetStore = resetlimit.NewRedisStore(client, resetCfg.RedisKey)
		checks = append(checks, httpserver.Check{Name: "redis", Probe: redis.Healthcheck(client)})
	} else {
		mem := session.NewMemoryStore(sessCfg.IdleTimeout, sessCfg.CleanupInterval)
		defer mem.Close()
		sessStore = mem
		resetStore = resetlimit.NewMemoryStore()
	}

	authCfg, err := config.Load[auth.Config]()
	if err != nil {
		return err
	}
	authOpts := []auth.Option{auth.WithConfig(authCfg), auth.WithLogger(log)}
	if authCfg.RemoteURL != "" {
		authOpts = append(authOpts, auth.WithRemoteVerifier(totpremote.NewClient(authCfg.RemoteURL)))
	}
	sessions := session.NewManager(sessStore, session.WithIdleTimeout(sessCfg.IdleTimeout))
	codec := envelope.New(envelope.WithMaxAge(app.EnvelopeMaxAge))
	authSvc := auth.New(ids, sessions, codec, authOpts...)

	emailCfg, err := config.Load[email.Config]()
	if err != nil {
		return err
	}
	sender, err := email.NewSender(emailCfg)
	if err != nil {
		return err
	}
	limiter, err := resetlimit.New(resetStore, resetCfg)
	if err != nil {
		return err
	}
	resetSvc := reset.New(ids, limiter, reset.NewEmailNotifier(sender, app.PortalURL), reset.WithLogger(log))

	ipCfg, err := config.Load[clientip.Config]()
	if err != nil {
		return err
	}

	cookies := session.NewCookieTransport(sessCfg)
	guard := portal.NewGuard(authSvc, cookies, log)
	router := portal.Router(portal.RouterOptions{
		Auth:     portal.NewAuthService(authSvc, guard, cookies, log),
		Account:  portal.NewAccountService(authSvc, guard, qrcode.Default, log),
		Password: portal.NewPasswordService(resetSvc, guard, log, nil),
		Verify:   totpremote.NewHandler(totpremote.WithLogger(log)),
		Checks:   checks,
		ClientIP: clientip.New(ipCfg),
		Logger:   log,
	})

	httpCfg, err := config.Load[httpserver.Config]()
	if err != nil {
		return err
	}
	srv := httpserver.New(httpCfg, httpserver.WithLogger(log))
	return srv.Run(ctx, router)
}

// openIdentities connects to Postgres when PG_CONN_URL is set and falls back
// to an in-memory store otherwise.
func openIdentities(ctx context.Context, log *slog.Logger) (identityStore, []httpserver.Check, func(), error) {
	pgCfg, err := config.Load[pg.Config]()
	if err != nil {
		return nil, nil, nil, err
	}
	if pgCfg.ConnectionString == "" {
		log.Warn("PG_CONN_URL is not set, identities are kept in memory")
		mem, err := identity.NewMemoryStore()
		return mem, nil, func() {}, err
	}

	totpCfg, err := config.Load[totp.Config]()
	if err != nil {
		return nil, nil, nil, err
	}
	var opts []identity.PostgresOption
	if totpCfg.EncryptionKey != "" {
		sealer, err := totp.NewSealerFromConfig(totpCfg)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("TOTP_ENCRYPTION_KEY: %w", err)
		}
		opts = append(opts, identity.WithSealer(sealer))
	} else {
		log.Warn("TOTP_ENCRYPTION_KEY is not set, TOTP secrets are stored unencrypted")
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pg.Migrate(ctx, pool, identity.Migrations, identity.MigrationsDir, pgCfg, log); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}

	checks := []httpserver.Check{{Name: "postgres", Probe: pg.Healthcheck(pool)}}
	return identity.NewPostgresStore(pool, opts...), checks, pool.Close, nil
}
