package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/parishkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/parishkeeper/internal/client/backend"
	"github.com/dmitrijs2005/parishkeeper/internal/client/cli"
	"github.com/dmitrijs2005/parishkeeper/internal/client/config"
	"github.com/dmitrijs2005/parishkeeper/internal/client/coordinator"
	"github.com/dmitrijs2005/parishkeeper/internal/client/device"
	"github.com/dmitrijs2005/parishkeeper/internal/client/gate"
	"github.com/dmitrijs2005/parishkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/linkages"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/parishkeeper/internal/client/repositories/uploads"
	"github.com/dmitrijs2005/parishkeeper/internal/client/requirements"
	"github.com/dmitrijs2005/parishkeeper/internal/client/services"
	"github.com/dmitrijs2005/parishkeeper/internal/client/upload"
	"github.com/dmitrijs2005/parishkeeper/internal/filex"
	"github.com/dmitrijs2005/parishkeeper/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	log := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "client stopped", "error", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	if _, err := filex.EnsureParentDir(cfg.LocalDBPath); err != nil {
		return err
	}
	db, err := localdb.Init(ctx, cfg.LocalDBPath)
	if err != nil {
		return fmt.Errorf("local db: %w", err)
	}
	defer db.Close()

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	opts := backend.Options{
		URL:             cfg.BackendURL,
		AnonKey:         cfg.AnonKey,
		HTTPClient:      httpClient,
		Sessions:        metadata.NewSQLiteRepository(db),
		Logger:          log,
		RefreshInterval: cfg.TokenRefreshInterval,
		RefreshMargin:   cfg.TokenRefreshMargin,
	}

	if cfg.RelationalDriver == config.DriverPostgres {
		pg, err := backend.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		opts.Tables = backend.NewPostgresTables(pg)
	}

	var transport upload.Transport
	switch cfg.StorageDriver {
	case config.DriverS3:
		s3c, err := upload.NewS3Client(ctx, upload.S3Options{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return err
		}
		transport = upload.NewS3Transport(s3c, cfg.ChunkSize)
		opts.Storage = backend.NewS3Storage(cfg.S3Region, cfg.S3PublicBaseURL)
	default:
		transport = upload.NewTUSTransport(httpClient, cfg.AnonKey)
	}

	client := backend.New(opts)
	client.Start(ctx)
	defer client.Stop()

	uploader := upload.New(transport, client.Storage(), uploads.NewSQLiteRepository(db), upload.Config{
		ChunkSize:   cfg.ChunkSize,
		RetryDelays: cfg.RetryDelays,
	}, log)
	if _, err := uploader.PruneStale(ctx, cfg.ResumeMaxAge); err != nil {
		log.Warn(ctx, "cannot prune resume ledger", "error", err)
	}

	reader := bufio.NewReader(os.Stdin)
	coord := coordinator.New(coordinator.Deps{
		Tokens:   client.Auth(),
		Tables:   client.Tables(),
		Registry: requirements.Default(),
		Picker:   device.NewPromptPicker(cli.Asker(reader, os.Stdout)),
		Uploader: uploader,
		Ledger:   linkages.NewSQLiteRepository(db),
		Log:      log,
	})

	app := cli.NewApp(cli.Deps{
		Auth:          services.NewAuthService(client.Auth(), db, coord, log),
		Appointments:  services.NewAppointmentService(client.Tables()),
		Notifications: services.NewNotificationService(client.Tables(), client.Realtime()),
		Uploads:       coord,
		Gate:          gate.New(client.Tables(), log),
		Reader:        reader,
		Out:           os.Stdout,
		Log:           log,
	})

	app.Run(ctx)
	return nil
}
