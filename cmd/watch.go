package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sljivkov/dextick/chains"
	"github.com/sljivkov/dextick/config"
	"github.com/sljivkov/dextick/domain"
	"github.com/sljivkov/dextick/handler"
	"github.com/sljivkov/dextick/metrics"
	"github.com/sljivkov/dextick/observer"
	"github.com/sljivkov/dextick/publisher"
	"github.com/sljivkov/dextick/repository"
	"github.com/sljivkov/dextick/repository/pg"
	"github.com/sljivkov/dextick/repository/sqlite"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the pool and publish an update on every block",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return watch(ctx, cfg, cfg.Logger())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func openHistory(cfg *config.Config, log logrus.FieldLogger) (*repository.Repository, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DBDriver {
	case "sqlite":
		db, err = sqlite.New(cfg.DBDSN)
	case "postgres":
		db, err = pg.New(cfg.DBDSN)
	default:
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.DBDriver, err)
	}

	return repository.New(db, log)
}

func watch(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	collector := metrics.NewCollector("")
	store := handler.NewStore()
	fanout := NewFanout(log)

	fanout.Add("snapshot", func(_ context.Context, update domain.Update) error {
		store.Put(update)
		return nil
	})

	handlerOpts := []handler.Option{handler.WithMetrics(collector.Handler())}

	repo, err := openHistory(cfg, log)
	if err != nil {
		return err
	}

	if repo != nil {
		defer repo.Close()

		fanout.Add("history", repo.SaveUpdate)
		handlerOpts = append(handlerOpts, handler.WithHistory(repo))
		log.WithField("driver", cfg.DBDriver).Info("🗄️ Recording price history")
	}

	if cfg.NATSURL != "" {
		conn, err := publisher.Connect(cfg.NATSURL, log)
		if err != nil {
			return err
		}
		defer conn.Close()

		pub := publisher.New(conn, cfg.NATSPrefix, cfg.Precision, log)
		fanout.Add("nats", func(_ context.Context, update domain.Update) error {
			return pub.Publish(update)
		})
		log.WithField("url", cfg.NATSURL).Info("📤 Publishing updates to NATS")
	}

	updates := make(chan domain.Update, 64)
	fanoutDone := make(chan struct{})

	go func() {
		defer close(fanoutDone)
		fanout.Run(context.WithoutCancel(ctx), updates)
	}()

	obs, err := observer.New(cfg.Pool, cfg.Window(), chains.Dialer(cfg.RPCURL, log),
		func(update domain.Update) { updates <- update },
		observer.WithLogger(log),
		observer.WithMetrics(collector),
		observer.WithResubscribeBackoff(cfg.Backoff),
	)
	if err != nil {
		close(updates)
		<-fanoutDone

		return err
	}

	if err := obs.Start(ctx); err != nil {
		close(updates)
		<-fanoutDone

		return err
	}

	var (
		srv    *http.Server
		srvErr = make(chan error, 1)
	)

	if cfg.HTTPAddr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           handler.New(store, cfg.Precision, log, handlerOpts...).Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			log.WithField("addr", cfg.HTTPAddr).Info("🌐 Starting server")

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				srvErr <- err
			}
		}()
	}

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("👋 Shutting down")
	case runErr = <-srvErr:
		log.WithError(runErr).Error("❌ Server failed")
	}

	obs.Stop()
	close(updates)
	<-fanoutDone

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("server shutdown")
		}
	}

	return runErr
}
