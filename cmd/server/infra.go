package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycore/internal/kyc/driver"
	"kycore/internal/kyc/driver/jumio"
	"kycore/internal/kyc/driver/shuftipro"
	"kycore/internal/kyc/lock"
	"kycore/internal/kyc/notify"
	"kycore/internal/kyc/service"
	"kycore/internal/kyc/store"
	"kycore/internal/platform/config"
	"kycore/internal/platform/redis"
	"kycore/pkg/platform/circuit"
)

// infrastructure owns the handles opened at startup and closes them in reverse.
type infrastructure struct {
	log     *slog.Logger
	closers []func()
}

func (i *infrastructure) onClose(fn func()) {
	i.closers = append(i.closers, fn)
}

func (i *infrastructure) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

// openStore connects to PostgreSQL when a URL is configured and keeps records in
// memory otherwise.
func (i *infrastructure) openStore(ctx context.Context, cfg config.DatabaseConfig) (service.RecordStore, error) {
	if cfg.URL == "" {
		i.log.Warn("DATABASE_URL not set, verification records are kept in memory")
		return store.NewInMemoryStore(), nil
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	i.onClose(func() { _ = db.Close() })
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if cfg.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}
	return store.NewPostgres(db), nil
}

// openLocker uses Redis when configured so that several replicas serialize on the
// same reference.
func (i *infrastructure) openLocker(ctx context.Context, cfg config.RedisConfig) (lock.Locker, error) {
	client, err := redis.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return lock.NewShardedLocker(), nil
	}
	i.onClose(func() { _ = client.Close() })
	return lock.NewRedisLocker(client.Client), nil
}

// openNotifier always logs notifications and additionally publishes them to Kafka
// when brokers are configured.
func (i *infrastructure) openNotifier(ctx context.Context, cfg config.KafkaConfig) (notify.Notifier, error) {
	logSink := notify.NewLogNotifier(i.log)
	if len(cfg.Brokers) == 0 {
		return logSink, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(cfg.PublishTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	i.onClose(client.Close)
	if cfg.CreateTopic {
		if err := notify.EnsureTopic(ctx, kadm.NewClient(client), cfg.Topic, cfg.Partitions, cfg.ReplicationFactor); err != nil {
			return nil, err
		}
	}
	kafkaSink := notify.NewKafkaNotifier(client, cfg.Topic,
		notify.WithFallback(logSink),
		notify.WithBreaker(circuit.New("kafka-notify", circuit.WithCooldown(cfg.BreakerCooldown))),
		notify.WithPublishTimeout(cfg.PublishTimeout),
		notify.WithKafkaLogger(i.log),
	)
	return notify.FanOut{logSink, kafkaSink}, nil
}

// documentStorage picks where downloaded documents go. The drivers prefix every key
// with DocumentStoragePath, so the file store is rooted at DocumentStorageRoot.
func documentStorage(cfg config.KYC) driver.DocumentStorage {
	if !cfg.AutoDownloadDocuments {
		return driver.DiscardStorage{}
	}
	return driver.FileStorage{Root: cfg.DocumentStorageRoot}
}

func buildRegistry(cfg config.Config, log *slog.Logger) (*driver.Registry, error) {
	storage := documentStorage(cfg.KYC)

	sp := shuftipro.New(shuftipro.Config{
		Enabled:     cfg.ShuftiPro.Enabled,
		BaseURL:     cfg.ShuftiPro.BaseURL,
		ClientID:    cfg.ShuftiPro.ClientID,
		SecretKey:   cfg.ShuftiPro.SecretKey,
		CallbackURL: cfg.ShuftiPro.CallbackURL,
		RedirectURL: cfg.ShuftiPro.RedirectURL,
		StoragePath: cfg.KYC.DocumentStoragePath,
		Timeout:     cfg.ShuftiPro.Timeout,
	}, shuftipro.WithLogger(log), shuftipro.WithStorage(storage))

	jm := jumio.New(jumio.Config{
		Enabled:       cfg.Jumio.Enabled,
		BaseURL:       cfg.Jumio.BaseURL,
		AuthURL:       cfg.Jumio.AuthURL,
		ClientID:      cfg.Jumio.ClientID,
		ClientSecret:  cfg.Jumio.ClientSecret,
		WebhookSecret: cfg.Jumio.WebhookSecret,
		WorkflowKey:   cfg.Jumio.WorkflowKey,
		CallbackURL:   cfg.Jumio.CallbackURL,
		SuccessURL:    cfg.Jumio.SuccessURL,
		StoragePath:   cfg.KYC.DocumentStoragePath,
		Timeout:       cfg.Jumio.Timeout,
	}, jumio.WithLogger(log), jumio.WithStorage(storage))

	return driver.NewRegistry(cfg.KYC.DefaultDriver, sp, jm)
}
