// Package runtime wires the Topic Repository, EventType Repository,
// admission limiter, and blacklist into a single-process instance, the way
// the teacher's Runtime wires its storage engine and facades.
package runtime

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/rzbill/flo/internal/blacklist"
	cfgpkg "github.com/rzbill/flo/internal/config"
	"github.com/rzbill/flo/internal/eventtype"
	"github.com/rzbill/flo/internal/slotlimiter"
	pebblestore "github.com/rzbill/flo/internal/storage/pebble"
	"github.com/rzbill/flo/internal/streamctl"
	"github.com/rzbill/flo/internal/topicrepo"
	"github.com/rzbill/flo/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Logger        log.Logger
}

// Runtime wires storage, config, and the domain collaborators for a
// single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	logger log.Logger

	eventTypes *eventtype.Repository
	repo       *topicrepo.Repository
	limiter    *slotlimiter.Limiter
	blacklist  *blacklist.List
	controller *streamctl.Controller
}

func brokerList(addr string) []string {
	parts := strings.Split(addr, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func saramaConfig(cfg cfgpkg.Config) *sarama.Config {
	sc := sarama.NewConfig()
	sc.Net.DialTimeout = cfg.CoordinationTimeout
	sc.Net.ReadTimeout = cfg.KafkaRequestTimeout
	sc.Net.WriteTimeout = cfg.KafkaRequestTimeout
	sc.Producer.RequiredAcks = sarama.WaitForAll
	sc.Producer.Return.Successes = true
	sc.Producer.Return.Errors = true
	sc.Consumer.Return.Errors = true
	sc.Version = sarama.V2_6_0_0
	return sc
}

// Open initializes the underlying storage and every domain collaborator.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync, FsyncInterval: opts.FsyncInterval})
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewLogger()
	}

	brokers := brokerList(opts.Config.CoordinationAddr)
	sc := saramaConfig(opts.Config)

	repo := topicrepo.New(brokers, sc, topicrepo.Settings{
		KafkaSendTimeout:   opts.Config.KafkaSendTimeout,
		RequestTimeout:     opts.Config.KafkaRequestTimeout,
		KafkaPollTimeout:   opts.Config.KafkaPollTimeout,
		ReplicationFactor:  opts.Config.ReplicationFactor,
		TopicRotationMs:    opts.Config.TopicRotationMs,
		DefaultRetentionMs: opts.Config.DefaultRetentionMs,
	}, logger)

	eventTypes := eventtype.NewRepository(db)
	limiter := slotlimiter.New(opts.Config.MaxConsumersPerPartition)
	bl, err := blacklist.Compile(opts.Config.Blacklist)
	if err != nil {
		_ = repo.Close()
		_ = db.Close()
		return nil, err
	}
	controller := streamctl.NewController(repo, eventTypes, limiter, bl, logger)

	return &Runtime{
		db:         db,
		config:     opts.Config,
		logger:     logger,
		eventTypes: eventTypes,
		repo:       repo,
		limiter:    limiter,
		blacklist:  bl,
		controller: controller,
	}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.repo != nil {
		_ = r.repo.Close()
	}
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check against the metadata store.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("runtime: db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// EnsureEventType creates an event type record if absent, defaulting its
// partition count and creating the backing topic when missing.
func (r *Runtime) EnsureEventType(name string, readScopes []string) (eventtype.Meta, error) {
	meta, err := r.eventTypes.Get(name)
	if err == nil {
		return meta, nil
	}
	if err != eventtype.ErrNotFound {
		return eventtype.Meta{}, err
	}
	topicID, err := r.repo.CreateTopic(int32(r.config.DefaultPartitions), r.config.DefaultRetentionMs)
	if err != nil {
		return eventtype.Meta{}, err
	}
	return r.eventTypes.Create(name, topicID, int(r.config.DefaultPartitions), readScopes)
}

// Controller exposes the wired Streaming Controller for HTTP registration.
func (r *Runtime) Controller() *streamctl.Controller { return r.controller }

// Repo exposes the Topic Repository for administrative operations.
func (r *Runtime) Repo() *topicrepo.Repository { return r.repo }

// EventTypes exposes the EventType Repository for administrative operations.
func (r *Runtime) EventTypes() *eventtype.Repository { return r.eventTypes }

// DB exposes the underlying metadata store for advanced operations.
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime's base logger.
func (r *Runtime) Logger() log.Logger { return r.logger }
