package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the subscription.
const (
	JobPrefetch        = "prefetch"
	JobInvalidateCache = "invalidate_cache"
)

// CacheInvalidator clears the archive cache.
type CacheInvalidator interface {
	InvalidateCache() int
}

// Prefetcher runs the prefetch job.
type Prefetcher interface {
	Run(ctx context.Context) *PrefetchResult
}

// JobMessage is the payload of a job message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// JobDispatcher executes job messages. It is independent of the transport
// so it can be driven by tests and by the Pub/Sub handler alike.
type JobDispatcher struct {
	prefetcher Prefetcher
	cache      CacheInvalidator
	logger     zerolog.Logger
}

// NewJobDispatcher creates a dispatcher. prefetcher may be nil when
// prefetching is disabled.
func NewJobDispatcher(prefetcher Prefetcher, cache CacheInvalidator, logger zerolog.Logger) *JobDispatcher {
	return &JobDispatcher{prefetcher: prefetcher, cache: cache, logger: logger}
}

// ErrUnknownJob is wrapped by Dispatch for unrecognized job types.
var ErrUnknownJob = errors.New("unknown job type")

// Dispatch runs one job.
func (d *JobDispatcher) Dispatch(ctx context.Context, msg JobMessage) error {
	switch msg.JobType {
	case JobPrefetch:
		if d.prefetcher == nil {
			d.logger.Warn().Msg("prefetch requested but no targets are configured")
			return nil
		}
		result := d.prefetcher.Run(ctx)
		// More failures than successes usually means the archive is down.
		if result.Failed > result.Succeeded {
			return fmt.Errorf("too many prefetch failures: %d/%d", result.Failed, result.Targets)
		}
		return nil
	case JobInvalidateCache:
		removed := d.cache.InvalidateCache()
		d.logger.Info().Int("removed", removed).Msg("archive cache invalidated")
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownJob, msg.JobType)
	}
}

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *JobDispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Dispatcher       *JobDispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Prefetch runs can take minutes.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 4
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if h.handle(ctx, msg.ID, msg.Data) {
			msg.Ack()
		} else {
			msg.Nack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// handle runs one message and reports whether it should be acked.
// Malformed and unknown messages are acked so they are not redelivered.
func (h *PubSubHandler) handle(ctx context.Context, id string, data []byte) bool {
	startTime := time.Now()
	logger := h.logger.With().Str("message_id", id).Logger()

	var job JobMessage
	if err := json.Unmarshal(data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		return true
	}

	if err := h.dispatcher.Dispatch(ctx, job); err != nil {
		if errors.Is(err, ErrUnknownJob) {
			logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
			return true
		}
		logger.Error().Err(err).Str("job_type", job.JobType).Msg("job failed")
		return false
	}

	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return true
}
