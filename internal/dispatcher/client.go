package dispatcher

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"funnel_backend/platform/config"
)

// Client enqueues delivery tasks onto the dispatch queue.
type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.DispatcherConfig) (*Client, error) {
	opt, err := redisClientOpt(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
	}, nil
}

func (c *Client) EnqueueEmailDeliver(ctx context.Context, payload EmailDeliverPayload) error {
	task, err := NewEmailDeliverTask(payload)
	if err != nil {
		return fmt.Errorf("build delivery task: %w", err)
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue)); err != nil {
		return fmt.Errorf("enqueue delivery task: %w", err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}
	opt := asynq.RedisClientOpt{
		Addr:     parsed.Addr,
		Username: parsed.Username,
		Password: parsed.Password,
		DB:       parsed.DB,
	}
	if parsed.TLSConfig != nil {
		cfg := parsed.TLSConfig.Clone()
		if tlsInsecure {
			cfg.InsecureSkipVerify = true
		}
		opt.TLSConfig = cfg
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opt, nil
}
