package notifications

import (
	"context"
	"log"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const defaultPushTimeout = 250 * time.Millisecond

// RedisDispatcher pushes JSON events onto a list consumed by the mail worker.
type RedisDispatcher struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

func NewRedisDispatcher(client *redis.Client, key string) *RedisDispatcher {
	if client == nil {
		return nil
	}
	return &RedisDispatcher{client: client, key: key, timeout: defaultPushTimeout}
}

func Encode(ev Event) ([]byte, error) {
	return sonic.Marshal(ev)
}

func Decode(b []byte) (Event, error) {
	var ev Event
	err := sonic.Unmarshal(b, &ev)
	return ev, err
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, ev Event) {
	if d == nil || d.client == nil {
		return
	}
	payload, err := Encode(ev)
	if err != nil {
		log.Printf("[NOTIFY] encode %s failed: %v", ev.Type, err)
		return
	}
	// the request may already be finished; keep the push on its own deadline
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()
	if err := d.client.LPush(pctx, d.key, payload).Err(); err != nil {
		log.Printf("[NOTIFY] push %s to %s failed: %v", ev.Type, d.key, err)
	}
}

// New picks the Redis queue when redisURL is set and reachable, else logs.
func New(redisURL, queueKey string) (Dispatcher, func()) {
	noop := func() {}
	if redisURL == "" {
		log.Println("[NOTIFY] REDIS_URL empty, events go to the log only")
		return LogDispatcher{}, noop
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[NOTIFY] redis url parse failed: %v", err)
		return LogDispatcher{}, noop
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[NOTIFY] redis ping failed: %v", err)
		_ = client.Close()
		return LogDispatcher{}, noop
	}
	log.Printf("✅ notifications -> redis list %q", queueKey)
	return NewRedisDispatcher(client, queueKey), func() {
		if err := client.Close(); err != nil {
			log.Printf("[NOTIFY] redis close failed: %v", err)
		}
	}
}
