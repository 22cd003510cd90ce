package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

// Redis keeps one hash per (org, collection): field = document ID,
// value = JSON-encoded fields. Query filters client-side.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client, prefix: "dashcache:docs:"}
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr string) (*Redis, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client), nil
}

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) key(orgID, collection string) string {
	return r.prefix + orgID + ":" + collection
}

// Put stores doc.
func (r *Redis) Put(ctx context.Context, orgID, collection string, doc Document) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	data, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := r.client.HSet(ctx, r.key(orgID, collection), doc.ID, data).Err(); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

func (r *Redis) FetchByOrg(ctx context.Context, orgID, collection string) ([]Document, error) {
	return r.scan(ctx, orgID, collection, nil)
}

func (r *Redis) FetchByKey(ctx context.Context, orgID, collection, id string) (*Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	raw, err := r.client.HGet(ctx, r.key(orgID, collection), id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	d := Document{ID: id}
	if err := json.Unmarshal(raw, &d.Fields); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
	}
	return &d, nil
}

func (r *Redis) Query(ctx context.Context, orgID, collection, field, value string) ([]Document, error) {
	return r.scan(ctx, orgID, collection, func(d Document) bool {
		return matches(d, field, value)
	})
}

func (r *Redis) scan(ctx context.Context, orgID, collection string, keep func(Document) bool) ([]Document, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	all, err := r.client.HGetAll(ctx, r.key(orgID, collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	out := make([]Document, 0, len(all))
	for id, raw := range all {
		d := Document{ID: id}
		if err := json.Unmarshal([]byte(raw), &d.Fields); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, id, err)
		}
		if keep == nil || keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ Source = (*Redis)(nil)
var _ Writer = (*Redis)(nil)
