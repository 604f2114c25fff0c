package redis

import (
	"context"
	"time"

	"github.com/pior/redis/resp"
)

// GetString returns the string stored at key.
// found is false when the key does not exist or holds another type.
func (c *Client) GetString(ctx context.Context, key string) (value string, found bool, err error) {
	reply, err := c.exec(ctx, resp.NewCommand("GET", key))
	value, found, err = stringResult(reply, err)
	if err == nil {
		c.stats.recordGet(found)
	}
	return value, found, err
}

// Set stores value at key. The reply content is ignored.
func (c *Client) Set(ctx context.Context, key, value string) error {
	if _, err := c.exec(ctx, resp.NewCommand("SET", key, value)); err != nil {
		return err
	}
	c.stats.recordSet()
	return nil
}

// LPush prepends values to the list at key, one after the other:
// after LPush(k, "a", "b") the head of the list is "b".
func (c *Client) LPush(ctx context.Context, key string, values ...string) error {
	cmd := resp.NewCommand("LPUSH", key)
	for _, v := range values {
		cmd = cmd.AppendString(v)
	}
	if _, err := c.exec(ctx, cmd); err != nil {
		return err
	}
	c.stats.recordSet()
	return nil
}

// LPop removes and returns up to count elements from the head of the list.
// A count <= 0 pops a single element. found is false when the key does not
// exist or holds another type.
func (c *Client) LPop(ctx context.Context, key string, count int) ([]string, bool, error) {
	cmd := resp.NewCommand("LPOP", key)
	if count > 0 {
		cmd = cmd.AppendInt(int64(count))
	}

	reply, err := c.exec(ctx, cmd)
	if err == nil && !reply.IsNil() {
		var values []string
		values, err = reply.AsStrings()
		if err == nil {
			c.stats.recordGet(true)
			return values, true, nil
		}
		err = Classify(err)
	}
	if err != nil && !IsTypeMismatch(err) {
		return nil, false, err
	}
	c.stats.recordGet(false)
	return nil, false, nil
}

// HSet sets field in the hash at key.
func (c *Client) HSet(ctx context.Context, key, field, value string) error {
	if _, err := c.exec(ctx, resp.NewCommand("HSET", key, field, value)); err != nil {
		return err
	}
	c.stats.recordSet()
	return nil
}

// HGet returns the value of field in the hash at key.
// found is false when the key or the field does not exist, or when the key
// holds another type.
func (c *Client) HGet(ctx context.Context, key, field string) (value string, found bool, err error) {
	reply, err := c.exec(ctx, resp.NewCommand("HGET", key, field))
	value, found, err = stringResult(reply, err)
	if err == nil {
		c.stats.recordGet(found)
	}
	return value, found, err
}

// HGetAll returns every field of the hash at key.
// A missing key and an empty hash are both reported as absent.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, bool, error) {
	reply, err := c.exec(ctx, resp.NewCommand("HGETALL", key))
	if err == nil && !reply.IsNil() {
		var fields map[string]string
		fields, err = reply.AsStringMap()
		if err == nil {
			found := len(fields) > 0
			c.stats.recordGet(found)
			if !found {
				return nil, false, nil
			}
			return fields, true, nil
		}
		err = Classify(err)
	}
	if err != nil && !IsTypeMismatch(err) {
		return nil, false, err
	}
	c.stats.recordGet(false)
	return nil, false, nil
}

// Expire sets a timeout on key. ttl is sent in whole seconds, rounded up.
// Returns 1 when the timeout was set, 0 when the key does not exist.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	cmd := resp.NewCommand("EXPIRE", key).AppendInt(ttlSeconds(ttl))
	reply, err := c.exec(ctx, cmd)
	if err != nil {
		return 0, err
	}
	n, err := reply.AsInt()
	if err != nil {
		return 0, Classify(err)
	}
	c.stats.recordSet()
	return n, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if ttl%time.Second > 0 {
		secs++
	}
	return secs
}

// Del removes keys and returns how many existed.
// Without keys it returns 0 and sends nothing.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	reply, err := c.exec(ctx, resp.NewCommand("DEL", keys...))
	if err != nil {
		return 0, err
	}
	n, err := reply.AsInt()
	if err != nil {
		return 0, Classify(err)
	}
	c.stats.recordDelete()
	return n, nil
}

// Keys returns the keys matching a glob pattern, in server order.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	reply, err := c.exec(ctx, resp.NewCommand("KEYS", pattern))
	if err != nil {
		return nil, err
	}
	keys, err := reply.AsStrings()
	if err != nil {
		return nil, Classify(err)
	}
	return keys, nil
}

// Type returns the type tag of key; TypeNone when it does not exist.
func (c *Client) Type(ctx context.Context, key string) (KeyType, error) {
	reply, err := c.exec(ctx, resp.NewCommand("TYPE", key))
	if err != nil {
		return "", err
	}
	tag, err := reply.AsString()
	if err != nil {
		return "", Classify(err)
	}
	return KeyType(tag), nil
}

// stringResult collapses a nil reply and a type mismatch into absent.
func stringResult(reply resp.Reply, err error) (string, bool, error) {
	if err != nil {
		if IsTypeMismatch(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if reply.IsNil() {
		return "", false, nil
	}
	s, err := reply.AsString()
	if err != nil {
		// The reply has another shape: treated like a wrong type
		return "", false, nil
	}
	return s, true, nil
}
