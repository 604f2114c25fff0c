package redis

import (
	"context"
	"fmt"
)

// Get fetches whatever is stored at key without knowing its type in advance.
//
// It asks for the key type first, then reads the value: GET for a string,
// HGETALL for a hash. A missing key or an empty hash is returned with
// Found false. Any other type fails with a KindUnsupportedType error.
//
// The two round trips are not atomic. A concurrent writer may change the key
// in between, in which case Get can report the key as absent or fail with
// KindUnsupportedType.
func (c *Client) Get(ctx context.Context, key string) (Value, error) {
	keyType, err := c.Type(ctx, key)
	if err != nil {
		return Value{}, err
	}

	value := Value{Key: key, Type: keyType}

	switch keyType {
	case TypeNone:
		c.stats.recordGet(false)
		return value, nil

	case TypeString:
		s, found, err := c.GetString(ctx, key)
		if err != nil {
			return Value{}, err
		}
		value.String = s
		value.Found = found
		return value, nil

	case TypeHash:
		fields, found, err := c.HGetAll(ctx, key)
		if err != nil {
			return Value{}, err
		}
		value.Hash = fields
		value.Found = found
		return value, nil

	default:
		c.stats.recordError()
		detail := fmt.Sprintf("cannot read key %q of type %s", key, keyType)
		return Value{}, newError(KindUnsupportedType, detail, "", nil)
	}
}
