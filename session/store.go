package session

import "context"

// Store persists session values by key. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// SetMany writes all values in one step.
	SetMany(ctx context.Context, values map[string]string) error

	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// CompareAndSwap writes values only if key currently holds old (a missing
	// key holds ""). It reports whether the write happened.
	CompareAndSwap(ctx context.Context, key, old string, values map[string]string) (bool, error)
}

func loadAll(ctx context.Context, store Store) (map[string]string, error) {
	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		v, ok, err := store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if ok {
			values[key] = v
		}
	}
	return values, nil
}
