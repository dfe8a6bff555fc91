package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-settings/internal/decode"
)

// ErrNoValue indicates a typed read resolved nothing for the requested key.
var ErrNoValue = errors.New("settings: no value for key")

// As resolves key through the store's normal chain (fallbacks, JSON decode,
// filters) and decodes the resulting mapping into T. Scalar or sequence
// values, or an absent key, yield an error — typed reads are for structured
// settings.
func As[T any](ctx context.Context, store *Store, key string) (T, error) {
	var zero T
	value := store.Get(ctx, key)
	if value == nil {
		return zero, fmt.Errorf("%w: %q", ErrNoValue, key)
	}
	payload, ok := value.(map[string]any)
	if !ok {
		return zero, fmt.Errorf("settings: value for %q is %T, not a mapping", key, value)
	}
	decoder := decode.NewDecoder[T](decode.WithUseNumber[T]())
	return decoder.Decode(decode.Context{Store: store.OptionName(), Key: key}, payload)
}
