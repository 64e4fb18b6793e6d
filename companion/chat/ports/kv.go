package chatports

import "context"

// KeyValueStore is the minimal persistence surface behind the conversation
// log and the credential slot. A missing key is reported through ok, not err.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}
