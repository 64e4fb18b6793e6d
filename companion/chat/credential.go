package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// ErrCredentialEmpty is returned when Set is given blank text.
var ErrCredentialEmpty = errors.New("credential is empty")

// CredentialVault holds the bearer token in its own slot, apart from the
// conversation log. An absent token is a normal state.
type CredentialVault struct {
	kv  ports.KeyValueStore
	key string
}

func NewCredentialVault(kv ports.KeyValueStore, key string) *CredentialVault {
	return &CredentialVault{kv: kv, key: key}
}

// Get returns the stored token, ok is false when none is set.
func (v *CredentialVault) Get(ctx context.Context) (string, bool, error) {
	data, ok, err := v.kv.Get(ctx, v.key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read credential slot: %w", err)
	}
	credential := strings.TrimSpace(string(data))
	if !ok || credential == "" {
		return "", false, nil
	}
	return credential, true, nil
}

// Set stores the trimmed token.
func (v *CredentialVault) Set(ctx context.Context, credential string) error {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return ErrCredentialEmpty
	}
	if err := v.kv.Set(ctx, v.key, []byte(credential)); err != nil {
		return fmt.Errorf("failed to write credential slot: %w", err)
	}
	return nil
}

// Clear forgets the token.
func (v *CredentialVault) Clear(ctx context.Context) error {
	if err := v.kv.Remove(ctx, v.key); err != nil {
		return fmt.Errorf("failed to clear credential slot: %w", err)
	}
	return nil
}

// Present reports whether a token is stored. Read failures count as absent.
func (v *CredentialVault) Present(ctx context.Context) bool {
	_, ok, err := v.Get(ctx)
	return err == nil && ok
}
