package chatports

import "context"

// Speaker plays assistant replies aloud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}
