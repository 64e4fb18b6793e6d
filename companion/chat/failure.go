package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// FailureKind classifies why a reply did not come from the remote endpoint.
type FailureKind string

const (
	CredentialMissing    FailureKind = "credential_missing"
	CredentialInvalid    FailureKind = "credential_invalid"
	RateLimited          FailureKind = "rate_limited"
	MalformedRequest     FailureKind = "malformed_request"
	UnknownRemoteFailure FailureKind = "unknown_remote_failure"

	// StorageUnavailable reports a failed persist. The reply is still delivered.
	StorageUnavailable FailureKind = "storage_unavailable"
)

// Failure describes a fallback or storage problem for one exchange.
type Failure struct {
	Kind       FailureKind
	StatusCode int    // HTTP status, 0 when none was received
	Detail     string // diagnostic text from the endpoint, when present
	Err        error
}

func (f *Failure) Error() string {
	msg := string(f.Kind)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Detail != "" {
		msg += ": " + f.Detail
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error { return f.Err }

// Classify maps a provider error onto a failure kind.
func Classify(err error) *Failure {
	var remoteErr *ports.RemoteError
	if errors.As(err, &remoteErr) && remoteErr.StatusCode != 0 {
		f := &Failure{StatusCode: remoteErr.StatusCode, Detail: remoteErr.Detail, Err: err}
		switch remoteErr.StatusCode {
		case http.StatusUnauthorized:
			f.Kind = CredentialInvalid
		case http.StatusTooManyRequests:
			f.Kind = RateLimited
		case http.StatusBadRequest:
			f.Kind = MalformedRequest
		default:
			f.Kind = UnknownRemoteFailure
		}
		return f
	}

	f := &Failure{Kind: UnknownRemoteFailure, Err: err}
	if remoteErr != nil {
		f.Detail = remoteErr.Detail
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		f.Detail = "request timed out"
	case errors.Is(err, context.Canceled):
		f.Detail = "request canceled"
	}
	return f
}

// Notice is a user-facing message about a failure. Notices are shown next
// to the conversation but never become turns.
type Notice struct {
	Kind    FailureKind
	Message string
	Detail  string
}

// Notice renders the message shown to the user for f.
func (f *Failure) Notice() Notice {
	n := Notice{Kind: f.Kind, Detail: f.Detail}
	switch f.Kind {
	case CredentialMissing:
		n.Message = "No API key set. Replying offline."
	case CredentialInvalid:
		n.Message = "Invalid API key. Please check and re-enter it."
	case RateLimited:
		n.Message = "Rate limit reached. Please wait a moment."
	case MalformedRequest:
		n.Message = strings.TrimSpace("Bad request. " + f.Detail)
	case StorageUnavailable:
		n.Message = "Could not save the conversation."
	default:
		detail := f.Detail
		if detail == "" {
			detail = "Unknown error"
		}
		if f.StatusCode != 0 {
			n.Message = fmt.Sprintf("Status %d. %s", f.StatusCode, detail)
		} else {
			n.Message = "Could not reach the chat service. " + detail
		}
	}
	return n
}
