package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/codewandler/actr-go/core/actor"
)

// reply is what a Remote answers a request with. It travels as the data of
// a transport ResponseFrame.
type reply struct {
	Data  []byte   `json:"data,omitempty"`
	Error string   `json:"error,omitempty"`
	Codes []string `json:"codes,omitempty"`
}

var errorCodes = []struct {
	code string
	err  error
}{
	{"dead_letter", actor.ErrDeadLetter},
	{"actor_stopped", actor.ErrActorStopped},
	{"mailbox_full", actor.ErrMailboxFull},
	{"mailbox_closed", actor.ErrMailboxClosed},
	{"no_handler", actor.ErrNoHandler},
	{"handler_panic", actor.ErrHandlerPanic},
	{"result_type", actor.ErrResultType},
	{"system_stopped", actor.ErrSystemStopped},
	{"unknown_type", ErrUnknownMessageType},
	{"misrouted", ErrMisrouted},
	{"deadline_exceeded", context.DeadlineExceeded},
	{"canceled", context.Canceled},
}

func codesOf(err error) []string {
	var codes []string
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			codes = append(codes, c.code)
		}
	}
	return codes
}

func errorsOf(codes []string) []error {
	var errs []error
	for _, code := range codes {
		for _, c := range errorCodes {
			if c.code == code {
				errs = append(errs, c.err)
			}
		}
	}
	return errs
}

func encodeReply(data []byte, err error) []byte {
	r := reply{Data: data}
	if err != nil {
		r = reply{Error: err.Error(), Codes: codesOf(err)}
	}
	b, _ := json.Marshal(r)
	return b
}

// decodeReply returns the payload or the remote failure as a *RemoteError.
func decodeReply(address string, b []byte) ([]byte, error) {
	var r reply
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	if r.Error != "" || len(r.Codes) > 0 {
		return nil, &RemoteError{Address: address, Msg: r.Error, causes: errorsOf(r.Codes)}
	}
	return r.Data, nil
}
