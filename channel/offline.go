package channel

import (
	"context"
	"encoding/json"
	"fmt"
)

// OfflineChannel is a LiveChannel that is never connected. The CLI uses it
// for commands that only touch local state, so every mutation takes the
// queueing path.
type OfflineChannel struct{}

// NewOfflineChannel returns the disconnected channel.
func NewOfflineChannel() *OfflineChannel {
	return &OfflineChannel{}
}

func (o *OfflineChannel) Connected() bool { return false }

func (o *OfflineChannel) Send(ctx context.Context, event string, payload any) (*AckResult, error) {
	return nil, fmt.Errorf("offline: cannot send %s", event)
}

func (o *OfflineChannel) On(event string, handler func(json.RawMessage)) {}

func (o *OfflineChannel) NotifyConnect(fn func(bool)) {}
