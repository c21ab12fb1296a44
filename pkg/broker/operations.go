package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/morezero/launchkit/pkg/brokerapi"
	"github.com/morezero/launchkit/pkg/intent"
	"github.com/morezero/launchkit/pkg/procexec"
)

const operationsLogPrefix = "broker:operations"

// StartActivity starts an activity for a granted client.
func (b *Broker) StartActivity(ctx context.Context, clientID string, in intent.Intent) error {
	return b.launch(ctx, clientID, intent.KindActivity, in)
}

// BroadcastIntent sends a broadcast for a granted client.
func (b *Broker) BroadcastIntent(ctx context.Context, clientID string, in intent.Intent) error {
	return b.launch(ctx, clientID, intent.KindBroadcast, in)
}

// StartService starts a service for a granted client.
func (b *Broker) StartService(ctx context.Context, clientID string, in intent.Intent) error {
	return b.launch(ctx, clientID, intent.KindService, in)
}

func (b *Broker) launch(ctx context.Context, clientID string, kind intent.Kind, in intent.Intent) error {
	if err := b.requireGranted(clientID); err != nil {
		return err
	}
	if b.caller == nil {
		return brokerapi.NewBrokerError(brokerapi.CodeInternalError, "no launch caller configured")
	}

	var err error
	switch kind {
	case intent.KindActivity:
		err = b.caller.StartActivity(ctx, in)
	case intent.KindBroadcast:
		err = b.caller.BroadcastIntent(ctx, in)
	case intent.KindService:
		err = b.caller.StartService(ctx, in)
	}
	if err != nil {
		slog.Warn(fmt.Sprintf("%s - %s for %s failed: %v", operationsLogPrefix, kind, clientID, err))
		return brokerapi.NewBrokerError(brokerapi.CodeCallFailed, err.Error())
	}

	slog.Info(fmt.Sprintf("%s - %s for %s action=%s component=%s", operationsLogPrefix, kind, clientID, in.Action, in.Component))
	return nil
}

// NewProcess runs argv for a granted client and returns its outcome. A
// non-zero exit is reported in the result, not as an error. The timeout is
// clamped to the configured maximum; zero means the maximum.
func (b *Broker) NewProcess(ctx context.Context, clientID string, argv []string, timeout time.Duration) (*procexec.Result, error) {
	if err := b.requireGranted(clientID); err != nil {
		return nil, err
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, brokerapi.NewBrokerError(brokerapi.CodeInvalidArgument, "argv is required")
	}

	if timeout <= 0 || timeout > b.config.MaxProcessTimeout {
		timeout = b.config.MaxProcessTimeout
	}

	slog.Debug(fmt.Sprintf("%s - newProcess for %s argv=%q timeout=%s", operationsLogPrefix, clientID, argv, timeout))

	res, err := b.run(ctx, argv, procexec.Options{Timeout: timeout})
	if err != nil {
		return nil, brokerapi.NewBrokerError(brokerapi.CodeCallFailed, err.Error())
	}
	return res, nil
}
