// Command chainheadsrv is a minimal demo wiring of the chainhead
// registry: it opens one subscription for a single demo connection, feeds
// it a synthetic block stream, and logs any events delivered on the
// subscription's event channel. It exists to
// exercise the registry end to end; a real deployment would wire Pump to
// an actual import-notification stream and expose the registry's
// operations over an RPC transport (both out of scope here, per §6).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainhead-go/subscriptions/chainhead"
	"github.com/chainhead-go/subscriptions/common"
	"github.com/chainhead-go/subscriptions/common/mclock"
	"github.com/chainhead-go/subscriptions/log"
)

type noopBackend struct{}

func (noopBackend) PinBlock(common.Hash) error { return nil }
func (noopBackend) UnpinBlock(common.Hash)      {}

func main() {
	log.SetDefault(log.NewLogger(log.NewTerminalHandler(os.Stderr, true)))

	cfg := chainhead.Config{
		GlobalMaxPinnedBlocks: 256,
		LocalMaxPinDuration:   5 * time.Minute,
		MaxOngoingOperations:  16,
	}
	registry := chainhead.NewRegistry(cfg, noopBackend{}, mclock.System{}, prometheus.DefaultRegisterer)
	reservations := chainhead.NewReservations(registry, 4)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reserved := reservations.ReserveSubscription("demo-connection")
	if reserved == nil {
		log.Error("chainheadsrv: connection subscription quota exhausted")
		os.Exit(1)
	}
	defer reserved.Release()

	subID := uuid.NewString()
	data := reserved.InsertSubscription(subID, false)
	if data == nil {
		log.Error("chainheadsrv: subscription id collision", "sub", subID)
		os.Exit(1)
	}
	log.Info("chainheadsrv: subscription opened", "sub", subID)

	pump := chainhead.NewPump(registry)
	go func() {
		var height uint64
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				height++
				h := common.BytesToHash([]byte{byte(height)})
				pump.SubmitImport(chainhead.ImportNotification{Hash: h, Number: height, IsNewBest: true})
				pump.SubmitFinalized(chainhead.FinalizedNotification{Hash: h})
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-data.Events:
				log.Info("chainheadsrv: event", "sub", ev.SubscriptionID, "hash", ev.Hash)
			case <-data.StopSignal:
				return
			}
		}
	}()

	if err := pump.Run(ctx, subID); err != nil && ctx.Err() == nil {
		log.Error("chainheadsrv: pump exited", "err", err)
	}
	log.Info("chainheadsrv: shutting down")
}
