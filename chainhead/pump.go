package chainhead

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/chainhead-go/subscriptions/common"
	"github.com/chainhead-go/subscriptions/event"
	"github.com/chainhead-go/subscriptions/log"
)

// ImportNotification is the shape the best-block stream delivers, per
// §6: the core only consumes parent_hash, number, hash, is_new_best.
type ImportNotification struct {
	ParentHash common.Hash
	Number     uint64
	Hash       common.Hash
	IsNewBest  bool
}

// FinalizedNotification is delivered by the separate finalized-block
// stream.
type FinalizedNotification struct {
	Hash common.Hash
}

// Pump fans a block import stream and a finalized-block stream out to
// every live subscription's PinBlock call. The real notification source
// (the node's import pipeline) is an external collaborator (§6); Pump is
// the wiring that something in this repository needs in order to
// exercise the registry end to end, built on event.Feed the way the
// teacher fans out its own internal events.
type Pump struct {
	registry *Registry

	imports    event.Feed[ImportNotification]
	finalized  event.Feed[FinalizedNotification]
	subscribed map[string]struct{}
}

// NewPump constructs a Pump bound to registry.
func NewPump(registry *Registry) *Pump {
	return &Pump{registry: registry, subscribed: make(map[string]struct{})}
}

// SubmitImport publishes a best-block import notification to every
// running pump consumer.
func (p *Pump) SubmitImport(n ImportNotification) {
	p.imports.Send(n)
}

// SubmitFinalized publishes a finalized-block notification.
func (p *Pump) SubmitFinalized(n FinalizedNotification) {
	p.finalized.Send(n)
}

// Run feeds both streams into subID's PinBlock call until ctx is
// cancelled, running the two pumps concurrently under one errgroup so a
// failure or cancellation on either side tears down both consistently.
func (p *Pump) Run(ctx context.Context, subID string) error {
	importCh := make(chan ImportNotification, eventChannelCapacity)
	finalizedCh := make(chan FinalizedNotification, eventChannelCapacity)

	importSub := p.imports.Subscribe(importCh)
	finalizedSub := p.finalized.Subscribe(finalizedCh)
	defer importSub.Unsubscribe()
	defer finalizedSub.Unsubscribe()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			select {
			case n := <-importCh:
				if !n.IsNewBest {
					continue
				}
				if _, err := p.registry.PinBlock(subID, n.Hash); err != nil {
					log.Warn("chainhead: pump failed to pin best block", "sub", subID, "hash", n.Hash, "err", err)
				}
			case <-importSub.Err():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	g.Go(func() error {
		for {
			select {
			case n := <-finalizedCh:
				if _, err := p.registry.PinBlock(subID, n.Hash); err != nil {
					log.Warn("chainhead: pump failed to pin finalized block", "sub", subID, "hash", n.Hash, "err", err)
				}
			case <-finalizedSub.Err():
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	return g.Wait()
}
