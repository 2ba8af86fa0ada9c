package events

import "sync"

// Channel names one of the notification streams exposed by the library.
type Channel string

const (
	// Store channels.
	ChannelAdd     Channel = "add"
	ChannelRemove  Channel = "remove"
	ChannelBulkAdd Channel = "bulkAdd"

	// Callback channels. The payment channels carry the gateway's own
	// paymentStatus values, so an inbound status maps 1:1 to a channel.
	ChannelRaw                 Channel = "raw"
	ChannelPaymentWait         Channel = "paymentWait"
	ChannelPaymentVerification Channel = "paymentVerification"
	ChannelPaymentOk           Channel = "paymentOk"
	ChannelPaymentNotPaid      Channel = "paymentNotPaid"
)

// Handler receives the payload published on a channel. Each channel has a
// fixed payload shape; packages that publish on a channel expose typed
// subscription helpers that do the assertion for the caller.
type Handler func(payload any)

// Bus is a synchronous publish/subscribe bus over named channels.
// Delivery happens on the publisher's goroutine in subscription order.
type Bus struct {
	mu   sync.RWMutex
	subs map[Channel][]Handler
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Channel][]Handler)}
}

func (b *Bus) Subscribe(ch Channel, fn Handler) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.subs[ch] = append(b.subs[ch], fn)
	b.mu.Unlock()
}

func (b *Bus) Publish(ch Channel, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subs[ch]))
	copy(handlers, b.subs[ch])
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(payload)
	}
}
