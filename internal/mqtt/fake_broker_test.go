package mqtt

import (
	"io"
	"log/slog"
	"sync"
)

type publishedMessage struct {
	topic   string
	payload []byte
}

// fakeBroker records publishes and routes them to onPublish, which tests
// use to answer as the vision worker would
type fakeBroker struct {
	mu         sync.Mutex
	connected  bool
	published  []publishedMessage
	handlers   map[string]func(string, []byte)
	publishErr error
	onPublish  func(topic string, payload []byte)
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{connected: true, handlers: make(map[string]func(string, []byte))}
}

func (f *fakeBroker) Publish(topic string, payload []byte) error {
	f.mu.Lock()
	if f.publishErr != nil {
		f.mu.Unlock()
		return f.publishErr
	}
	f.published = append(f.published, publishedMessage{topic: topic, payload: payload})
	hook := f.onPublish
	f.mu.Unlock()

	if hook != nil {
		hook(topic, payload)
	}
	return nil
}

func (f *fakeBroker) Subscribe(topic string, handler func(string, []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeBroker) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// deliver simulates an inbound message on topic
func (f *fakeBroker) deliver(topic string, payload []byte) {
	f.mu.Lock()
	handler := f.handlers[topic]
	f.mu.Unlock()
	if handler != nil {
		handler(topic, payload)
	}
}

func (f *fakeBroker) messages() []publishedMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMessage(nil), f.published...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
