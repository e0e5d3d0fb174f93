package notify

import "sync"

// Message is one publication recorded by FakePublisher.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// FakePublisher records publications for test assertions.
type FakePublisher struct {
	mu    sync.Mutex
	Topic string

	Messages []Message
	Runs     []RunSummary

	// PublishError, if set, is returned by every publish call.
	PublishError error
	Closed       bool
}

func NewFakePublisher(topic string) *FakePublisher {
	return &FakePublisher{Topic: topic}
}

func (f *FakePublisher) PublishDevice(device, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Messages = append(f.Messages, Message{Topic: DeviceTopic(f.Topic, device), Payload: []byte(value), Retained: true})
	return nil
}

func (f *FakePublisher) PublishRun(s RunSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatRunPayload(s)
	if err != nil {
		return err
	}
	f.Runs = append(f.Runs, s)
	f.Messages = append(f.Messages, Message{Topic: RunTopic(f.Topic), Payload: payload})
	return nil
}

func (f *FakePublisher) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the recorded messages.
func (f *FakePublisher) Snapshot() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.Messages...)
}
