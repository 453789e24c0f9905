package bridge

import (
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type published struct {
	topic   string
	qos     byte
	retain  bool
	payload []byte
}

type fakeClient struct {
	lock      sync.Mutex
	pubs      []published
	subs      map[string]paho.MessageHandler
	unsubs    []string
	onConnect func(paho.Client)
	connected bool
}

func (c *fakeClient) IsConnected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.connected
}

func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() paho.Token {
	c.lock.Lock()
	c.connected = true
	fn := c.onConnect
	c.lock.Unlock()
	if fn != nil {
		fn(c)
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.lock.Lock()
	c.connected = false
	c.lock.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.pubs = append(c.pubs, published{topic: topic, qos: qos, retain: retained, payload: payload.([]byte)})
	return &paho.DummyToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.subs == nil {
		c.subs = make(map[string]paho.MessageHandler)
	}
	c.subs[topic] = callback
	return &paho.DummyToken{}
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	for topic, qos := range filters {
		c.Subscribe(topic, qos, callback)
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.lock.Lock()
	defer c.lock.Unlock()
	for _, topic := range topics {
		delete(c.subs, topic)
		c.unsubs = append(c.unsubs, topic)
	}
	return &paho.DummyToken{}
}

func (c *fakeClient) AddRoute(string, paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader {
	return paho.ClientOptionsReader{}
}

// deliver sends a message to the broker-side subscription matching filter.
func (c *fakeClient) deliver(filter, topic string, payload []byte) bool {
	c.lock.Lock()
	cb := c.subs[filter]
	c.lock.Unlock()
	if cb == nil {
		return false
	}
	cb(c, &fakeMessage{topic: topic, payload: payload})
	return true
}

func (c *fakeClient) published() []published {
	c.lock.Lock()
	defer c.lock.Unlock()
	return append([]published(nil), c.pubs...)
}

func (c *fakeClient) subscribed(topic string) bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	_, ok := c.subs[topic]
	return ok
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func newFakeQueue(prefix string) (*Queue, *fakeClient) {
	c := &fakeClient{}
	q := &Queue{Client: c, TopicPrefix: prefix}
	c.onConnect = q.OnConnectHandler
	return q, c
}

var fixedTime = time.Unix(1700000000, 0)

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}
