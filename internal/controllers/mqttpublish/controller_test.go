package mqttpublish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type message struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient records publishes; methods not overridden panic via the nil
// embedded interface
type fakeClient struct {
	mqtt.Client

	mu           sync.Mutex
	connectErr   error
	publishErr   error
	messages     []message
	disconnected bool
}

func (f *fakeClient) Connect() mqtt.Token {
	return &fakeToken{err: f.connectErr}
}

func (f *fakeClient) Disconnect(uint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnected = true
}

func (f *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.publishErr != nil {
		return &fakeToken{err: f.publishErr}
	}
	f.messages = append(f.messages, message{topic, qos, retained, string(payload.([]byte))})
	return &fakeToken{}
}

func (f *fakeClient) published() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.messages...)
}

func (f *fakeClient) isDisconnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.disconnected
}

func sampleResponse() airquality.EvalResponse {
	return airquality.EvalResponse{
		Overall:    81.25,
		Status:     airquality.StatusGood,
		Highlights: []string{},
		Sensors: map[string]airquality.SensorEvaluation{
			"rh":  {Value: 45, Score: 100, Trend: airquality.TrendStable, Advice: []string{}},
			"co2": {Value: 1100, Score: 62.5, Trend: airquality.TrendRising, Advice: []string{"CO2 is rising: ventilate soon"}},
		},
	}
}

func testMQTTConfig() config.MQTTData {
	return config.MQTTData{Broker: "tcp://localhost:1883", Topic: "home/air", QoS: 1}
}

func TestNewControllerDefaults(t *testing.T) {
	var wg sync.WaitGroup
	logger := zap.NewNop().Sugar()

	_, err := NewController(context.Background(), &wg, config.MQTTData{}, logger)
	assert.Error(t, err)

	c, err := NewController(context.Background(), &wg, config.MQTTData{Broker: "tcp://localhost:1883"}, logger)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultMQTTTopic, c.mqttConfig.Topic)
	assert.Equal(t, config.DefaultMQTTClientID, c.mqttConfig.ClientID)
}

func TestPublish(t *testing.T) {
	client := &fakeClient{}
	var wg sync.WaitGroup
	c := newController(context.Background(), &wg, testMQTTConfig(), client, zap.NewNop().Sugar())

	require.NoError(t, c.publish(sampleResponse()))

	msgs := client.published()
	require.Len(t, msgs, 3)

	assert.Equal(t, "home/air", msgs[0].topic)
	assert.True(t, msgs[0].retained)
	assert.Equal(t, byte(1), msgs[0].qos)
	var decoded airquality.EvalResponse
	require.NoError(t, json.Unmarshal([]byte(msgs[0].payload), &decoded))
	assert.Equal(t, airquality.StatusGood, decoded.Status)

	assert.Equal(t, message{"home/air/co2", 1, true, "62.5"}, msgs[1])
	assert.Equal(t, message{"home/air/rh", 1, true, "100.0"}, msgs[2])
}

func TestPublishError(t *testing.T) {
	client := &fakeClient{publishErr: errors.New("not connected")}
	var wg sync.WaitGroup
	c := newController(context.Background(), &wg, testMQTTConfig(), client, zap.NewNop().Sugar())

	err := c.publish(sampleResponse())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "home/air")
}

func TestStartControllerConnectError(t *testing.T) {
	client := &fakeClient{connectErr: errors.New("connection refused")}
	var wg sync.WaitGroup
	c := newController(context.Background(), &wg, testMQTTConfig(), client, zap.NewNop().Sugar())

	err := c.StartController()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestStartControllerPublishesQueuedEvaluations(t *testing.T) {
	client := &fakeClient{}
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	c := newController(ctx, &wg, testMQTTConfig(), client, zap.NewNop().Sugar())

	require.NoError(t, c.StartController())
	c.Evaluations() <- sampleResponse()

	assert.Eventually(t, func() bool { return len(client.published()) == 3 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	wg.Wait()
	assert.True(t, client.isDisconnected())
}
