// Package mqttpublish publishes every fresh evaluation to an MQTT broker.
package mqttpublish

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/airquality"
	"github.com/KanzlerFabian/Airguard2.0-sub000/pkg/config"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second

	// queueSize bounds evaluations waiting to be published
	queueSize = 8
)

// Controller owns the MQTT connection and a queue of evaluations to publish
type Controller struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	mqttConfig  config.MQTTData
	client      mqtt.Client
	evaluations chan airquality.EvalResponse
	logger      *zap.SugaredLogger
}

// NewController creates an MQTT publisher for the configured broker
func NewController(ctx context.Context, wg *sync.WaitGroup, mc config.MQTTData, logger *zap.SugaredLogger) (*Controller, error) {
	if mc.Broker == "" {
		return nil, fmt.Errorf("mqtt.broker is required")
	}
	if mc.Topic == "" {
		mc.Topic = config.DefaultMQTTTopic
	}
	if mc.ClientID == "" {
		mc.ClientID = config.DefaultMQTTClientID
	}

	opts := mqtt.NewClientOptions().
		AddBroker(mc.Broker).
		SetClientID(mc.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout)
	if mc.Username != "" {
		opts.SetUsername(mc.Username)
		opts.SetPassword(mc.Password)
	}

	return newController(ctx, wg, mc, mqtt.NewClient(opts), logger), nil
}

func newController(ctx context.Context, wg *sync.WaitGroup, mc config.MQTTData, client mqtt.Client, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		ctx:         ctx,
		wg:          wg,
		mqttConfig:  mc,
		client:      client,
		evaluations: make(chan airquality.EvalResponse, queueSize),
		logger:      logger.Named("mqtt"),
	}
}

// Evaluations is the queue the publish manager feeds
func (c *Controller) Evaluations() chan<- airquality.EvalResponse {
	return c.evaluations
}

// StartController connects to the broker and starts publishing
func (c *Controller) StartController() error {
	c.logger.Infow("Starting MQTT publisher...", "broker", c.mqttConfig.Broker, "topic", c.mqttConfig.Topic)

	token := c.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", c.mqttConfig.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connecting to MQTT broker %s: %w", c.mqttConfig.Broker, err)
	}

	c.wg.Add(1)
	go c.publishLoop()
	return nil
}

func (c *Controller) publishLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			c.logger.Info("Disconnecting from MQTT broker")
			c.client.Disconnect(250)
			return
		case resp := <-c.evaluations:
			if err := c.publish(resp); err != nil {
				c.logger.Errorw("Failed to publish evaluation", "error", err)
			}
		}
	}
}

// publish sends the full evaluation to the base topic and each sensor's
// score to <topic>/<sensor>. All messages are retained so new subscribers
// see the current state immediately.
func (c *Controller) publish(resp airquality.EvalResponse) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshalling evaluation: %w", err)
	}
	if err := c.send(c.mqttConfig.Topic, payload); err != nil {
		return err
	}

	keys := make([]string, 0, len(resp.Sensors))
	for k := range resp.Sensors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		score := strconv.FormatFloat(resp.Sensors[k].Score, 'f', 1, 64)
		if err := c.send(c.mqttConfig.Topic+"/"+k, []byte(score)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Controller) send(topic string, payload []byte) error {
	token := c.client.Publish(topic, c.mqttConfig.QoS, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}
