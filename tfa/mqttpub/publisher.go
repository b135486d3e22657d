package mqttpub

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/tfasensor/tfa"
)

const publishTimeout = 5 * time.Second

type Config struct {
	// tcp://host:port
	Broker   string
	ClientID string
	// readings go to <Topic>/<address>/<channel>
	Topic string
}

// Reading is the JSON payload of a published message.
type Reading struct {
	tfa.SensorValues
	Timestamp time.Time `json:"timestamp"`
}

type Publisher struct {
	cfg    Config
	client mqtt.Client
	send   func(topic string, payload []byte) error
	now    func() time.Time
}

func New(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("no mqtt broker configured")
	}
	if cfg.Topic == "" {
		cfg.Topic = "tfa"
	}
	if cfg.ClientID == "" {
		hostname, _ := os.Hostname()
		cfg.ClientID = "tfasensor-" + hostname
	}

	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetKeepAlive(30 * time.Second)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Infof("mqtt connected to %s", cfg.Broker)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warnf("mqtt connection lost: %s", err)
	})

	p := &Publisher{cfg: cfg, client: mqtt.NewClient(opts), now: time.Now}
	p.send = p.publish
	return p, nil
}

// Connect waits for the initial broker connection.
func (p *Publisher) Connect(ctx context.Context) error {
	token := p.client.Connect()
	for !token.WaitTimeout(200 * time.Millisecond) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return errors.Wrapf(token.Error(), "couldn't connect to %s", p.cfg.Broker)
}

func (p *Publisher) Publish(values tfa.SensorValues) error {
	payload, err := json.Marshal(Reading{SensorValues: values, Timestamp: p.now()})
	if err != nil {
		return errors.Wrap(err, "failed to marshal reading")
	}
	topic := TopicFor(p.cfg.Topic, values)
	if err := p.send(topic, payload); err != nil {
		return errors.Wrapf(err, "failed to publish to %s", topic)
	}
	log.Debugf("published %s to %s", payload, topic)
	return nil
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timeout")
	}
	return token.Error()
}

func (p *Publisher) Close() {
	if p.client != nil {
		p.client.Disconnect(250)
	}
}

// TopicFor returns the topic a reading is published on, e.g. tfa/b1/1.
func TopicFor(prefix string, values tfa.SensorValues) string {
	return fmt.Sprintf("%s/%02x/%d", strings.TrimSuffix(prefix, "/"), values.Address, values.Channel)
}
