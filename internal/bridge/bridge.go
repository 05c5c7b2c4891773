// internal/bridge/bridge.go
package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/tamzrod/modbus-sensorlink/internal/config"
	"github.com/tamzrod/modbus-sensorlink/internal/event"
	"github.com/tamzrod/modbus-sensorlink/internal/link"
)

const (
	retryDelay     = 5 * time.Second
	publishTimeout = 5 * time.Second
	quiesceMs      = 250
)

// Sender is the command entry point of the core.
type Sender interface {
	Send(cmd link.Command) error
}

// Bridge exposes the command and event channels over MQTT.
//
//	<prefix>/cmd     JSON commands in
//	<prefix>/event   JSON events out
//	<prefix>/status  "online" / "offline", retained
type Bridge struct {
	client mqtt.Client
	sender Sender
	prefix string
	qos    byte
	log    zerolog.Logger
	now    func() time.Time
}

// New builds the paho client from config. Nothing is connected yet.
func New(cfg config.MQTTConfig, sender Sender, log zerolog.Logger) *Bridge {
	b := newBridge(nil, cfg, sender, log)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetOrderMatters(true)
	opts.SetWill(b.topic("status"), "offline", cfg.QoS, true)

	opts.SetOnConnectHandler(func(c mqtt.Client) {
		b.log.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
		b.subscribe(c)
		b.publishStatus(c, "online")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		b.log.Warn().Err(err).Msg("mqtt connection lost")
	})

	b.client = mqtt.NewClient(opts)
	return b
}

func newBridge(client mqtt.Client, cfg config.MQTTConfig, sender Sender, log zerolog.Logger) *Bridge {
	return &Bridge{
		client: client,
		sender: sender,
		prefix: cfg.TopicPrefix,
		qos:    cfg.QoS,
		log:    log.With().Str("component", "bridge").Logger(),
		now:    time.Now,
	}
}

func (b *Bridge) topic(name string) string { return b.prefix + "/" + name }

// Connect retries until the broker accepts the connection or ctx is done.
func (b *Bridge) Connect(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		token := b.client.Connect()
		if token.Wait() && token.Error() == nil {
			return nil
		}
		b.log.Warn().Err(token.Error()).Int("attempt", attempt).Msg("mqtt connect failed")

		select {
		case <-ctx.Done():
			return fmt.Errorf("mqtt connect cancelled: %w", ctx.Err())
		case <-time.After(retryDelay):
		}
	}
}

// Run publishes every event until ctx is done or the channel is closed.
func (b *Bridge) Run(ctx context.Context, events <-chan event.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return event.ErrChannelClosed
			}
			if err := b.Publish(ev); err != nil {
				b.log.Warn().Err(err).Str("kind", ev.Kind()).Msg("event not published")
			}
		}
	}
}

// Publish sends one event to <prefix>/event.
func (b *Bridge) Publish(ev event.Event) error {
	payload, err := EncodeEvent(ev, b.now())
	if err != nil {
		return err
	}
	return wait(b.client.Publish(b.topic("event"), b.qos, false, payload))
}

// Close marks the bridge offline and disconnects.
func (b *Bridge) Close() {
	if !b.client.IsConnected() {
		return
	}
	b.publishStatus(b.client, "offline")
	b.client.Disconnect(quiesceMs)
}

func (b *Bridge) subscribe(c mqtt.Client) {
	if err := wait(c.Subscribe(b.topic("cmd"), b.qos, b.onMessage)); err != nil {
		b.log.Error().Err(err).Str("topic", b.topic("cmd")).Msg("subscribe failed")
	}
}

func (b *Bridge) publishStatus(c mqtt.Client, status string) {
	if err := wait(c.Publish(b.topic("status"), b.qos, true, status)); err != nil {
		b.log.Warn().Err(err).Msg("status not published")
	}
}

// onMessage forwards one command. A busy dispatcher drops it.
func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := DecodeCommand(msg.Payload())
	if err != nil {
		b.log.Warn().Err(err).Str("topic", msg.Topic()).Msg("command rejected")
		return
	}

	if err := b.sender.Send(cmd); err != nil {
		lvl := b.log.Warn()
		if errors.Is(err, link.ErrBusy) {
			lvl = b.log.Info()
		}
		lvl.Err(err).Str("command", cmd.Name()).Msg("command dropped")
		return
	}
	b.log.Debug().Str("command", cmd.Name()).Msg("command forwarded")
}

func wait(t mqtt.Token) error {
	if !t.WaitTimeout(publishTimeout) {
		return errors.New("mqtt: timeout")
	}
	return t.Error()
}
