// Package mqtt publishes channel snapshots and status-change events to an
// MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"
	"github.com/tanksentry/tanksentry/internal/types"
	"go.uber.org/zap"
)

// Publisher maintains a broker connection and publishes one retained JSON
// snapshot per channel plus non-retained status-change events, gated per
// channel by the notify configuration.
type Publisher struct {
	config types.MQTTConfig
	notify types.NotifyConfig
	client *paho.Client
	conn   net.Conn
	logger *zap.SugaredLogger
}

// event is the payload published on a genuine status transition.
type event struct {
	Channel    string    `json:"channel"`
	Status     string    `json:"status"`
	PrevStatus string    `json:"prev_status"`
	Filtered   float64   `json:"filtered"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates an MQTT publisher.
func New(cfg types.MQTTConfig, notify types.NotifyConfig, logger *zap.SugaredLogger) (*Publisher, error) {
	if cfg.BrokerAddr == "" {
		return nil, fmt.Errorf("MQTT publisher requires a broker-addr")
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "tanksentry"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "tanksentry-" + uuid.NewString()[:8]
	}
	return &Publisher{config: cfg, notify: notify, logger: logger}, nil
}

// StartPublisher launches the publishing goroutine and returns its intake channel.
func (p *Publisher) StartPublisher(ctx context.Context, wg *sync.WaitGroup) chan<- types.Update {
	updateChan := make(chan types.Update, 10)
	go p.processUpdates(ctx, wg, updateChan)
	return updateChan
}

func (p *Publisher) processUpdates(ctx context.Context, wg *sync.WaitGroup, updates <-chan types.Update) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case u := <-updates:
			if err := p.publish(ctx, u); err != nil {
				p.logger.Errorf("MQTT publish failed: %v", err)
				p.disconnect()
			}
		case <-ctx.Done():
			p.logger.Info("cancellation request received, stopping MQTT publisher")
			p.disconnect()
			return
		}
	}
}

func (p *Publisher) publish(ctx context.Context, u types.Update) error {
	if err := p.ensureConnected(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(u.Snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot for %s: %w", u.Channel, err)
	}

	_, err = p.client.Publish(ctx, &paho.Publish{
		Topic:   fmt.Sprintf("%s/%s/snapshot", p.config.TopicPrefix, u.Channel),
		QoS:     0,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		return fmt.Errorf("publishing snapshot for %s: %w", u.Channel, err)
	}

	if !u.StatusChanged || !p.notify.Enabled(u.Channel) {
		return nil
	}

	evt, err := json.Marshal(event{
		Channel:    u.Channel,
		Status:     u.Status,
		PrevStatus: u.PrevStatus,
		Filtered:   u.Filtered,
		Timestamp:  u.Timestamp,
	})
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", u.Channel, err)
	}

	_, err = p.client.Publish(ctx, &paho.Publish{
		Topic:   fmt.Sprintf("%s/%s/event", p.config.TopicPrefix, u.Channel),
		QoS:     1,
		Payload: evt,
	})
	if err != nil {
		return fmt.Errorf("publishing event for %s: %w", u.Channel, err)
	}
	return nil
}

func (p *Publisher) ensureConnected(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", p.config.BrokerAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("could not connect to MQTT broker %s: %w", p.config.BrokerAddr, err)
	}

	client := paho.NewClient(paho.ClientConfig{Conn: conn})

	connect := &paho.Connect{
		ClientID:   p.config.ClientID,
		KeepAlive:  30,
		CleanStart: true,
	}
	if p.config.Username != "" {
		connect.UsernameFlag = true
		connect.Username = p.config.Username
		connect.PasswordFlag = true
		connect.Password = []byte(p.config.Password)
	}

	ca, err := client.Connect(ctx, connect)
	if err != nil {
		conn.Close()
		return fmt.Errorf("MQTT connect to %s failed: %w", p.config.BrokerAddr, err)
	}
	if ca.ReasonCode != 0 {
		conn.Close()
		return fmt.Errorf("MQTT broker %s refused connection: reason code %d", p.config.BrokerAddr, ca.ReasonCode)
	}

	p.logger.Infof("connected to MQTT broker %s as %s", p.config.BrokerAddr, p.config.ClientID)
	p.client = client
	p.conn = conn
	return nil
}

func (p *Publisher) disconnect() {
	if p.client != nil {
		p.client.Disconnect(&paho.Disconnect{ReasonCode: 0})
		p.client = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
