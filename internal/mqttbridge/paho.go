package mqttbridge

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const tokenTimeout = 5 * time.Second

type pahoConn struct {
	client mqtt.Client
}

func dialPaho(cfg Config) (conn, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(tokenTimeout)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if err := wait(client.Connect()); err != nil {
		return nil, err
	}
	return &pahoConn{client: client}, nil
}

func (p *pahoConn) Publish(topic string, retained bool, payload []byte) error {
	return wait(p.client.Publish(topic, 0, retained, payload))
}

func (p *pahoConn) Subscribe(topic string, h func(payload []byte)) error {
	return wait(p.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Payload())
	}))
}

func (p *pahoConn) Disconnect() {
	p.client.Disconnect(250)
}

func wait(t mqtt.Token) error {
	if !t.WaitTimeout(tokenTimeout) {
		return fmt.Errorf("timed out after %s", tokenTimeout)
	}
	return t.Error()
}
