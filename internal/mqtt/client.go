package mqtt

type MQTTClient interface {
	GetPrefix() string
	Topics() *Topics
	Publish(topic string, payload string, retain bool)
}

func (m *MQTT) GetPrefix() string {
	return m.config.Prefix
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

// Publish sends a pre-rendered payload. Structured payloads go through
// the internal JSON path instead.
func (m *MQTT) Publish(topic string, payload string, retain bool) {
	m.publishRaw(topic, payload, retain)
}
