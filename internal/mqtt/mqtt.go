package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/daemonp/dmp2mqtt/internal/config"
	"github.com/daemonp/dmp2mqtt/internal/dmp"
	"github.com/daemonp/dmp2mqtt/internal/log"
	"github.com/daemonp/dmp2mqtt/internal/panel"
	"github.com/daemonp/dmp2mqtt/internal/util"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"

	commandTimeout = 30 * time.Second
)

type MQTT struct {
	config *config.MQTTConfig
	panel  *panel.Panel
	log    *log.Logger
	client mqtt.Client
	topics *Topics
	mu     sync.Mutex
}

func NewMQTT(cfg *config.MQTTConfig, p *panel.Panel, logger *log.Logger) *MQTT {
	m := &MQTT{
		config: cfg,
		panel:  p,
		log:    logger,
		topics: NewTopics(cfg.Prefix),
	}
	p.OnAreaChange(m.PublishAreaStatus)
	p.OnZoneChange(m.PublishZoneStatus)
	p.OnEvent(m.PublishEvent)
	return m
}

func (m *MQTT) Connect() error {
	host, port := m.config.Host, m.config.Port
	if strings.Contains(host, "://") || strings.Contains(host, ":") {
		host, port = ParseURL(host)
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), m.config.Retain)

	m.client = mqtt.NewClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	m.log.Info("Connected to MQTT broker: %s:%d", host, port)
	return nil
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.publishOnlineStatus()
	m.subscribeTopics()
	m.publishPanelStatus()
	m.PublishAllStatuses()
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) subscribeTopics() {
	topics := []string{
		m.topics.OutputCommand(),
		m.topics.SensorReset(),
	}

	for _, area := range m.panel.GetAreas() {
		topics = append(topics, m.topics.AreaCommand(area))
	}
	for _, zone := range m.panel.GetZones() {
		topics = append(topics, m.topics.ZoneCommand(zone))
	}

	// Areas and zones sharing a slug would subscribe twice.
	for _, topic := range util.RemoveDuplicates(topics) {
		token := m.client.Subscribe(topic, byte(m.config.QOS), m.handleMessage)
		if token.Wait() && token.Error() != nil {
			m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
		} else {
			m.log.Debug("Subscribed to topic: %s", topic)
		}
	}
}

func (m *MQTT) handleMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := string(msg.Payload())

	m.log.Debug("Received message on topic %s: %s", topic, payload)

	if topic == m.topics.SensorReset() {
		m.runCommand("sensor reset", func(ctx context.Context) error {
			return m.panel.SensorReset(ctx)
		})
		return
	}

	if output, ok := m.outputFromTopic(topic); ok {
		m.handleOutputCommand(output, payload)
		return
	}

	for _, area := range m.panel.GetAreas() {
		if topic == m.topics.AreaCommand(area) {
			m.handleAreaCommand(area, payload)
			return
		}
	}
	for _, zone := range m.panel.GetZones() {
		if topic == m.topics.ZoneCommand(zone) {
			m.handleZoneCommand(zone, payload)
			return
		}
	}

	m.log.Warning("Received message on unknown topic: %s", topic)
}

// outputFromTopic extracts the output number from
// <prefix>/output/<n>/command topics.
func (m *MQTT) outputFromTopic(topic string) (int, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return 0, false
	}
	if parts[len(parts)-3] != "output" || parts[len(parts)-1] != "command" {
		return 0, false
	}
	n, err := strconv.Atoi(parts[len(parts)-2])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (m *MQTT) handleAreaCommand(area panel.Area, payload string) {
	// Payload is the command, optionally followed by a user code:
	// "disarm 1234".
	command, code := payload, ""
	if i := strings.IndexByte(payload, ' '); i >= 0 {
		command, code = payload[:i], payload[i+1:]
	}
	arming := command != "disarm"

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	ok, err := m.panel.ValidateAreaCode(ctx, area, code, arming)
	cancel()
	if err != nil {
		m.log.Error("Code check for area %s failed: %v", area.Name, err)
		return
	}
	if !ok {
		m.log.Warning("Rejected %s for area %s: invalid code", command, area.Name)
		return
	}

	areas := []int{area.Number}
	switch command {
	case "arm_away":
		m.runCommand("arm", func(ctx context.Context) error {
			return m.panel.Arm(ctx, areas, panel.ArmOptions{})
		})
	case "arm_stay":
		m.runCommand("arm", func(ctx context.Context) error {
			return m.panel.Arm(ctx, areas, panel.ArmOptions{})
		})
	case "arm_instant":
		instant := true
		m.runCommand("arm", func(ctx context.Context) error {
			return m.panel.Arm(ctx, areas, panel.ArmOptions{Instant: &instant})
		})
	case "arm_force":
		m.runCommand("arm", func(ctx context.Context) error {
			return m.panel.Arm(ctx, areas, panel.ArmOptions{ForceArm: true})
		})
	case "disarm":
		m.runCommand("disarm", func(ctx context.Context) error {
			return m.panel.Disarm(ctx, areas)
		})
	default:
		m.log.Warning("Unknown area command: %s", command)
	}
}

func (m *MQTT) handleZoneCommand(zone panel.Zone, command string) {
	switch command {
	case "bypass":
		m.runCommand("bypass", func(ctx context.Context) error {
			return m.panel.BypassZone(ctx, zone.Number)
		})
	case "restore":
		m.runCommand("restore", func(ctx context.Context) error {
			return m.panel.RestoreZone(ctx, zone.Number)
		})
	default:
		m.log.Warning("Unknown zone command: %s", command)
	}
}

func (m *MQTT) handleOutputCommand(output int, command string) {
	switch command {
	case "on":
		m.runCommand("output on", func(ctx context.Context) error {
			return m.panel.OutputOn(ctx, output)
		})
	case "off":
		m.runCommand("output off", func(ctx context.Context) error {
			return m.panel.OutputOff(ctx, output)
		})
	case "pulse":
		m.runCommand("output pulse", func(ctx context.Context) error {
			return m.panel.OutputPulse(ctx, output)
		})
	default:
		m.log.Warning("Unknown output command: %s", command)
	}
}

func (m *MQTT) runCommand(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		m.log.Error("Panel %s command failed: %v", name, err)
	}
}

func (m *MQTT) publishOnlineStatus() {
	m.publishRaw(m.topics.Status(), onlinePayload, true)
}

func (m *MQTT) publishPanelStatus() {
	device := m.panel.GetDevice()
	status := map[string]interface{}{
		"model":   device.Model,
		"account": device.Account,
	}
	m.publish(m.topics.Config(), status, true)
}

// PublishAllStatuses republishes the retained state of every area and
// zone.
func (m *MQTT) PublishAllStatuses() {
	for _, area := range m.panel.GetAreas() {
		m.PublishAreaStatus(area)
	}
	for _, zone := range m.panel.GetZones() {
		m.PublishZoneStatus(zone)
	}
}

func (m *MQTT) PublishAreaStatus(area panel.Area) {
	status := map[string]interface{}{
		"id":     area.ID,
		"name":   area.Name,
		"number": area.Number,
		"status": area.Status,
	}
	m.publish(m.topics.Area(area), status, true)
}

func (m *MQTT) PublishZoneStatus(zone panel.Zone) {
	status := map[string]interface{}{
		"id":     zone.ID,
		"name":   zone.Name,
		"number": zone.Number,
		"status": zone.Status,
	}
	m.publish(m.topics.Zone(zone), status, true)
}

func (m *MQTT) PublishEvent(event dmp.Event) {
	payload := map[string]interface{}{
		"account":     event.Account,
		"category":    event.Category.String(),
		"type":        event.TypeCode,
		"description": event.TypeDescription(),
	}
	if event.Area != "" {
		payload["area"] = event.Area
		payload["area_name"] = event.AreaName
	}
	if event.Zone != "" {
		payload["zone"] = event.Zone
		payload["zone_name"] = event.ZoneName
	}
	if event.User != "" {
		payload["user"] = event.User
		payload["user_name"] = event.UserName
	}
	if event.SystemCode != "" {
		payload["system_code"] = event.SystemCode
		payload["system_text"] = event.SystemText
	}
	m.publish(m.topics.Event(), payload, m.config.RetainLog)
}

func (m *MQTT) publish(topic string, message interface{}, retain bool) {
	payload, err := json.Marshal(message)
	if err != nil {
		m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
		return
	}
	m.publishRaw(topic, string(payload), retain)
}

func (m *MQTT) publishRaw(topic string, payload string, retain bool) {
	token := m.client.Publish(topic, byte(m.config.QOS), retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Debug("Published message to topic: %s", topic)
	}
}

func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.publishRaw(m.topics.Status(), offlinePayload, true)
		m.client.Disconnect(250)
	}
}
