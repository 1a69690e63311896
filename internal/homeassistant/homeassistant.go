package homeassistant

import (
	"encoding/json"
	"fmt"

	"github.com/daemonp/dmp2mqtt/internal/config"
	"github.com/daemonp/dmp2mqtt/internal/log"
	"github.com/daemonp/dmp2mqtt/internal/mqtt"
	"github.com/daemonp/dmp2mqtt/internal/panel"
	"github.com/daemonp/dmp2mqtt/internal/util"
)

type HomeAssistant struct {
	config *config.HomeAssistantConfig
	mqtt   mqtt.MQTTClient
	panel  *panel.Panel
	log    *log.Logger
}

func New(cfg *config.HomeAssistantConfig, mqttClient mqtt.MQTTClient, p *panel.Panel, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config: cfg,
		mqtt:   mqttClient,
		panel:  p,
		log:    logger,
	}
}

func (ha *HomeAssistant) Start() {
	ha.log.Info("Starting Home Assistant integration")
	ha.publishDiscoveryConfig()
}

func (ha *HomeAssistant) publishDiscoveryConfig() {
	ha.publishPanelConfig()

	for _, area := range ha.panel.GetAreas() {
		ha.publishAreaConfig(area)
	}

	for _, zone := range ha.panel.GetZones() {
		ha.publishZoneConfig(zone)
	}
}

func (ha *HomeAssistant) publishPanelConfig() {
	device := ha.panel.GetDevice()
	config := map[string]interface{}{
		"name":         fmt.Sprintf("DMP %s", device.Model),
		"identifiers":  []string{fmt.Sprintf("dmp_%05d", device.Account)},
		"manufacturer": "DMP",
		"model":        device.Model,
	}

	ha.publishConfig("binary_sensor", "panel", "connectivity", config)
}

func (ha *HomeAssistant) publishAreaConfig(area panel.Area) {
	config := map[string]interface{}{
		"name":             area.Name,
		"unique_id":        fmt.Sprintf("%s_area_%s", ha.mqtt.GetPrefix(), util.Slugify(area.Name)),
		"state_topic":      ha.mqtt.Topics().Area(area),
		"command_topic":    ha.mqtt.Topics().AreaCommand(area),
		"payload_disarm":   "disarm",
		"payload_arm_home": "arm_stay",
		"payload_arm_away": "arm_away",
		"value_template":   "{{ value_json.status }}",
	}

	ha.publishConfig("alarm_control_panel", area.ID, "", config)
}

func (ha *HomeAssistant) publishZoneConfig(zone panel.Zone) {
	config := map[string]interface{}{
		"name":           zone.Name,
		"unique_id":      fmt.Sprintf("%s_zone_%s", ha.mqtt.GetPrefix(), util.Slugify(zone.Name)),
		"state_topic":    ha.mqtt.Topics().Zone(zone),
		"device_class":   getDeviceClass(zone),
		"value_template": "{{ value_json.status }}",
		"payload_on":     panel.ZoneStatusActive,
		"payload_off":    panel.ZoneStatusSecure,
	}

	ha.publishConfig("binary_sensor", zone.ID, "", config)
}

func (ha *HomeAssistant) publishConfig(component, objectId, deviceClass string, config map[string]interface{}) {
	topic := fmt.Sprintf("%s/%s/%s/%s/config", ha.config.Prefix, component, ha.mqtt.GetPrefix(), objectId)

	if deviceClass != "" {
		config["device_class"] = deviceClass
	}

	payload, err := json.Marshal(config)
	if err != nil {
		ha.log.Error("Failed to marshal Home Assistant config: %v", err)
		return
	}

	ha.mqtt.Publish(topic, string(payload), true)
}
