package mqtt

import (
	"fmt"

	"github.com/daemonp/dmp2mqtt/internal/panel"
	"github.com/daemonp/dmp2mqtt/internal/util"
)

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

func (t *Topics) Config() string {
	return fmt.Sprintf("%s/config", t.prefix)
}

func (t *Topics) Area(area panel.Area) string {
	return fmt.Sprintf("%s/area/%s", t.prefix, util.Slugify(area.Name))
}

func (t *Topics) AreaCommand(area panel.Area) string {
	return fmt.Sprintf("%s/area/%s/command", t.prefix, util.Slugify(area.Name))
}

func (t *Topics) Zone(zone panel.Zone) string {
	return fmt.Sprintf("%s/zone/%s", t.prefix, util.Slugify(zone.Name))
}

func (t *Topics) ZoneCommand(zone panel.Zone) string {
	return fmt.Sprintf("%s/zone/%s/command", t.prefix, util.Slugify(zone.Name))
}

func (t *Topics) OutputCommand() string {
	return fmt.Sprintf("%s/output/+/command", t.prefix)
}

func (t *Topics) Output(number int) string {
	return fmt.Sprintf("%s/output/%d", t.prefix, number)
}

func (t *Topics) Event() string {
	return fmt.Sprintf("%s/event", t.prefix)
}

func (t *Topics) SensorReset() string {
	return fmt.Sprintf("%s/sensor_reset", t.prefix)
}
