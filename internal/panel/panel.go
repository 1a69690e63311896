package panel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/daemonp/dmp2mqtt/internal/config"
	"github.com/daemonp/dmp2mqtt/internal/dmp"
	"github.com/daemonp/dmp2mqtt/internal/log"
	"github.com/daemonp/dmp2mqtt/internal/messages"
	"github.com/daemonp/dmp2mqtt/internal/util"
)

// One live command connection per panel endpoint. Panels drop the
// older link when a second remote connects, so a duplicate here would
// fight itself.
var (
	activeMu sync.Mutex
	active   = make(map[string]bool)
)

func connKey(host string, port, account int) string {
	return fmt.Sprintf("%s:%d/%d", host, port, account)
}

type Panel struct {
	config  *config.Config
	log     *log.Logger
	session *dmp.Session
	server  *dmp.Server

	mu     sync.Mutex
	device Device
	areas  []Area
	zones  []Zone

	eventHandlers []func(dmp.Event)
	areaHandlers  []func(Area)
	zoneHandlers  []func(Zone)

	keepaliveStop chan struct{}
	stopOnce      sync.Once
	connected     bool
}

func NewPanel(cfg *config.Config, logger *log.Logger) *Panel {
	session := dmp.NewSession(dmp.SessionConfig{
		Host:           cfg.Panel.Host,
		Port:           cfg.Panel.Port,
		Account:        strconv.Itoa(cfg.Panel.Account),
		RemoteKey:      cfg.Panel.RemoteKey,
		CommandTimeout: time.Duration(cfg.Panel.Timeout) * time.Second,
		RateLimit:      time.Duration(cfg.Panel.RateLimitMS) * time.Millisecond,
		MaxPages:       cfg.Panel.MaxPages,
		Messages:       messages.System(),
	}, logger)

	p := &Panel{
		config:  cfg,
		log:     logger,
		session: session,
		device: Device{
			Model:   "DMP XR Series",
			Account: cfg.Panel.Account,
		},
		keepaliveStop: make(chan struct{}),
	}
	session.OnEvent(p.handleEvent)
	return p
}

func (p *Panel) Connect(ctx context.Context) error {
	key := connKey(p.config.Panel.Host, p.config.Panel.Port, p.config.Panel.Account)
	activeMu.Lock()
	if active[key] {
		activeMu.Unlock()
		return fmt.Errorf("already connected to %s", key)
	}
	active[key] = true
	activeMu.Unlock()

	p.log.Info("Connecting to panel...")
	p.log.Debug("Attempting connection to %s:%d account %d",
		p.config.Panel.Host, p.config.Panel.Port, p.config.Panel.Account)
	if err := p.session.Connect(ctx); err != nil {
		activeMu.Lock()
		delete(active, key)
		activeMu.Unlock()
		p.log.Error("Failed to connect to panel: %v", err)
		return fmt.Errorf("failed to connect to panel: %v", err)
	}
	p.connected = true
	p.log.Info("Connected to panel")
	return nil
}

// Start loads the initial area and zone picture, starts the keepalive
// routine and, when enabled, the realtime listener.
func (p *Panel) Start(ctx context.Context) error {
	if !p.connected {
		return fmt.Errorf("not connected to panel")
	}

	p.log.Info("Starting panel operations...")

	p.log.Debug("Loading initial status from panel")
	if err := p.RefreshStatus(ctx); err != nil {
		p.log.Error("Failed to load initial status: %v", err)
		return fmt.Errorf("failed to load initial status: %v", err)
	}

	p.log.Debug("Starting keepalive routine")
	go p.keepalive()

	if p.config.Listen.Enabled {
		p.log.Debug("Starting realtime listener")
		p.server = dmp.NewServer(dmp.ServerConfig{
			Host: p.config.Listen.Host,
			Port: p.config.Listen.Port,
		}, messages.System(), p.log)
		p.server.Register(p.handleEvent)
		if err := p.server.Start(); err != nil {
			return fmt.Errorf("failed to start realtime listener: %v", err)
		}
	}

	p.log.Info("Panel operations started successfully")
	return nil
}

// RefreshStatus walks the paged status query and replaces the cached
// area and zone picture.
func (p *Panel) RefreshStatus(ctx context.Context) error {
	areaStates, zoneStates, err := p.session.Status(ctx)
	if err != nil {
		return err
	}

	areas := make([]Area, 0, len(areaStates))
	for _, a := range areaStates {
		num, err := strconv.Atoi(strings.TrimSpace(a.Number))
		if err != nil {
			continue
		}
		name := util.Normalize(a.Name)
		area := Area{
			Number: num,
			Name:   name,
			ID:     util.Slugify(name),
			Status: areaStatusFromWire(a.State),
		}
		p.applyAreaConfig(&area)
		areas = append(areas, area)
	}

	zones := make([]Zone, 0, len(zoneStates))
	for _, z := range zoneStates {
		num, err := strconv.Atoi(strings.TrimSpace(z.Number))
		if err != nil {
			continue
		}
		name := util.Normalize(z.Name)
		zone := Zone{
			Number: num,
			Name:   name,
			ID:     util.Slugify(name),
			Status: zoneStatusFromWire(z.State),
		}
		p.applyZoneConfig(&zone)
		zones = append(zones, zone)
	}

	p.mu.Lock()
	p.areas = areas
	p.zones = zones
	p.mu.Unlock()

	p.log.Debug("Fetched %d areas and %d zones", len(areas), len(zones))
	return nil
}

func (p *Panel) applyAreaConfig(area *Area) {
	for _, ac := range p.config.Areas {
		if ac.ID == area.ID && ac.Name != "" {
			area.Name = ac.Name
		}
	}
}

func (p *Panel) applyZoneConfig(zone *Zone) {
	for _, zc := range p.config.Zones {
		if zc.ID != zone.ID {
			continue
		}
		if zc.Name != "" {
			zone.Name = zc.Name
		}
		if zc.DeviceClass != "" {
			zone.DeviceClass = zc.DeviceClass
		}
	}
}

func areaStatusFromWire(state string) string {
	switch state {
	case dmp.AreaArmedAway:
		return AreaStatusArmedAway
	case dmp.AreaArmedStay:
		return AreaStatusArmedStay
	case dmp.AreaDisarmed:
		return AreaStatusDisarmed
	default:
		return AreaStatusUnknown
	}
}

func zoneStatusFromWire(state string) string {
	switch state {
	case dmp.ZoneNormal:
		return ZoneStatusSecure
	case dmp.ZoneOpen:
		return ZoneStatusActive
	case dmp.ZoneShort:
		return ZoneStatusShort
	case dmp.ZoneBypassed:
		return ZoneStatusBypassed
	case dmp.ZoneLowBattery:
		return ZoneStatusLowBattery
	case dmp.ZoneMissing:
		return ZoneStatusMissing
	default:
		return ZoneStatusUnknown
	}
}

// OnEvent registers a handler for every classified event, from either
// the command connection or the realtime listener.
func (p *Panel) OnEvent(h func(dmp.Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.eventHandlers = append(p.eventHandlers, h)
}

// OnAreaChange registers a handler for area state transitions.
func (p *Panel) OnAreaChange(h func(Area)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.areaHandlers = append(p.areaHandlers, h)
}

// OnZoneChange registers a handler for zone state transitions.
func (p *Panel) OnZoneChange(h func(Zone)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.zoneHandlers = append(p.zoneHandlers, h)
}

func (p *Panel) handleEvent(event dmp.Event) {
	p.log.Event("%s: %s %s", event.Category, event.TypeCode, event.TypeDescription())

	p.mu.Lock()
	var changedArea *Area
	var changedZone *Zone

	switch event.Category {
	case dmp.CategoryArming:
		changedArea = p.applyArmingEvent(event)
	case dmp.CategoryZoneAlarm:
		changedZone = p.setZoneStatus(event.Zone, ZoneStatusAlarm)
		changedArea = p.setAreaStatus(event.Area, AreaStatusTriggered)
	case dmp.CategoryZoneTrouble, dmp.CategoryZoneFault, dmp.CategoryZoneFail,
		dmp.CategoryZoneTamper:
		changedZone = p.setZoneStatus(event.Zone, ZoneStatusTrouble)
	case dmp.CategoryWirelessLowBattery:
		changedZone = p.setZoneStatus(event.Zone, ZoneStatusLowBattery)
	case dmp.CategoryWirelessZoneMissing:
		changedZone = p.setZoneStatus(event.Zone, ZoneStatusMissing)
	case dmp.CategoryZoneBypass:
		changedZone = p.setZoneStatus(event.Zone, ZoneStatusBypassed)
	case dmp.CategoryZoneRestore, dmp.CategoryZoneReset:
		changedZone = p.setZoneStatus(event.Zone, ZoneStatusSecure)
	case dmp.CategoryRealTimeStatus:
		switch event.TypeCode {
		case dmp.StatusDoorOpen, dmp.StatusDoorHeldOpen, dmp.StatusDoorForcedOpen:
			changedZone = p.setZoneStatus(event.Zone, ZoneStatusActive)
		case dmp.StatusDoorClosed:
			changedZone = p.setZoneStatus(event.Zone, ZoneStatusSecure)
		}
	case dmp.CategorySystemMessage:
		p.log.Panel("System message %s: %s", event.SystemCode, event.SystemText)
	}

	eventHandlers := p.eventHandlers
	areaHandlers := p.areaHandlers
	zoneHandlers := p.zoneHandlers
	p.mu.Unlock()

	for _, h := range eventHandlers {
		h(event)
	}
	if changedArea != nil {
		for _, h := range areaHandlers {
			h(*changedArea)
		}
	}
	if changedZone != nil {
		for _, h := range zoneHandlers {
			h(*changedZone)
		}
	}
}

func (p *Panel) applyArmingEvent(event dmp.Event) *Area {
	switch event.TypeCode {
	case dmp.ArmingDisarmed:
		return p.setAreaStatus(event.Area, AreaStatusDisarmed)
	case dmp.ArmingArmed:
		return p.setAreaStatus(event.Area, AreaStatusArmedAway)
	}
	return nil
}

// setAreaStatus updates the cached area state. Callers hold p.mu.
func (p *Panel) setAreaStatus(number, status string) *Area {
	num, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return nil
	}
	for i := range p.areas {
		if p.areas[i].Number == num {
			if p.areas[i].Status == status {
				return nil
			}
			p.areas[i].Status = status
			p.log.Info("Area %s (%d) status changed to %s", p.areas[i].Name, num, status)
			area := p.areas[i]
			return &area
		}
	}
	return nil
}

// setZoneStatus updates the cached zone state. Callers hold p.mu.
func (p *Panel) setZoneStatus(number, status string) *Zone {
	num, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return nil
	}
	for i := range p.zones {
		if p.zones[i].Number == num {
			if p.zones[i].Status == status {
				return nil
			}
			p.zones[i].Status = status
			p.log.Info("Zone %s (%d) status changed to %s", p.zones[i].Name, num, status)
			zone := p.zones[i]
			return &zone
		}
	}
	return nil
}

func (p *Panel) keepalive() {
	interval := time.Duration(p.config.Panel.Keepalive) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.keepaliveStop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			err := p.session.Keepalive(ctx)
			cancel()
			if err != nil {
				p.log.Error("Keepalive failed: %v", err)
			}
		}
	}
}

// ArmOptions carries the optional arming modifiers.
type ArmOptions struct {
	BypassFaulted bool
	ForceArm      bool
	Instant       *bool
}

func (p *Panel) Arm(ctx context.Context, areas []int, opts ArmOptions) error {
	_, err := p.session.Send(ctx, dmp.Command{
		Verb:          dmp.VerbArm,
		Areas:         areas,
		BypassFaulted: opts.BypassFaulted,
		ForceArm:      opts.ForceArm,
		Instant:       opts.Instant,
	})
	return err
}

func (p *Panel) Disarm(ctx context.Context, areas []int) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbDisarm, Areas: areas})
	return err
}

func (p *Panel) BypassZone(ctx context.Context, zone int) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbBypassZone, Zone: zone})
	return err
}

func (p *Panel) RestoreZone(ctx context.Context, zone int) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbRestoreZone, Zone: zone})
	return err
}

func (p *Panel) OutputOn(ctx context.Context, output int) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbOutputOn, Output: output})
	return err
}

func (p *Panel) OutputOff(ctx context.Context, output int) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbOutputOff, Output: output})
	return err
}

func (p *Panel) OutputPulse(ctx context.Context, output int) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbOutputPulse, Output: output})
	return err
}

func (p *Panel) SensorReset(ctx context.Context) error {
	_, err := p.session.Send(ctx, dmp.Command{Verb: dmp.VerbSensorReset})
	return err
}

func (p *Panel) UserCodes(ctx context.Context) ([]dmp.UserCode, error) {
	return p.session.UserCodes(ctx)
}

func (p *Panel) UserProfiles(ctx context.Context) ([]dmp.UserProfile, error) {
	return p.session.UserProfiles(ctx)
}

// ValidateAreaCode checks a user-supplied code against the area's
// configuration. A statically configured code is compared directly;
// otherwise the panel's user table decides.
func (p *Panel) ValidateAreaCode(ctx context.Context, area Area, code string, arming bool) (bool, error) {
	var ac *config.AreaConfig
	for i := range p.config.Areas {
		if p.config.Areas[i].ID == area.ID {
			ac = &p.config.Areas[i]
			break
		}
	}
	if ac == nil {
		return true, nil
	}
	if arming && !ac.CodeArmRequired {
		return true, nil
	}
	if !arming && !ac.CodeDisarmRequired {
		return true, nil
	}
	if ac.Code != "" {
		return code == ac.Code, nil
	}
	_, ok, err := p.CheckCode(ctx, code)
	return ok, err
}

// CheckCode looks a user code up in the panel's user table and returns
// the matching record.
func (p *Panel) CheckCode(ctx context.Context, code string) (dmp.UserCode, bool, error) {
	if code == "" {
		return dmp.UserCode{}, false, nil
	}
	users, err := p.UserCodes(ctx)
	if err != nil {
		return dmp.UserCode{}, false, err
	}
	for _, u := range users {
		if u.Code == code || u.PIN == code {
			return u, true, nil
		}
	}
	return dmp.UserCode{}, false, nil
}

func (p *Panel) GetAreas() []Area {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.areas
}

func (p *Panel) GetZones() []Zone {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.zones
}

func (p *Panel) GetDevice() Device {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device
}

func (p *Panel) SetCachedData(data *CacheData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.device = data.Device
	p.areas = data.Areas
	p.zones = data.Zones
}

func (p *Panel) GetCacheableData() *CacheData {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &CacheData{
		Device:     p.device,
		Areas:      p.areas,
		Zones:      p.zones,
		LastUpdate: time.Now(),
	}
}

func (p *Panel) Disconnect() {
	p.log.Info("Disconnecting from panel...")
	p.stopOnce.Do(func() { close(p.keepaliveStop) })
	if p.server != nil {
		p.server.Stop()
	}
	if err := p.session.Close(); err != nil {
		p.log.Debug("Session close: %v", err)
	}
	activeMu.Lock()
	delete(active, connKey(p.config.Panel.Host, p.config.Panel.Port, p.config.Panel.Account))
	activeMu.Unlock()
	p.connected = false
	p.log.Info("Disconnected from panel")
}
