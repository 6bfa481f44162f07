// Package snapshot owns the read-through caches for smart-meter, solar,
// weather and per-device AC telemetry, per spec.md §4.3. Snapshot
// composes a consistent LiveInputs view from whatever the collectors
// (internal/collectors) last wrote, never performing I/O itself.
// Grounded on the teacher's pkg/nodes/api/api.go pattern of stashing a
// live value for downstream pull (it writes the HTTP response into
// mn.Vars for a later node to read), generalized here into an explicit
// cache-with-TTL struct since this spec's §4.3 requires staleness
// detection the teacher's one-shot API-call node never needed.
package snapshot

import (
	"sync"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/model/macstate"
	"github.com/NotCoffee418/power-control-center/internal/model/mliveinputs"
)

// TTLs for each collected source: three of spec.md §4.9's collection
// periods, so a value survives two missed polls before it is stale.
const (
	MeterTTL    = 30 * time.Second
	WeatherTTL  = 30 * time.Minute
	DeviceTTL   = 90 * time.Second
)

type observed struct {
	value interface{}
	at    time.Time
	valid bool
}

func (o observed) fresh(now time.Time, ttl time.Duration) bool {
	return o.valid && now.Sub(o.at) <= ttl
}

// MeterReading is the latest smart-meter/solar sample.
type MeterReading struct {
	NetPowerW        int
	SolarProductionW int
}

// WeatherReading is the latest weather sample.
type WeatherReading struct {
	OutdoorTemp       float64
	AvgOutdoorNext24h float64
}

// DeviceReading is the latest per-device telemetry sample (indoor temp,
// auto-mode flag, user presence). Last-change minutes are not collected
// here; Snapshot takes them from its LastChangeSource.
type DeviceReading struct {
	IndoorTemp float64
	IsAutoMode bool
	UserIsHome bool
}

// ActiveCommandSource supplies the device's last-confirmed AcState, so a
// Snapshot call can fold it into LiveInputs.ActiveCommand without the
// snapshot provider depending on internal/executor directly — it takes
// whatever satisfies this interface, which internal/executor.Executor
// does.
type ActiveCommandSource interface {
	CachedState(device string) (macstate.AcState, bool)
}

// PirSource supplies the PIR lockout's current detection age for device,
// so Snapshot can populate PirDetected/PirMinutesAgo without depending
// on internal/pir directly.
type PirSource interface {
	MinutesSinceDetection(device string, now time.Time) (int, bool)
}

// LastChangeSource supplies the age of the last command the executor
// actually issued to device, so Snapshot can populate LastChangeMinutes
// without depending on internal/executor directly.
type LastChangeSource interface {
	LastChangeMinutes(device string, now time.Time) (int, bool)
}

// Provider assembles LiveInputs for one device at a time from whatever
// the collectors last wrote. Safe for concurrent use: one writer per
// source, many readers via Snapshot (spec.md §4.3 "single-writer,
// many-reader").
type Provider struct {
	mu      sync.RWMutex
	meter   observed
	weather observed
	devices map[string]observed

	activeCmd  ActiveCommandSource
	pir        PirSource
	lastChange LastChangeSource
}

func New(activeCmd ActiveCommandSource, pir PirSource, lastChange LastChangeSource) *Provider {
	return &Provider{
		devices:    make(map[string]observed),
		activeCmd:  activeCmd,
		pir:        pir,
		lastChange: lastChange,
	}
}

// PutMeter is called by the meter collector on every successful poll.
func (p *Provider) PutMeter(r MeterReading, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meter = observed{value: r, at: at, valid: true}
}

// PutWeather is called by the weather collector on every successful poll.
func (p *Provider) PutWeather(r WeatherReading, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.weather = observed{value: r, at: at, valid: true}
}

// PutDevice is called by the device-telemetry collector on every
// successful poll of device.
func (p *Provider) PutDevice(device string, r DeviceReading, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.devices[device] = observed{value: r, at: at, valid: true}
}

// Missing names one LiveInputs field that could not be populated because
// its source is stale or has never reported, per spec.md §4.3:
// "Values older than a source-specific TTL surface as missing".
type Missing struct {
	Field string
}

// Snapshot composes the current LiveInputs view for device. The returned
// []Missing lists every field whose backing source was stale or absent,
// for the caller's own logging; the same fields are also folded into
// LiveInputs.Missing so a node that requires one of them fails evaluation
// with a named error (sensor nodes return mliveinputs.CollectorStale
// instead of the field's zero value) rather than silently substituting 0.
func (p *Provider) Snapshot(device string, now time.Time) (mliveinputs.LiveInputs, []Missing) {
	p.mu.RLock()
	meter := p.meter
	weather := p.weather
	dev := p.devices[device]
	p.mu.RUnlock()

	var missing []Missing
	missingSet := mliveinputs.MissingSet{}
	mark := func(field string) {
		missing = append(missing, Missing{Field: field})
		missingSet[field] = true
	}
	li := mliveinputs.LiveInputs{Device: device}

	if meter.fresh(now, MeterTTL) {
		r := meter.value.(MeterReading)
		li.NetPowerW = r.NetPowerW
		li.SolarProductionW = r.SolarProductionW
	} else {
		mark("net_power_w")
		mark("solar_production_w")
	}

	if weather.fresh(now, WeatherTTL) {
		r := weather.value.(WeatherReading)
		li.OutdoorTemp = r.OutdoorTemp
		li.AvgOutdoorNext24h = r.AvgOutdoorNext24h
	} else {
		mark("outdoor_temp")
		mark("avg_outdoor_next_24h")
	}

	if dev.fresh(now, DeviceTTL) {
		r := dev.value.(DeviceReading)
		li.IndoorTemp = r.IndoorTemp
		li.IsAutoMode = r.IsAutoMode
		li.UserIsHome = r.UserIsHome
	} else {
		mark("indoor_temp")
		mark("is_auto_mode")
		mark("user_is_home")
	}
	li.Missing = missingSet

	if p.activeCmd != nil {
		if state, ok := p.activeCmd.CachedState(device); ok {
			s := state
			li.ActiveCommand = &s
		}
	}

	if p.pir != nil {
		if mins, detected := p.pir.MinutesSinceDetection(device, now); detected {
			li.PirDetected = true
			li.PirMinutesAgo = mins
		}
	}

	if p.lastChange != nil {
		if mins, ok := p.lastChange.LastChangeMinutes(device, now); ok {
			li.LastChangeMinutes = mins
		}
	}

	return li, missing
}
