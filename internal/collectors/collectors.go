// Package collectors implements the polling caches of spec.md §4.9: one
// independent task per data source (meter, weather, device telemetry),
// each on its own period, writing into an internal/snapshot.Provider. A
// failed poll retains the prior value and its age rather than blocking
// the planner. Grounded on the teacher's pkg/nodes/api/api.go
// (http.NewRequest + client.Do, no framework) for the outbound call and
// the parser package's gjson.GetBytes pattern
// (go/dev-tools-nodes/pkg/parser/parser.go) for pulling fields out of
// the JSON body without a full struct unmarshal.
package collectors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/NotCoffee418/power-control-center/internal/snapshot"
)

// Periods, per spec.md §4.9.
const (
	MeterPeriod   = 10 * time.Second
	WeatherPeriod = 10 * time.Minute
	DevicePeriod  = 30 * time.Second
)

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("collectors: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("collectors: request %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("collectors: %s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("collectors: read body from %s: %w", url, err)
	}
	return body, nil
}

// MeterCollector polls the smart-meter/solar HTTP endpoint and writes
// readings into prov.
type MeterCollector struct {
	client   *http.Client
	endpoint string
	prov     *snapshot.Provider
	logger   *slog.Logger
}

func NewMeterCollector(endpoint string, prov *snapshot.Provider, logger *slog.Logger) *MeterCollector {
	return &MeterCollector{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		prov:     prov,
		logger:   logger,
	}
}

// Run polls on MeterPeriod until ctx is cancelled. A single failed poll
// logs a warning and leaves the provider's cache untouched, per
// spec.md §4.9: "repeated failures do not block the planner".
func (c *MeterCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(MeterPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Poll(ctx)
		}
	}
}

func (c *MeterCollector) Poll(ctx context.Context) {
	body, err := get(ctx, c.client, c.endpoint+"/reading")
	if err != nil {
		c.logger.Warn("meter poll failed, retaining prior value", "error", err)
		return
	}
	reading := snapshot.MeterReading{
		NetPowerW:        int(gjson.GetBytes(body, "net_power_w").Int()),
		SolarProductionW: int(gjson.GetBytes(body, "solar_production_w").Int()),
	}
	c.prov.PutMeter(reading, time.Now())
}

// WeatherCollector polls the weather HTTP endpoint and writes readings
// into prov.
type WeatherCollector struct {
	client   *http.Client
	endpoint string
	lat, lon float64
	prov     *snapshot.Provider
	logger   *slog.Logger
}

func NewWeatherCollector(endpoint string, lat, lon float64, prov *snapshot.Provider, logger *slog.Logger) *WeatherCollector {
	return &WeatherCollector{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: endpoint,
		lat:      lat,
		lon:      lon,
		prov:     prov,
		logger:   logger,
	}
}

func (c *WeatherCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(WeatherPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Poll(ctx)
		}
	}
}

func (c *WeatherCollector) Poll(ctx context.Context) {
	url := fmt.Sprintf("%s/forecast?lat=%f&lon=%f", c.endpoint, c.lat, c.lon)
	body, err := get(ctx, c.client, url)
	if err != nil {
		c.logger.Warn("weather poll failed, retaining prior value", "error", err)
		return
	}
	reading := snapshot.WeatherReading{
		OutdoorTemp:       gjson.GetBytes(body, "outdoor_temp").Float(),
		AvgOutdoorNext24h: gjson.GetBytes(body, "avg_outdoor_next_24h").Float(),
	}
	c.prov.PutWeather(reading, time.Now())
}

// ManualToAutoDetector reacts to a device's is_auto_mode flag flipping
// from false to true, per spec.md §4.4/§8's "device just transitioned
// from manual to automatic control; full state resent" cause. Satisfied
// by internal/planner.Driver; kept as a narrow interface here rather than
// importing internal/planner directly, mirroring internal/snapshot's own
// narrow-interface decoupling from internal/executor/internal/pir.
type ManualToAutoDetector interface {
	ManualToAutoTransition(ctx context.Context, device string)
}

// DeviceTelemetryCollector polls one AC unit's telemetry endpoint and
// writes readings into prov.
type DeviceTelemetryCollector struct {
	client      *http.Client
	device      string
	endpoint    string
	prov        *snapshot.Provider
	transitions ManualToAutoDetector
	logger      *slog.Logger

	haveSeen    bool
	wasAutoMode bool
}

func NewDeviceTelemetryCollector(device, endpoint string, prov *snapshot.Provider, transitions ManualToAutoDetector, logger *slog.Logger) *DeviceTelemetryCollector {
	return &DeviceTelemetryCollector{
		client:      &http.Client{Timeout: 10 * time.Second},
		device:      device,
		endpoint:    endpoint,
		prov:        prov,
		transitions: transitions,
		logger:      logger,
	}
}

func (c *DeviceTelemetryCollector) Run(ctx context.Context) {
	ticker := time.NewTicker(DevicePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Poll(ctx)
		}
	}
}

func (c *DeviceTelemetryCollector) Poll(ctx context.Context) {
	body, err := get(ctx, c.client, c.endpoint+"/telemetry")
	if err != nil {
		c.logger.Warn("device telemetry poll failed, retaining prior value", "device", c.device, "error", err)
		return
	}
	reading := snapshot.DeviceReading{
		IndoorTemp: gjson.GetBytes(body, "indoor_temp").Float(),
		IsAutoMode: gjson.GetBytes(body, "is_auto_mode").Bool(),
		UserIsHome: gjson.GetBytes(body, "user_is_home").Bool(),
	}
	c.prov.PutDevice(c.device, reading, time.Now())

	// A false->true edge on is_auto_mode is the manual->auto transition
	// itself; the very first poll only establishes a baseline and never
	// counts as one, since there is no prior reading to compare against.
	if c.haveSeen && !c.wasAutoMode && reading.IsAutoMode && c.transitions != nil {
		c.transitions.ManualToAutoTransition(ctx, c.device)
	}
	c.haveSeen = true
	c.wasAutoMode = reading.IsAutoMode
}
