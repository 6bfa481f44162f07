package collectors_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/collectors"
	"github.com/NotCoffee418/power-control-center/internal/snapshot"
	"github.com/NotCoffee418/power-control-center/pkg/logger"
)

func TestMeterCollector_PollPopulatesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"net_power_w": 450, "solar_production_w": 2200}`))
	}))
	defer srv.Close()

	prov := snapshot.New(nil, nil, nil)
	c := collectors.NewMeterCollector(srv.URL, prov, logger.Discard())
	c.Poll(context.Background())

	li, missing := prov.Snapshot("living_room", time.Now())
	for _, m := range missing {
		if m.Field == "net_power_w" || m.Field == "solar_production_w" {
			t.Fatalf("meter field still missing after poll: %v", missing)
		}
	}
	if li.NetPowerW != 450 || li.SolarProductionW != 2200 {
		t.Errorf("snapshot = %+v, want net=450 solar=2200", li)
	}
}

func TestMeterCollector_FailureRetainsPriorValue(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Write([]byte(`{"net_power_w": 100, "solar_production_w": 50}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	prov := snapshot.New(nil, nil, nil)
	c := collectors.NewMeterCollector(srv.URL, prov, logger.Discard())
	c.Poll(context.Background())
	c.Poll(context.Background()) // this one fails server-side

	li, _ := prov.Snapshot("living_room", time.Now())
	if li.NetPowerW != 100 {
		t.Errorf("net power = %d, want prior value 100 retained across failed poll", li.NetPowerW)
	}
}

func TestWeatherCollector_PollPopulatesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"outdoor_temp": 31.5, "avg_outdoor_next_24h": 27.2}`))
	}))
	defer srv.Close()

	prov := snapshot.New(nil, nil, nil)
	c := collectors.NewWeatherCollector(srv.URL, 52.3, 4.9, prov, logger.Discard())
	c.Poll(context.Background())

	li, _ := prov.Snapshot("living_room", time.Now())
	if li.OutdoorTemp != 31.5 || li.AvgOutdoorNext24h != 27.2 {
		t.Errorf("snapshot = %+v, want outdoor=31.5 avg24h=27.2", li)
	}
}

func TestDeviceTelemetryCollector_PollPopulatesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"indoor_temp": 22.5, "is_auto_mode": true, "user_is_home": false}`))
	}))
	defer srv.Close()

	prov := snapshot.New(nil, nil, nil)
	c := collectors.NewDeviceTelemetryCollector("living_room", srv.URL, prov, nil, logger.Discard())
	c.Poll(context.Background())

	li, _ := prov.Snapshot("living_room", time.Now())
	if li.IndoorTemp != 22.5 || !li.IsAutoMode || li.UserIsHome {
		t.Errorf("snapshot = %+v, want indoor=22.5 auto=true home=false", li)
	}
}

// fakeTransitionDetector records every device passed to
// ManualToAutoTransition, in order, so tests can assert exactly when the
// edge-detector in DeviceTelemetryCollector.Poll fires.
type fakeTransitionDetector struct {
	devices []string
}

func (f *fakeTransitionDetector) ManualToAutoTransition(ctx context.Context, device string) {
	f.devices = append(f.devices, device)
}

// scriptedDeviceServer replays isAutoMode[n] on its n-th request, so a
// single DeviceTelemetryCollector can be polled repeatedly against a
// scripted sequence of readings to exercise its edge-detection state.
func scriptedDeviceServer(t *testing.T, isAutoMode []bool) *httptest.Server {
	t.Helper()
	calls := 0
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls >= len(isAutoMode) {
			t.Fatalf("scriptedDeviceServer: got more requests than scripted readings")
		}
		mode := isAutoMode[calls]
		calls++
		fmt.Fprintf(w, `{"indoor_temp": 20.0, "is_auto_mode": %t, "user_is_home": true}`, mode)
	}))
}

func TestDeviceTelemetryCollector_FirstPollNeverFiresTransition(t *testing.T) {
	srv := scriptedDeviceServer(t, []bool{true})
	defer srv.Close()

	det := &fakeTransitionDetector{}
	c := collectors.NewDeviceTelemetryCollector("living_room", srv.URL, snapshot.New(nil, nil, nil), det, logger.Discard())
	c.Poll(context.Background())

	if len(det.devices) != 0 {
		t.Errorf("first poll fired a transition: %v, want none (no prior reading to compare)", det.devices)
	}
}

func TestDeviceTelemetryCollector_FalseToTrueFiresTransitionOnce(t *testing.T) {
	srv := scriptedDeviceServer(t, []bool{false, true})
	defer srv.Close()

	det := &fakeTransitionDetector{}
	c := collectors.NewDeviceTelemetryCollector("living_room", srv.URL, snapshot.New(nil, nil, nil), det, logger.Discard())
	c.Poll(context.Background()) // baseline: manual
	c.Poll(context.Background()) // false -> true

	if len(det.devices) != 1 || det.devices[0] != "living_room" {
		t.Errorf("devices = %v, want exactly one transition for living_room", det.devices)
	}
}

func TestDeviceTelemetryCollector_TrueToTrueNeverFiresTransition(t *testing.T) {
	srv := scriptedDeviceServer(t, []bool{true, true})
	defer srv.Close()

	det := &fakeTransitionDetector{}
	c := collectors.NewDeviceTelemetryCollector("living_room", srv.URL, snapshot.New(nil, nil, nil), det, logger.Discard())
	c.Poll(context.Background())
	c.Poll(context.Background())

	if len(det.devices) != 0 {
		t.Errorf("true->true poll fired a transition: %v, want none", det.devices)
	}
}

func TestDeviceTelemetryCollector_TrueToFalseNeverFiresTransition(t *testing.T) {
	srv := scriptedDeviceServer(t, []bool{true, false})
	defer srv.Close()

	det := &fakeTransitionDetector{}
	c := collectors.NewDeviceTelemetryCollector("living_room", srv.URL, snapshot.New(nil, nil, nil), det, logger.Discard())
	c.Poll(context.Background())
	c.Poll(context.Background())

	if len(det.devices) != 0 {
		t.Errorf("true->false poll fired a transition: %v, want none", det.devices)
	}
}

func TestDeviceTelemetryCollector_MultipleDevicesTrackTransitionsIndependently(t *testing.T) {
	livingRoom := scriptedDeviceServer(t, []bool{false, true})
	defer livingRoom.Close()
	bedroom := scriptedDeviceServer(t, []bool{true, true})
	defer bedroom.Close()

	det := &fakeTransitionDetector{}
	prov := snapshot.New(nil, nil, nil)
	lr := collectors.NewDeviceTelemetryCollector("living_room", livingRoom.URL, prov, det, logger.Discard())
	br := collectors.NewDeviceTelemetryCollector("bedroom", bedroom.URL, prov, det, logger.Discard())

	lr.Poll(context.Background())
	br.Poll(context.Background())
	lr.Poll(context.Background())
	br.Poll(context.Background())

	if len(det.devices) != 1 || det.devices[0] != "living_room" {
		t.Errorf("devices = %v, want exactly one transition for living_room only", det.devices)
	}
}
