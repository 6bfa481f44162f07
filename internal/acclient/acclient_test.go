package acclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NotCoffee418/power-control-center/internal/acclient"
)

// TestHTTPClient_UsesEachDevicesOwnAPIKey wires two devices to two
// independent test servers, each expecting its own API key, and checks
// that a command to one device never leaks the other device's key. Go
// map iteration order is randomized, so a client that picked one shared
// key at construction time (rather than keying by device per call) would
// fail this test roughly half the time.
func TestHTTPClient_UsesEachDevicesOwnAPIKey(t *testing.T) {
	var livingRoomKey, bedroomKey string
	livingRoom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		livingRoomKey = r.Header.Get("ApiKey")
		w.WriteHeader(http.StatusOK)
	}))
	defer livingRoom.Close()
	bedroom := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bedroomKey = r.Header.Get("ApiKey")
		w.WriteHeader(http.StatusOK)
	}))
	defer bedroom.Close()

	client := acclient.New(map[string]acclient.Endpoint{
		"living_room": {URL: livingRoom.URL, APIKey: "living-room-key"},
		"bedroom":     {URL: bedroom.URL, APIKey: "bedroom-key"},
	})

	if err := client.TurnOffAc(context.Background(), "living_room"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := client.TurnOffAc(context.Background(), "bedroom"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if livingRoomKey != "living-room-key" {
		t.Errorf("living_room saw API key %q, want %q", livingRoomKey, "living-room-key")
	}
	if bedroomKey != "bedroom-key" {
		t.Errorf("bedroom saw API key %q, want %q", bedroomKey, "bedroom-key")
	}
}

func TestHTTPClient_UnknownDeviceFailsWithoutRequest(t *testing.T) {
	client := acclient.New(map[string]acclient.Endpoint{})
	err := client.TurnOffAc(context.Background(), "unknown")
	if err == nil {
		t.Fatal("expected an error for a device with no configured endpoint")
	}
}
