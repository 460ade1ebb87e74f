package discovery

import (
	"errors"
	"testing"
	"time"

	"github.com/koron/go-ssdp"
)

func withSearch(t *testing.T, fn func(string, int, string) ([]ssdp.Service, error)) {
	t.Helper()
	orig := searchFunc
	searchFunc = fn
	t.Cleanup(func() { searchFunc = orig })
}

func TestParseUSN(t *testing.T) {
	tests := []struct {
		usn    string
		wantID string
		wantOK bool
	}{
		{"uuid:Socket-1_0-3f2a9c1000::urn:Belkin:device:**", "3f2a9c1000", true},
		{"uuid:Socket-1_0-porch01::upnp:rootdevice", "porch01", true},
		{"uuid:2f402f80-da50-11e1-9b23-001788255acc::upnp:rootdevice", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.usn, func(t *testing.T) {
			id, ok := parseUSN(tt.usn)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("parseUSN(%q) = (%q, %v), want (%q, %v)", tt.usn, id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		location string
		wantHost string
		wantPort int
		wantErr  bool
	}{
		{"http://192.168.1.50:5000/setup.xml", "192.168.1.50", 5000, false},
		{"http://192.168.1.50/setup.xml", "192.168.1.50", 80, false},
		{"/setup.xml", "", 0, true},
		{"http://[::1", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			host, port, err := parseLocation(tt.location)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseLocation(%q) expected error", tt.location)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseLocation(%q) error = %v", tt.location, err)
			}
			if host != tt.wantHost || port != tt.wantPort {
				t.Errorf("parseLocation(%q) = (%q, %d), want (%q, %d)", tt.location, host, port, tt.wantHost, tt.wantPort)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	var gotTarget string
	var gotWait int
	withSearch(t, func(st string, waitSec int, localAddr string) ([]ssdp.Service, error) {
		gotTarget = st
		gotWait = waitSec
		return []ssdp.Service{
			{Type: "urn:Belkin:device:**", USN: "uuid:Socket-1_0-bb00000001::urn:Belkin:device:**", Location: "http://192.168.1.50:5001/setup.xml", Server: "Unspecified, UPnP/1.0, Unspecified"},
			{Type: "upnp:rootdevice", USN: "uuid:2f402f80-da50-11e1-9b23-001788255acc::upnp:rootdevice", Location: "http://192.168.1.9:80/description.xml"},
			{Type: "urn:Belkin:device:**", USN: "uuid:Socket-1_0-aa00000000::urn:Belkin:device:**", Location: "http://192.168.1.50:5000/setup.xml"},
			// Duplicate answer from a second interface join
			{Type: "urn:Belkin:device:**", USN: "uuid:Socket-1_0-aa00000000::urn:Belkin:device:**", Location: "http://192.168.1.50:5000/setup.xml"},
		}, nil
	})

	devices, err := Probe("urn:Belkin:device:**", 500*time.Millisecond, "")
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	if gotTarget != "urn:Belkin:device:**" {
		t.Errorf("search target = %q", gotTarget)
	}
	if gotWait != 1 {
		t.Errorf("waitSec = %d, want minimum of 1", gotWait)
	}
	if len(devices) != 2 {
		t.Fatalf("len(devices) = %d, want 2", len(devices))
	}
	if devices[0].ID != "aa00000000" || devices[0].Port != 5000 {
		t.Errorf("devices[0] = %+v", devices[0])
	}
	if devices[1].ID != "bb00000001" || devices[1].Port != 5001 || devices[1].IP != "192.168.1.50" {
		t.Errorf("devices[1] = %+v", devices[1])
	}
	if devices[1].Source != "ssdp" {
		t.Errorf("Source = %q, want ssdp", devices[1].Source)
	}
}

func TestProbe_SearchError(t *testing.T) {
	withSearch(t, func(string, int, string) ([]ssdp.Service, error) {
		return nil, errors.New("no route")
	})

	if _, err := Probe("ssdp:all", time.Second, ""); err == nil {
		t.Fatal("Probe() expected error")
	}
}

func TestDevice_SetupURL(t *testing.T) {
	d := &Device{ID: "aa", IP: "10.0.0.2", Port: 5000}
	if got := d.SetupURL(); got != "http://10.0.0.2:5000/setup.xml" {
		t.Errorf("SetupURL() = %q", got)
	}

	d.Location = "http://10.0.0.2:5000/setup.xml?x=1"
	if got := d.SetupURL(); got != d.Location {
		t.Errorf("SetupURL() = %q, want Location", got)
	}
}

func TestDevice_String(t *testing.T) {
	d := &Device{ID: "aa", Name: "Porch", IP: "10.0.0.2", Port: 5000}
	if got := d.String(); got != "Device aa (Porch) at 10.0.0.2:5000" {
		t.Errorf("String() = %q", got)
	}
}
