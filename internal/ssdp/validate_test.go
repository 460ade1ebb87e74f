package ssdp

import (
	"testing"
)

const (
	belkinQuery = "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"ST: urn:Belkin:device:**\r\n\r\n"

	allQuery = "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: 239.255.255.250:1900\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 3\r\n" +
		"ST:ssdp:all\r\n\r\n"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		targets []string
		want    bool
	}{
		{
			name:    "belkin query matches belkin target",
			payload: []byte(belkinQuery),
			targets: []string{TargetBelkin},
			want:    true,
		},
		{
			name:    "belkin query does not match ssdp:all",
			payload: []byte(belkinQuery),
			targets: []string{TargetAll},
			want:    false,
		},
		{
			name:    "either family accepts",
			payload: []byte(belkinQuery),
			targets: []string{TargetAll, TargetBelkin},
			want:    true,
		},
		{
			name:    "ST without space after colon",
			payload: []byte(allQuery),
			targets: []string{TargetAll},
			want:    true,
		},
		{
			name:    "empty target set skips ST check",
			payload: []byte(allQuery),
			targets: nil,
			want:    true,
		},
		{
			name:    "nil payload",
			payload: nil,
			targets: nil,
			want:    false,
		},
		{
			name:    "empty payload",
			payload: []byte{},
			targets: []string{TargetAll},
			want:    false,
		},
		{
			name: "missing request line",
			payload: []byte("NOTIFY * HTTP/1.1\r\n" +
				"HOST: 239.255.255.250:1900\r\n" +
				"MAN: \"ssdp:discover\"\r\n" +
				"ST: ssdp:all\r\n\r\n"),
			targets: nil,
			want:    false,
		},
		{
			name: "missing host header",
			payload: []byte("M-SEARCH * HTTP/1.1\r\n" +
				"MAN: \"ssdp:discover\"\r\n" +
				"ST: ssdp:all\r\n\r\n"),
			targets: []string{TargetAll},
			want:    false,
		},
		{
			name: "wrong multicast group",
			payload: []byte("M-SEARCH * HTTP/1.1\r\n" +
				"HOST: 239.255.255.251:1900\r\n" +
				"MAN: \"ssdp:discover\"\r\n" +
				"ST: ssdp:all\r\n\r\n"),
			targets: nil,
			want:    false,
		},
		{
			name: "missing man header",
			payload: []byte("M-SEARCH * HTTP/1.1\r\n" +
				"HOST: 239.255.255.250:1900\r\n" +
				"ST: ssdp:all\r\n\r\n"),
			targets: nil,
			want:    false,
		},
		{
			name: "no ST header with targets",
			payload: []byte("M-SEARCH * HTTP/1.1\r\n" +
				"HOST: 239.255.255.250:1900\r\n" +
				"MAN: \"ssdp:discover\"\r\n\r\n"),
			targets: []string{TargetAll},
			want:    false,
		},
		{
			name: "target match is case sensitive",
			payload: []byte("M-SEARCH * HTTP/1.1\r\n" +
				"HOST: 239.255.255.250:1900\r\n" +
				"MAN: \"ssdp:discover\"\r\n" +
				"ST: urn:belkin:device:**\r\n\r\n"),
			targets: []string{TargetBelkin},
			want:    false,
		},
		{
			name: "ST before HOST",
			payload: []byte("M-SEARCH * HTTP/1.1\r\n" +
				"ST: ssdp:all\r\n" +
				"MAN: \"ssdp:discover\"\r\n" +
				"HOST: 239.255.255.250:1900\r\n\r\n"),
			targets: []string{TargetAll},
			want:    true,
		},
		{
			name: "embedded NUL bytes are tolerated",
			payload: append([]byte("M-SEARCH * HTTP/1.1\r\n\x00\x01"),
				[]byte("HOST: 239.255.255.250:1900\r\nMAN: \"ssdp:discover\"\r\nST: ssdp:all\r\n")...),
			targets: []string{TargetAll},
			want:    true,
		},
		{
			name:    "binary garbage",
			payload: []byte{0xff, 0x00, 0x13, 0x37, 'S', 'T', ':'},
			targets: []string{TargetAll},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.payload, tt.targets); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidate_MissingMarkerAlwaysRejects(t *testing.T) {
	markers := []string{
		"M-SEARCH * HTTP/1.1\r\n",
		"HOST: 239.255.255.250:1900\r\n",
		"MAN: \"ssdp:discover\"\r\n",
	}
	targetSets := [][]string{nil, {TargetAll}, {TargetBelkin}, {TargetAll, TargetBelkin}}

	for skip := range markers {
		payload := ""
		for i, m := range markers {
			if i != skip {
				payload += m
			}
		}
		payload += "ST: ssdp:all\r\n\r\n"

		for _, targets := range targetSets {
			if Validate([]byte(payload), targets) {
				t.Errorf("Validate() accepted payload missing %q with targets %v", markers[skip], targets)
			}
		}
	}
}

func TestSearchTarget(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantOK  bool
	}{
		{"skips HOST", "HOST: x\r\nST:   ssdp:all\r\n", "ssdp:all\r\n", true},
		{"at start of buffer", "ST: a", "a", true},
		{"only HOST", "HOST: 239.255.255.250:1900\r\n", "", false},
		{"empty value", "ST:", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SearchTarget([]byte(tt.payload))
			if ok != tt.wantOK {
				t.Fatalf("SearchTarget() ok = %v, want %v", ok, tt.wantOK)
			}
			if string(got) != tt.want {
				t.Errorf("SearchTarget() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTargetsFor(t *testing.T) {
	targets, err := TargetsFor([]string{"alexa", "HASS", "alexa"})
	if err != nil {
		t.Fatalf("TargetsFor() error = %v", err)
	}
	if len(targets) != 2 || targets[0] != TargetBelkin || targets[1] != TargetAll {
		t.Errorf("TargetsFor() = %v", targets)
	}

	if _, err := TargetsFor([]string{"sonos"}); err == nil {
		t.Error("TargetsFor() expected error for unknown family")
	}
}
