package device

import (
	"errors"
	"strings"
	"testing"
)

func TestMakeID(t *testing.T) {
	tests := []struct {
		name   string
		hostID uint32
		index  int
		want   string
	}{
		{"first device", 0x3f2a9c10, 0, "3f2a9c1000"},
		{"padded host id", 0x1, 5, "0000000105"},
		{"two digit index", 0xdeadbeef, 0x1f, "deadbeef1f"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MakeID(tt.hostID, tt.index)
			if got != tt.want {
				t.Errorf("MakeID() = %q, want %q", got, tt.want)
			}
			if len(got) > MaxIDLength {
				t.Errorf("MakeID() length %d exceeds MaxIDLength", len(got))
			}
		})
	}
}

func TestDefaultName(t *testing.T) {
	if got := DefaultName(10); got != "Simulater 0a" {
		t.Errorf("DefaultName(10) = %q, want %q", got, "Simulater 0a")
	}
}

func TestHostIDFromName_Stable(t *testing.T) {
	a := HostIDFromName("kitchen-pi")
	b := HostIDFromName("kitchen-pi")
	c := HostIDFromName("garage-pi")

	if a != b {
		t.Errorf("HostIDFromName() not stable: %08x != %08x", a, b)
	}
	if a == c {
		t.Errorf("HostIDFromName() collided for different names: %08x", a)
	}
}

func TestGenerate(t *testing.T) {
	records := Generate(0xcafebabe, 3)

	if len(records) != 3 {
		t.Fatalf("Generate() returned %d records, want 3", len(records))
	}
	for i, r := range records {
		if r.Port != BasePort+i {
			t.Errorf("records[%d].Port = %d, want %d", i, r.Port, BasePort+i)
		}
		if !strings.HasPrefix(r.ID, "cafebabe") {
			t.Errorf("records[%d].ID = %q, want cafebabe prefix", i, r.ID)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("records[%d].Validate() error = %v", i, err)
		}
	}
}

func TestNewRegistry(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		wantErr error
	}{
		{
			name:    "valid",
			records: Generate(1, 2),
		},
		{
			name:    "empty registry",
			records: nil,
		},
		{
			name:    "empty id",
			records: []Record{{ID: "", Port: 5000}},
			wantErr: ErrEmptyID,
		},
		{
			name:    "id too long",
			records: []Record{{ID: "0123456789ab", Port: 5000}},
			wantErr: ErrIDTooLong,
		},
		{
			name:    "duplicate id",
			records: []Record{{ID: "aa", Port: 5000}, {ID: "aa", Port: 5001}},
			wantErr: ErrDuplicateID,
		},
		{
			name:    "too many devices",
			records: Generate(1, MaxDevices+1),
			wantErr: ErrTooManyDevices,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.records)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewRegistry() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewRegistry() unexpected error = %v", err)
			}
			if reg.Count() != len(tt.records) {
				t.Errorf("Count() = %d, want %d", reg.Count(), len(tt.records))
			}
		})
	}
}

func TestRegistry_InvalidPort(t *testing.T) {
	_, err := NewRegistry([]Record{{ID: "abc", Port: 70000}})
	if err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestRegistry_OrderAndCopy(t *testing.T) {
	records := []Record{
		{ID: "b", Name: "second", Port: 5001},
		{ID: "a", Name: "first", Port: 5000},
	}
	reg, err := NewRegistry(records)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	records[0].ID = "mutated"
	if reg.Get(0).ID != "b" {
		t.Errorf("Get(0).ID = %q, registry should not alias caller slice", reg.Get(0).ID)
	}
	if reg.Get(1).ID != "a" {
		t.Errorf("Get(1).ID = %q, want %q", reg.Get(1).ID, "a")
	}

	all := reg.All()
	all[0].ID = "changed"
	if reg.Get(0).ID != "b" {
		t.Error("All() should return a copy")
	}
}

func TestRegistry_NilCount(t *testing.T) {
	var reg *Registry
	if reg.Count() != 0 {
		t.Errorf("nil registry Count() = %d, want 0", reg.Count())
	}
}
