package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Store: StoreConfig{Backend: "postgres", DataDir: "/tmp/data"}},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "empty backend is rejected before defaults",
			config:  Config{},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "defaults produce a valid memory config",
			config:  Config{}.WithDefaults(),
			wantErr: nil,
		},
		{
			name:    "sqlite without DataDir returns ErrDataDirRequired",
			config:  Config{Store: StoreConfig{Backend: StoreSQLite}},
			wantErr: ErrDataDirRequired,
		},
		{
			name:    "file with DataDir is valid",
			config:  Config{Store: StoreConfig{Backend: StoreFile, DataDir: "/tmp/data"}},
			wantErr: nil,
		},
		{
			name:    "unknown id format returns ErrIDFormatUnknown",
			config:  Config{Store: StoreConfig{Backend: StoreMemory, IDFormat: "snowflake"}},
			wantErr: ErrIDFormatUnknown,
		},
		{
			name:    "hosted credentials skip store validation",
			config:  Config{Hosted: HostedConfig{URL: "https://example.test", APIKey: "anon"}},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConfigUseHosted(t *testing.T) {
	tests := []struct {
		name   string
		hosted HostedConfig
		want   bool
	}{
		{name: "both set", hosted: HostedConfig{URL: "https://x.test", APIKey: "k"}, want: true},
		{name: "url only", hosted: HostedConfig{URL: "https://x.test"}, want: false},
		{name: "key only", hosted: HostedConfig{APIKey: "k"}, want: false},
		{name: "neither", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Config{Hosted: tt.hosted}).UseHosted(); got != tt.want {
				t.Errorf("UseHosted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigTables(t *testing.T) {
	cfg := Config{Store: StoreConfig{ExtraTables: []string{"purchase_requests"}}}
	tables := cfg.Tables()
	for _, name := range WellKnownTables {
		if !tables[name] {
			t.Errorf("well-known table %q missing", name)
		}
	}
	if !tables["purchase_requests"] {
		t.Error("extra table missing")
	}
	if tables["nope"] {
		t.Error("unregistered table accepted")
	}
}
