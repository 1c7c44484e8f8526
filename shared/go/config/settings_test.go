package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Thresholds != DefaultThresholds() {
		t.Fatalf("thresholds = %+v, want defaults", s.Thresholds)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("settings file not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("permissions = %o, want 600", perm)
	}
}

func TestLoadSettingsFillsMissingThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	data := []byte("payment_overdue_days: 45\nlow_show_count: 0\nirs_mileage_rates:\n  \"2023\": 0.655\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.PaymentOverdueDays != 45 {
		t.Fatalf("PaymentOverdueDays = %d, want 45", s.PaymentOverdueDays)
	}
	if s.LowShowCount != 2 {
		t.Fatalf("LowShowCount = %d, want default 2", s.LowShowCount)
	}
	if s.HorizonDays != 90 {
		t.Fatalf("HorizonDays = %d, want default 90", s.HorizonDays)
	}
	if got := s.MileageRate(2023); got != 0.655 {
		t.Fatalf("MileageRate(2023) = %v, want 0.655", got)
	}
	if got := s.MileageRate(2031); got != DefaultMileageRate {
		t.Fatalf("MileageRate(2031) = %v, want %v", got, DefaultMileageRate)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := DefaultSettings()
	s.ContactReminderDays = 45
	s.HomeAddress = "12 Main St"

	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	loaded, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if loaded.ContactReminderDays != 45 || loaded.HomeAddress != "12 Main St" {
		t.Fatalf("unexpected settings: %+v", loaded)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				Database: DatabaseConfig{URL: "postgres://localhost/gigbook"},
				Server:   ServerConfig{Port: 8080},
				Sync:     SyncConfig{Cron: "@daily"},
				Logging:  LoggingConfig{Level: "info", Format: "json"},
			},
		},
		{
			name: "missing database",
			cfg: Config{
				Server:  ServerConfig{Port: 8080},
				Sync:    SyncConfig{Cron: "@daily"},
				Logging: LoggingConfig{Level: "info", Format: "json"},
			},
			wantErr: true,
		},
		{
			name: "bad log level",
			cfg: Config{
				Database: DatabaseConfig{URL: "postgres://localhost/gigbook"},
				Server:   ServerConfig{Port: 8080},
				Sync:     SyncConfig{Cron: "@daily"},
				Logging:  LoggingConfig{Level: "trace", Format: "json"},
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
