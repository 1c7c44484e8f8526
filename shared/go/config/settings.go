package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultMileageRate applies to years missing from IRSMileageRates.
const DefaultMileageRate = 0.70

// Thresholds are the business rules consumed by classification and scoring.
// Callers pass them explicitly; nothing reads them from global state.
type Thresholds struct {
	PaymentOverdueDays        int `yaml:"payment_overdue_days" json:"payment_overdue_days"`
	LowShowCount              int `yaml:"low_show_count" json:"low_show_count"`
	ContactReminderDays       int `yaml:"contact_reminder_days" json:"contact_reminder_days"`
	BookingWindowAlertDays    int `yaml:"booking_window_alert_days" json:"booking_window_alert_days"`
	BookingWindowImminentDays int `yaml:"booking_window_imminent_days" json:"booking_window_imminent_days"`
	ContactStaleDays          int `yaml:"contact_stale_days" json:"contact_stale_days"`
	AwaitingResponseDays      int `yaml:"awaiting_response_days" json:"awaiting_response_days"`
	HorizonDays               int `yaml:"horizon_days" json:"horizon_days"`
}

// DefaultThresholds returns the stock thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PaymentOverdueDays:        30,
		LowShowCount:              2,
		ContactReminderDays:       60,
		BookingWindowAlertDays:    7,
		BookingWindowImminentDays: 3,
		ContactStaleDays:          90,
		AwaitingResponseDays:      14,
		HorizonDays:               90,
	}
}

// Settings is the user-editable settings file.
type Settings struct {
	Thresholds `yaml:",inline"`

	HomeAddress     string             `yaml:"home_address"`
	IRSMileageRates map[string]float64 `yaml:"irs_mileage_rates"`
}

// DefaultSettings returns settings with default thresholds and known IRS rates.
func DefaultSettings() *Settings {
	return &Settings{
		Thresholds: DefaultThresholds(),
		IRSMileageRates: map[string]float64{
			"2024": 0.67,
			"2025": 0.70,
			"2026": 0.70,
		},
	}
}

// DefaultSettingsPath is ~/.gigbook/settings.yaml, or a relative path when
// the home directory is unknown.
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".gigbook", "settings.yaml")
	}
	return filepath.Join(home, ".gigbook", "settings.yaml")
}

// MileageRate returns the IRS rate per mile for year.
func (s *Settings) MileageRate(year int) float64 {
	if rate, ok := s.IRSMileageRates[strconv.Itoa(year)]; ok {
		return rate
	}
	return DefaultMileageRate
}

// Normalize replaces unset or invalid thresholds with their defaults.
func (s *Settings) Normalize() {
	def := DefaultThresholds()
	fix := func(v *int, d int) {
		if *v <= 0 {
			*v = d
		}
	}
	fix(&s.PaymentOverdueDays, def.PaymentOverdueDays)
	fix(&s.LowShowCount, def.LowShowCount)
	fix(&s.ContactReminderDays, def.ContactReminderDays)
	fix(&s.BookingWindowAlertDays, def.BookingWindowAlertDays)
	fix(&s.BookingWindowImminentDays, def.BookingWindowImminentDays)
	fix(&s.ContactStaleDays, def.ContactStaleDays)
	fix(&s.AwaitingResponseDays, def.AwaitingResponseDays)
	fix(&s.HorizonDays, def.HorizonDays)
	if s.IRSMileageRates == nil {
		s.IRSMileageRates = map[string]float64{}
	}
}

// LoadSettings reads the settings file at path. When the file does not exist
// a default one is written and returned.
func LoadSettings(path string) (*Settings, error) {
	if path == "" {
		return nil, errors.New("settings path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s := DefaultSettings()
			if err := SaveSettings(path, s); err != nil {
				return s, err
			}
			return s, nil
		}
		return nil, err
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	s.Normalize()
	return &s, nil
}

// SaveSettings writes s to path atomically with 0600 permissions.
func SaveSettings(path string, s *Settings) error {
	if path == "" {
		return errors.New("settings path is empty")
	}
	if s == nil {
		return errors.New("settings is nil")
	}
	s.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gigbook-settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
