package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("OWNER_ID", "1000")
	t.Setenv("OWNER_NAME", "")
	t.Setenv("DATA_FILE", "")
	t.Setenv("HEALTH_ADDR", "")

	cfg := Load()

	if cfg.BotToken != "tok" || cfg.OwnerID != 1000 {
		t.Errorf("required fields: %+v", cfg)
	}
	if cfg.OwnerName != "Owner" {
		t.Errorf("OwnerName = %q", cfg.OwnerName)
	}
	if cfg.DataFile != "data.json" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if cfg.HealthAddr != "0.0.0.0:8080" {
		t.Errorf("HealthAddr = %q", cfg.HealthAddr)
	}
}

func TestLoadBadOwnerID(t *testing.T) {
	t.Setenv("OWNER_ID", "not-a-number")

	if cfg := Load(); cfg.OwnerID != 0 {
		t.Errorf("OwnerID = %d, want 0", cfg.OwnerID)
	}
}
