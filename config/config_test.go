package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargestation/core/model"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `station:
  count: 2
  max_bookings: 10
  max_users: 50
  critical_soc: 15
  peak_start: 17
  peak_end: 20
  docks:
    - id: 1
      power_kw: 7
      source: grid
    - id: 2
      power_kw: 22
      source: solar
weather: cloudy
logging:
  level: debug
notify:
  sinks:
    - type: mqtt
      conf:
        broker: "tcp://localhost:1883"
metrics:
  prometheus_addr: ":9100"
  sinks:
    - type: "nop"
journal:
  backend: sqlite
api:
  token: secret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"station.count", cfg.Station.Count, 2},
		{"station.max_bookings", cfg.Station.MaxBookings, 10},
		{"station.max_users", cfg.Station.MaxUsers, 50},
		{"station.critical_soc", cfg.Station.CriticalSoC, 15.0},
		{"station.grid_capacity_kw", cfg.Station.GridCapacityKW, 150.0},
		{"station.docks", len(cfg.Station.Docks), 2},
		{"weather", cfg.InitialWeather(), model.Cloudy},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"notify.sink", cfg.Notify.Sinks[0].Type, "mqtt"},
		{"notify.broker", cfg.Notify.Sinks[0].Conf["broker"], "tcp://localhost:1883"},
		{"metrics.prometheus_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"metrics.sink", cfg.Metrics.Sinks[0].Type, "nop"},
		{"journal.path", cfg.Journal.Path, "station_journal.db"},
		{"api.addr", cfg.API.Addr, ":8080"},
		{"api.token", cfg.API.Token, "secret"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}

	stations, err := cfg.Station.Stations()
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, 2, stations[1].ID)
	assert.Equal(t, model.SourceSolar, stations[1].Docks[1].Source)
	assert.Equal(t, 17.0, stations[0].PeakStart)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"station":{"count":3},"journal":{"backend":"jsonl"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Station.Count)
	assert.Len(t, cfg.Station.Docks, 5)
	assert.Equal(t, "station_journal.jsonl", cfg.Journal.Path)
	assert.Equal(t, model.Sunny, cfg.InitialWeather())
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Station.Count)
	assert.Equal(t, 12.0, cfg.Station.PeakStart)
	assert.Equal(t, 18.0, cfg.Station.PeakEnd)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "none", cfg.Journal.Backend)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, "config.yaml", "station:\n  count: 1\n")
	t.Setenv("K_STATION__COUNT", "4")
	t.Setenv("K_WEATHER", "night")
	t.Setenv("K_API__TOKEN", "fromenv")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Station.Count)
	assert.Equal(t, model.Night, cfg.InitialWeather())
	assert.Equal(t, "fromenv", cfg.API.Token)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown extension": "",
		"bad weather":       "weather: foggy\n",
		"bad level":         "logging:\n  level: loud\n",
		"bad source":        "station:\n  docks:\n    - id: 1\n      power_kw: 7\n      source: wind\n",
		"duplicate dock":    "station:\n  docks:\n    - id: 1\n      power_kw: 7\n      source: grid\n    - id: 1\n      power_kw: 7\n      source: grid\n",
		"bad peak":          "station:\n  peak_start: 18\n  peak_end: 12\n",
		"bad backend":       "journal:\n  backend: mongo\n",
		"untyped sink":      "notify:\n  sinks:\n    - conf: {}\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			file := "config.yaml"
			if name == "unknown extension" {
				file = "config.toml"
			}
			_, err := Load(writeConfig(t, file, data))
			assert.Error(t, err)
		})
	}
}
