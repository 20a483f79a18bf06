package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/load"
	"github.com/sweeney/x1-panel/internal/status"
)

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// readNetworkInfo reads pi-helper's env file, falling back to the process
// environment for variables the file does not set. Returns nil when no
// network status is known.
func readNetworkInfo(path string) *status.NetworkInfo {
	vars, _ := godotenv.Read(path)
	get := func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return os.Getenv(key)
	}

	s := get(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       get(envNetworkType),
		IP:         get(envNetworkIP),
		Status:     s,
		Gateway:    get(envNetworkGateway),
		WifiStatus: get(envNetworkWifiStatus),
		SSID:       get(envNetworkWifiSSID),
	}
}

// readHostInfo returns hostname, uptime and load averages, or nil if the
// host figures are unavailable.
func readHostInfo() *status.HostInfo {
	info, err := host.Info()
	if err != nil {
		log.Printf("host info: %v", err)
		return nil
	}
	h := &status.HostInfo{
		Hostname:      info.Hostname,
		UptimeSeconds: info.Uptime,
	}
	if avg, err := load.Avg(); err == nil {
		h.Load1, h.Load5, h.Load15 = avg.Load1, avg.Load5, avg.Load15
	}
	return h
}
