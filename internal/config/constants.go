package config

const (
	// DefaultListenAddr is the default address for the web server
	DefaultListenAddr = ":8000"

	// DefaultScanWorkers is the default size of the thumbnail fetch pool
	DefaultScanWorkers = 15
)
