// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = "8080"
	DefaultDBPath          = "toonshelf.db"
	DefaultCatalogURL      = "http://127.0.0.1:8000"
	DefaultConnectivityURL = "https://clients3.google.com/generate_204"
	DefaultCacheMaxMB      = 512
	DefaultSyncMaxAge      = 6 * time.Hour
	DefaultSyncSchedule    = "*/30 * * * *"
	DefaultFetchCacheTTL   = 12 * time.Hour
	DefaultHTTPTimeout     = 30 * time.Second
	ImageHTTPTimeout       = 30 * time.Second
	ConnectivityTimeout    = 3 * time.Second
	DefaultRetryCount      = 3
	DefaultRetryBase       = 1 * time.Second
	DefaultRequestInterval = 50 * time.Millisecond
	SyncJobTimeout         = 10 * time.Minute
	ShutdownTimeout        = 5 * time.Second
	MaxImageBytes          = 32 << 20
)

// Pagination
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Safe mode
const (
	MinSafeModePasswordLength = 4
	BcryptCost                = 10
)

// Text content keys fetched on first run
const (
	TextKeyEULA       = "eula"
	TextKeyDisclaimer = "disclaimer"
)

// Database
const (
	SchemaVersion = 2
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Cache directory layout
const (
	ImagesDir    = "images"
	TempSuffix   = ".part"
	ImageFileExt = ".img"
)
