package core

import "time"

// Challenge is a one-time nonce a wallet must sign to prove key possession.
type Challenge struct {
	Nonce    string    // Random hex-encoded nonce
	IssuedAt time.Time // When the challenge was created
}

// DeviceFingerprint is the composite of browser/hardware signals reported by
// the client on every authenticated call.
type DeviceFingerprint struct {
	HardwareID       string `json:"hardwareId"`
	BrowserName      string `json:"browserName"`
	BrowserVersion   string `json:"browserVersion"`
	ScreenResolution string `json:"screenResolution"`
	Timezone         string `json:"timezone"`
	CanvasHash       string `json:"canvasHash"`
	WebGLHash        string `json:"webglHash"`
}

// LocationData is the client-reported network location. Coordinates are
// optional; drift heuristics only run when both sides carry them.
type LocationData struct {
	IP        string    `json:"ip"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	Country   string    `json:"country,omitempty"`
	Region    string    `json:"region,omitempty"`
	City      string    `json:"city,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HasCoordinates reports whether the location carries a usable lat/lon pair.
func (l *LocationData) HasCoordinates() bool {
	return l != nil && l.Latitude != nil && l.Longitude != nil
}

// User is the account record keyed by wallet address.
type User struct {
	ID            string    `json:"id" gorm:"type:uuid;primaryKey"`
	WalletAddress string    `json:"walletAddress" gorm:"size:64;uniqueIndex;not null"`
	Role          string    `json:"role" gorm:"size:32;default:user"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Session binds a user, a wallet, a device and a refresh token, with explicit
// active/ended states. Ending is terminal: an inactive session is never revived.
type Session struct {
	ID                string            `json:"id" gorm:"type:uuid;primaryKey"`
	UserID            string            `json:"userId" gorm:"type:uuid;not null;index"`
	WalletAddress     string            `json:"walletAddress" gorm:"size:64;not null;index"`
	DeviceFingerprint DeviceFingerprint `json:"deviceFingerprint" gorm:"serializer:json"`
	LocationData      *LocationData     `json:"locationData,omitempty" gorm:"serializer:json"`
	StartTime         time.Time         `json:"startTime"`
	LastActiveTime    time.Time         `json:"lastActiveTime"`
	EndTime           *time.Time        `json:"endTime,omitempty"`
	IsActive          bool              `json:"isActive" gorm:"index"`
	RefreshToken      *string           `json:"-" gorm:"size:1024"`
	ChainID           string            `json:"chainId" gorm:"size:32"`
	SecurityFlags     []string          `json:"securityFlags" gorm:"serializer:json"`
}

// AddSecurityFlag appends a flag if not already present.
func (s *Session) AddSecurityFlag(flag string) {
	for _, f := range s.SecurityFlags {
		if f == flag {
			return
		}
	}
	s.SecurityFlags = append(s.SecurityFlags, flag)
}

// TokenIdentity is the subset of access-token claims consumed by the server.
type TokenIdentity struct {
	UserID        string
	WalletAddress string
	SessionID     string
	ChainID       string
	ExpiresAt     time.Time
}
