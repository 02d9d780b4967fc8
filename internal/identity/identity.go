// Package identity derives the uniqueness key of a rating or reaction from a request.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Clark-Hu/ratingz/internal/domain"
)

const (
	DeviceHeader      = "X-Device-Id"
	DeviceCookie      = "ratingz_device_id"
	FingerprintHeader = "X-Network-Fingerprint"

	devicePrefix   = "device_"
	maxDeviceIDLen = 128
)

var (
	// ErrIdentityRequired is returned for anonymous requests without a device id.
	ErrIdentityRequired = errors.New("identity: device id required")
	// ErrInvalidDeviceID is returned for device ids that are too long or contain control characters.
	ErrInvalidDeviceID = errors.New("identity: invalid device id")
)

// NewDeviceID issues a fresh anonymous device id.
func NewDeviceID() string {
	return devicePrefix + uuid.NewString()
}

// UserKey and DeviceKey build the stored rater keys.
func UserKey(userID string) string     { return "user:" + userID }
func DeviceKey(deviceID string) string { return "device:" + deviceID }

// FromRequest resolves the caller. userID is the verified token subject, empty
// for anonymous callers. The network fields are recorded either way.
func FromRequest(r *http.Request, userID string) (domain.Identity, error) {
	id := domain.Identity{
		IP:          ClientIP(r),
		Fingerprint: HashFingerprint(r.Header.Get(FingerprintHeader)),
	}
	if userID != "" {
		id.Key = UserKey(userID)
		id.UserID = &userID
		return id, nil
	}

	device, err := DeviceID(r)
	if err != nil {
		return domain.Identity{}, err
	}
	id.Key = DeviceKey(device)
	id.DeviceID = &device
	return id, nil
}

// DeviceID reads the device id from the header, falling back to the cookie.
func DeviceID(r *http.Request) (string, error) {
	device := strings.TrimSpace(r.Header.Get(DeviceHeader))
	if device == "" {
		if c, err := r.Cookie(DeviceCookie); err == nil {
			device = strings.TrimSpace(c.Value)
		}
	}
	if device == "" {
		return "", ErrIdentityRequired
	}
	if len(device) > maxDeviceIDLen || !utf8.ValidString(device) {
		return "", ErrInvalidDeviceID
	}
	for _, c := range device {
		if c < 0x20 || c == 0x7f {
			return "", ErrInvalidDeviceID
		}
	}
	return device, nil
}

// ClientIP returns the host part of RemoteAddr, which chi's RealIP middleware
// rewrites from forwarding headers. Unparseable addresses become domain.UnknownIP.
func ClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return domain.UnknownIP
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return domain.UnknownIP
	}
	return ip.String()
}

// HashFingerprint returns the hex SHA-256 of a raw fingerprint, or nil when empty.
func HashFingerprint(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(raw))
	hashed := hex.EncodeToString(sum[:])
	return &hashed
}
