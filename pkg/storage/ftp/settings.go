package ftp

import (
	"errors"
	"fmt"
	"net"
	"path"
	"strconv"
	"strings"
)

// ErrInvalidLocation is returned for location paths that do not follow
// <scheme>://<settings>/<host>[:<port>]/<remote-path>
var ErrInvalidLocation = errors.New("invalid ftp location")

const schemeSeparator = "://"

// EncryptionMode selects how TLS is negotiated with the server
type EncryptionMode int

const (
	// EncryptionNone uses plain FTP
	EncryptionNone EncryptionMode = iota
	// EncryptionExplicit upgrades the control channel with AUTH TLS
	EncryptionExplicit
	// EncryptionImplicit starts TLS before the FTP greeting
	EncryptionImplicit
)

// String returns the mode name
func (m EncryptionMode) String() string {
	switch m {
	case EncryptionNone:
		return "none"
	case EncryptionExplicit:
		return "explicit"
	case EncryptionImplicit:
		return "implicit"
	default:
		return fmt.Sprintf("EncryptionMode(%d)", int(m))
	}
}

// Valid reports whether m is a known mode
func (m EncryptionMode) Valid() bool {
	return m >= EncryptionNone && m <= EncryptionImplicit
}

// DefaultPort returns the well-known port for the mode
func (m EncryptionMode) DefaultPort() int {
	if m == EncryptionImplicit {
		return 990
	}
	return 21
}

// ParseEncryptionMode parses "none", "explicit" or "implicit"
func ParseEncryptionMode(s string) (EncryptionMode, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return EncryptionNone, nil
	case "explicit":
		return EncryptionExplicit, nil
	case "implicit":
		return EncryptionImplicit, nil
	default:
		return EncryptionNone, fmt.Errorf("unknown encryption mode %q (use: none, explicit, implicit)", s)
	}
}

// Settings are the transport options carried in the location path.
// Any new option has to be packed into the same integer.
type Settings struct {
	Encryption EncryptionMode
}

// EncodeSettings renders settings as the path segment that follows the scheme
func EncodeSettings(s Settings) string {
	return strconv.Itoa(int(s.Encryption))
}

// DecodeSettings extracts the settings block of a location path
func DecodeSettings(locationPath string) (Settings, error) {
	_, rest, err := splitScheme(locationPath)
	if err != nil {
		return Settings{}, err
	}
	segment, _, ok := strings.Cut(rest, "/")
	if !ok {
		return Settings{}, fmt.Errorf("%w: missing settings segment in %q", ErrInvalidLocation, locationPath)
	}
	return parseSettings(segment)
}

func parseSettings(segment string) (Settings, error) {
	if segment == "" {
		return Settings{}, fmt.Errorf("%w: empty settings segment", ErrInvalidLocation)
	}
	// Atoi accepts a leading sign, the segment must be plain digits
	for _, r := range segment {
		if r < '0' || r > '9' {
			return Settings{}, fmt.Errorf("%w: malformed settings segment %q", ErrInvalidLocation, segment)
		}
	}
	// "01" would decode to 1 and encode back as "1"
	if len(segment) > 1 && segment[0] == '0' {
		return Settings{}, fmt.Errorf("%w: malformed settings segment %q", ErrInvalidLocation, segment)
	}
	n, err := strconv.Atoi(segment)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: malformed settings segment %q", ErrInvalidLocation, segment)
	}
	mode := EncryptionMode(n)
	if !mode.Valid() {
		return Settings{}, fmt.Errorf("%w: unknown encryption mode %d", ErrInvalidLocation, n)
	}
	return Settings{Encryption: mode}, nil
}

func splitScheme(locationPath string) (scheme, rest string, err error) {
	i := strings.Index(locationPath, schemeSeparator)
	if i <= 0 {
		return "", "", fmt.Errorf("%w: missing scheme in %q", ErrInvalidLocation, locationPath)
	}
	return locationPath[:i], locationPath[i+len(schemeSeparator):], nil
}

// Location is the decoded form of an ftp location path
type Location struct {
	Scheme   string
	Settings Settings
	Host     string
	// Port is 0 when the location relies on the default port
	Port int
	// RemotePath is the server-side absolute path, always starting with "/"
	RemotePath string
}

// ParseLocation decodes a location path. Splitting is strict: scheme, then
// settings, then host, then the remote path.
func ParseLocation(locationPath string) (Location, error) {
	scheme, rest, err := splitScheme(locationPath)
	if err != nil {
		return Location{}, err
	}

	segment, rest, ok := strings.Cut(rest, "/")
	if !ok {
		return Location{}, fmt.Errorf("%w: missing settings segment in %q", ErrInvalidLocation, locationPath)
	}
	settings, err := parseSettings(segment)
	if err != nil {
		return Location{}, err
	}

	hostSegment := rest
	remotePath := "/"
	if i := strings.Index(rest, "/"); i >= 0 {
		hostSegment = rest[:i]
		remotePath = rest[i:]
	}

	host, port, err := parseHostSegment(hostSegment)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %v in %q", ErrInvalidLocation, err, locationPath)
	}

	return Location{
		Scheme:     scheme,
		Settings:   settings,
		Host:       host,
		Port:       port,
		RemotePath: remotePath,
	}, nil
}

func parseHostSegment(segment string) (string, int, error) {
	if segment == "" {
		return "", 0, errors.New("empty host")
	}

	// Bracketed IPv6 literal, with or without port
	if strings.HasPrefix(segment, "[") {
		if strings.HasSuffix(segment, "]") {
			return segment[1 : len(segment)-1], 0, nil
		}
		host, portStr, err := net.SplitHostPort(segment)
		if err != nil {
			return "", 0, err
		}
		port, err := parsePort(portStr)
		return host, port, err
	}

	host, portStr, hasPort := strings.Cut(segment, ":")
	if host == "" {
		return "", 0, errors.New("empty host")
	}
	if !hasPort {
		return host, 0, nil
	}
	port, err := parsePort(portStr)
	return host, port, err
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", s)
	}
	return port, nil
}

// HostSegment returns host[:port] as it appears in the location path
func (l Location) HostSegment() string {
	host := l.Host
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if l.Port == 0 {
		return host
	}
	return host + ":" + strconv.Itoa(l.Port)
}

// Prefix returns scheme://settings/host[:port], the part shared by every
// path on the same server
func (l Location) Prefix() string {
	return l.Scheme + schemeSeparator + EncodeSettings(l.Settings) + "/" + l.HostSegment()
}

// String encodes the location back into its path form
func (l Location) String() string {
	return l.Prefix() + l.RemotePath
}

// WithRemotePath returns a copy of the location pointing at another remote path
func (l Location) WithRemotePath(remotePath string) Location {
	if !strings.HasPrefix(remotePath, "/") {
		remotePath = "/" + remotePath
	}
	l.RemotePath = remotePath
	return l
}

// EffectivePort returns the explicit port or the encryption mode's default
func (l Location) EffectivePort() int {
	if l.Port != 0 {
		return l.Port
	}
	return l.Settings.Encryption.DefaultPort()
}

// Address returns host:port for dialing
func (l Location) Address() string {
	return net.JoinHostPort(l.Host, strconv.Itoa(l.EffectivePort()))
}

// Parent returns the location of the containing directory.
// The root is its own parent.
func (l Location) Parent() Location {
	trimmed := strings.TrimRight(l.RemotePath, "/")
	if trimmed == "" {
		return l.WithRemotePath("/")
	}
	return l.WithRemotePath(path.Dir(trimmed))
}
