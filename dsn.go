package tracewire

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DsnParseError reports a malformed destination identifier.
type DsnParseError struct {
	Message string
}

func (e *DsnParseError) Error() string {
	return "invalid DSN: " + e.Message
}

// Dsn is the parsed destination identifier for captured events:
// scheme://publicKey@host[:port]/projectID. The public key rides along in
// the propagated tracestate so downstream services report into the same
// destination.
type Dsn struct {
	scheme    string
	publicKey string
	host      string
	port      int
	projectID string
}

// NewDsn parses a raw DSN string.
func NewDsn(rawURL string) (*Dsn, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &DsnParseError{Message: err.Error()}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &DsnParseError{Message: "scheme must be http or https"}
	}
	if parsed.User == nil || parsed.User.Username() == "" {
		return nil, &DsnParseError{Message: "missing public key"}
	}
	if parsed.Host == "" {
		return nil, &DsnParseError{Message: "missing host"}
	}

	port := schemePort(parsed.Scheme)
	if p := parsed.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, &DsnParseError{Message: "invalid port"}
		}
	}

	projectID := strings.TrimPrefix(parsed.Path, "/")
	if projectID == "" || strings.Contains(projectID, "/") {
		return nil, &DsnParseError{Message: "missing project ID"}
	}

	return &Dsn{
		scheme:    parsed.Scheme,
		publicKey: parsed.User.Username(),
		host:      parsed.Hostname(),
		port:      port,
		projectID: projectID,
	}, nil
}

func schemePort(scheme string) int {
	if scheme == "https" {
		return 443
	}
	return 80
}

// PublicKey returns the credential propagated in the tracestate payload.
func (d *Dsn) PublicKey() string {
	return d.publicKey
}

// ProjectID returns the destination project.
func (d *Dsn) ProjectID() string {
	return d.projectID
}

func (d *Dsn) String() string {
	return fmt.Sprintf("%s://%s@%s/%s", d.scheme, d.publicKey, d.netAddr(), d.projectID)
}

func (d *Dsn) netAddr() string {
	if d.port != schemePort(d.scheme) {
		return fmt.Sprintf("%s:%d", d.host, d.port)
	}
	return d.host
}

// EnvelopeAPIURL is the endpoint for enveloped payloads (transactions and
// sessions).
func (d *Dsn) EnvelopeAPIURL() string {
	return d.apiURL("envelope")
}

// StoreAPIURL is the endpoint for flat, non-enveloped event bodies.
func (d *Dsn) StoreAPIURL() string {
	return d.apiURL("store")
}

func (d *Dsn) apiURL(kind string) string {
	return fmt.Sprintf("%s://%s/api/%s/%s/", d.scheme, d.netAddr(), d.projectID, kind)
}

// RequestHeaders returns the headers attached to every outbound payload.
func (d *Dsn) RequestHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"X-Public-Key": d.publicKey,
	}
}
