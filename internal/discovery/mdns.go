// Package discovery announces the survey HTTP service on the local network
// over mDNS/DNS-SD so kiosks and phones on the same LAN can find it without
// a configured URL.
package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

const (
	// Service is the DNS-SD service type browsers look for.
	Service = "_http._tcp"
	// Domain is the mDNS domain.
	Domain = "local."
)

// register is replaced in tests.
var register = func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (shutdowner, error) {
	return zeroconf.Register(instance, service, domain, port, text, ifaces)
}

type shutdowner interface{ Shutdown() }

// Announcer keeps the service registered until Close.
type Announcer struct {
	srv      shutdowner
	Instance string
	Port     int
}

// Announce registers instance on port. basePath is published in the TXT
// record as the questionnaire path.
func Announce(instance, port, basePath string) (*Announcer, error) {
	instance = strings.TrimSpace(instance)
	if instance == "" {
		return nil, errors.New("discovery: empty instance name")
	}
	p, err := strconv.Atoi(strings.TrimPrefix(port, ":"))
	if err != nil || p <= 0 || p > 65535 {
		return nil, fmt.Errorf("discovery: invalid port %q", port)
	}

	srv, err := register(instance, Service, Domain, p, TXT(basePath), nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: register %s: %w", instance, err)
	}
	log.Info().Str("instance", instance).Int("port", p).Msg("mdns service announced")
	return &Announcer{srv: srv, Instance: instance, Port: p}, nil
}

// TXT returns the DNS-SD text records for the service.
func TXT(basePath string) []string {
	base := strings.TrimRight(basePath, "/")
	return []string{
		"path=" + base + "/survey/questions",
		"stats=" + base + "/stats",
		"qr=" + base + "/qr",
	}
}

// Close withdraws the announcement. It is safe to call more than once.
func (a *Announcer) Close() {
	if a == nil || a.srv == nil {
		return
	}
	a.srv.Shutdown()
	a.srv = nil
	log.Info().Str("instance", a.Instance).Msg("mdns service withdrawn")
}
