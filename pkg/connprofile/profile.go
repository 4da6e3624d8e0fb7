// Package connprofile reads Fabric common connection profiles.
//
// Profiles may be JSON or YAML. Only the parts needed to reach a single
// gateway peer are interpreted: the client organization, each organization's
// MSP id and peer list, and per-peer url, TLS CA and host override.
package connprofile

import (
	"errors"
	"fmt"
	"maps"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type Profile struct {
	Name          string                  `yaml:"name"`
	Version       string                  `yaml:"version"`
	Client        Client                  `yaml:"client"`
	Organizations map[string]Organization `yaml:"organizations"`
	Peers         map[string]Peer         `yaml:"peers"`

	dir string
}

type Client struct {
	Organization string `yaml:"organization"`
}

type Organization struct {
	MSPID string   `yaml:"mspid"`
	Peers []string `yaml:"peers"`
}

type Peer struct {
	URL         string      `yaml:"url"`
	TLSCACerts  TLSCACerts  `yaml:"tlsCACerts"`
	GRPCOptions GRPCOptions `yaml:"grpcOptions"`
}

type TLSCACerts struct {
	PEM  string `yaml:"pem"`
	Path string `yaml:"path"`
}

type GRPCOptions struct {
	SSLTargetNameOverride string `yaml:"ssl-target-name-override"`
	HostnameOverride      string `yaml:"hostnameOverride"`
}

// Endpoint is everything needed to dial one peer.
type Endpoint struct {
	Peer       string
	Address    string
	ServerName string
	TLS        bool
	CACertPEM  []byte
}

var ErrNoPeer = errors.New("connection profile has no usable peer")

func Load(path string) (*Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read connection profile: %w", err)
	}
	p, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("parse connection profile %s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

func Parse(b []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	if len(p.Peers) == 0 {
		return nil, ErrNoPeer
	}
	return &p, nil
}

// GatewayEndpoint picks the first peer of the organization owning mspID,
// falling back to the profile's client organization. With asLocalhost the
// peer host is replaced by localhost and the original host is kept as the
// TLS server name.
func (p *Profile) GatewayEndpoint(mspID string, asLocalhost bool) (Endpoint, error) {
	name, err := p.gatewayPeer(mspID)
	if err != nil {
		return Endpoint{}, err
	}
	peer := p.Peers[name]
	u, err := url.Parse(strings.TrimSpace(peer.URL))
	if err != nil || u.Host == "" {
		return Endpoint{}, fmt.Errorf("peer %s has invalid url %q", name, peer.URL)
	}

	ep := Endpoint{Peer: name}
	switch strings.ToLower(u.Scheme) {
	case "grpcs":
		ep.TLS = true
	case "grpc":
	default:
		return Endpoint{}, fmt.Errorf("peer %s url scheme %q is not grpc or grpcs", name, u.Scheme)
	}

	host, port := u.Hostname(), u.Port()
	if port == "" {
		return Endpoint{}, fmt.Errorf("peer %s url %q has no port", name, peer.URL)
	}
	ep.ServerName = firstNonEmpty(peer.GRPCOptions.SSLTargetNameOverride, peer.GRPCOptions.HostnameOverride, host)
	if asLocalhost {
		host = "localhost"
	}
	ep.Address = net.JoinHostPort(host, port)

	if ep.TLS {
		ca, err := p.caPEM(name, peer.TLSCACerts)
		if err != nil {
			return Endpoint{}, err
		}
		ep.CACertPEM = ca
	}
	return ep, nil
}

func (p *Profile) gatewayPeer(mspID string) (string, error) {
	var org *Organization
	for _, key := range slices.Sorted(maps.Keys(p.Organizations)) {
		if o := p.Organizations[key]; mspID != "" && o.MSPID == mspID {
			org = &o
			break
		}
	}
	if org == nil {
		if o, ok := p.Organizations[p.Client.Organization]; ok {
			org = &o
		}
	}
	if org == nil {
		return "", fmt.Errorf("%w: no organization for msp %q", ErrNoPeer, mspID)
	}
	for _, name := range org.Peers {
		if _, ok := p.Peers[name]; ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: organization %q lists no known peer", ErrNoPeer, org.MSPID)
}

func (p *Profile) caPEM(peer string, certs TLSCACerts) ([]byte, error) {
	if strings.TrimSpace(certs.PEM) != "" {
		return []byte(certs.PEM), nil
	}
	if strings.TrimSpace(certs.Path) == "" {
		return nil, fmt.Errorf("peer %s uses grpcs but has no tlsCACerts", peer)
	}
	path := certs.Path
	if !filepath.IsAbs(path) && p.dir != "" {
		path = filepath.Join(p.dir, path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tls ca for peer %s: %w", peer, err)
	}
	return b, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
