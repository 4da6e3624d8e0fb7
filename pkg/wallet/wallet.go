// Package wallet stores the X.509 identities the gateway authenticates with.
//
// Identities are kept in the fabric-network wallet layout so a wallet
// directory produced by other Fabric SDKs can be used as-is.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	TypeX509       = "X.509"
	currentVersion = 1
)

var ErrNotFound = errors.New("identity not found")

type Identity struct {
	Label       string
	MSPID       string
	Certificate string
	PrivateKey  string
	Type        string
	Version     int
}

type Store interface {
	Get(ctx context.Context, label string) (Identity, error)
	Put(ctx context.Context, id Identity) error
	List(ctx context.Context) ([]string, error)
}

func (id Identity) Validate() error {
	if strings.TrimSpace(id.Label) == "" {
		return errors.New("identity label is required")
	}
	if strings.ContainsAny(id.Label, `/\`) {
		return fmt.Errorf("identity label %q must not contain path separators", id.Label)
	}
	if strings.TrimSpace(id.MSPID) == "" {
		return errors.New("msp id is required")
	}
	if !strings.Contains(id.Certificate, "BEGIN CERTIFICATE") {
		return errors.New("certificate must be PEM encoded")
	}
	if !strings.Contains(id.PrivateKey, "PRIVATE KEY") {
		return errors.New("private key must be PEM encoded")
	}
	return nil
}

type entry struct {
	Credentials struct {
		Certificate string `json:"certificate"`
		PrivateKey  string `json:"privateKey"`
	} `json:"credentials"`
	MSPID   string `json:"mspId"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

func encode(id Identity) ([]byte, error) {
	var e entry
	e.Credentials.Certificate = id.Certificate
	e.Credentials.PrivateKey = id.PrivateKey
	e.MSPID = id.MSPID
	e.Type = id.Type
	if e.Type == "" {
		e.Type = TypeX509
	}
	e.Version = id.Version
	if e.Version == 0 {
		e.Version = currentVersion
	}
	return json.Marshal(e)
}

func decode(label string, b []byte) (Identity, error) {
	var e entry
	if err := json.Unmarshal(b, &e); err != nil {
		return Identity{}, fmt.Errorf("decode identity %q: %w", label, err)
	}
	if e.Type != "" && e.Type != TypeX509 {
		return Identity{}, fmt.Errorf("identity %q has unsupported type %q", label, e.Type)
	}
	return Identity{
		Label:       label,
		MSPID:       e.MSPID,
		Certificate: e.Credentials.Certificate,
		PrivateKey:  e.Credentials.PrivateKey,
		Type:        TypeX509,
		Version:     e.Version,
	}, nil
}
