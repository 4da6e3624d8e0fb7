// Package fabric resolves gateway sessions against a Hyperledger Fabric
// network through the Fabric Gateway peer service.
package fabric

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/accordsai/eventledger/pkg/connprofile"
	"github.com/accordsai/eventledger/pkg/gateway"
	"github.com/accordsai/eventledger/pkg/wallet"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/hash"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

type Timeouts struct {
	Evaluate     time.Duration
	Endorse      time.Duration
	Submit       time.Duration
	CommitStatus time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Evaluate:     5 * time.Second,
		Endorse:      15 * time.Second,
		Submit:       5 * time.Second,
		CommitStatus: time.Minute,
	}
}

// Resolver builds one authenticated session per call. Peer discovery is not
// used: the gateway peer comes from the static connection profile, which is
// read again for every session.
type Resolver struct {
	Wallet      wallet.Store
	ProfilePath string
	AsLocalhost bool
	Timeouts    Timeouts
	Logger      *slog.Logger
}

func (r *Resolver) Resolve(ctx context.Context, identityName, channel, contract string) (gateway.Session, error) {
	id, err := r.Wallet.Get(ctx, identityName)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", gateway.ErrIdentityNotFound, identityName)
		}
		return nil, &gateway.ConnectionError{Op: "read wallet", Err: err}
	}

	profile, err := connprofile.Load(r.ProfilePath)
	if err != nil {
		return nil, &gateway.ConnectionError{Op: "load connection profile", Err: err}
	}
	ep, err := profile.GatewayEndpoint(id.MSPID, r.AsLocalhost)
	if err != nil {
		return nil, &gateway.ConnectionError{Op: "select gateway peer", Err: err}
	}

	signer, x509ID, err := credentialsFor(id)
	if err != nil {
		return nil, &gateway.ConnectionError{Op: "load identity", Err: err}
	}

	conn, err := dial(ep)
	if err != nil {
		return nil, &gateway.ConnectionError{Op: "dial " + ep.Address, Err: err}
	}

	t := r.Timeouts
	if t == (Timeouts{}) {
		t = DefaultTimeouts()
	}
	gw, err := client.Connect(x509ID,
		client.WithSign(signer),
		client.WithHash(hash.SHA256),
		client.WithClientConnection(conn),
		client.WithEvaluateTimeout(t.Evaluate),
		client.WithEndorseTimeout(t.Endorse),
		client.WithSubmitTimeout(t.Submit),
		client.WithCommitStatusTimeout(t.CommitStatus),
	)
	if err != nil {
		conn.Close()
		return nil, &gateway.ConnectionError{Op: "connect gateway", Err: err}
	}

	r.logger().Debug("ledger session opened", "identity", identityName, "peer", ep.Peer, "address", ep.Address, "channel", channel, "contract", contract)
	return &session{
		contract: gw.GetNetwork(channel).GetContract(contract),
		gw:       gw,
		conn:     conn,
	}, nil
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func credentialsFor(id wallet.Identity) (identity.Sign, *identity.X509Identity, error) {
	cert, err := identity.CertificateFromPEM([]byte(id.Certificate))
	if err != nil {
		return nil, nil, fmt.Errorf("certificate: %w", err)
	}
	x509ID, err := identity.NewX509Identity(id.MSPID, cert)
	if err != nil {
		return nil, nil, err
	}
	key, err := identity.PrivateKeyFromPEM([]byte(id.PrivateKey))
	if err != nil {
		return nil, nil, fmt.Errorf("private key: %w", err)
	}
	sign, err := identity.NewPrivateKeySign(key)
	if err != nil {
		return nil, nil, err
	}
	return sign, x509ID, nil
}

func dial(ep connprofile.Endpoint) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if ep.TLS {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(ep.CACertPEM) {
			return nil, fmt.Errorf("no usable tls ca certificate for peer %s", ep.Peer)
		}
		creds = credentials.NewClientTLSFromCert(pool, ep.ServerName)
	}
	return grpc.NewClient(ep.Address, grpc.WithTransportCredentials(creds))
}

type session struct {
	contract *client.Contract
	gw       *client.Gateway
	conn     *grpc.ClientConn
}

func (s *session) SubmitTransaction(name string, args ...string) ([]byte, error) {
	out, err := s.contract.SubmitTransaction(name, args...)
	return out, describe(err)
}

func (s *session) EvaluateTransaction(name string, args ...string) ([]byte, error) {
	out, err := s.contract.EvaluateTransaction(name, args...)
	return out, describe(err)
}

func (s *session) Close() error {
	return errors.Join(s.gw.Close(), s.conn.Close())
}
