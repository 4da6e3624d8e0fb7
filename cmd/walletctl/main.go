package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/accordsai/eventledger/pkg/db"
	"github.com/accordsai/eventledger/pkg/wallet"
)

const usage = "usage: walletctl identity put --label <name> --msp-id <msp> --cert <path> --key <path> [--wallet <dir> | --database-url <url>] | walletctl identity show --label <name> [...] | walletctl identity list [...]"

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout))
}

func run(ctx context.Context, args []string, out io.Writer) int {
	if len(args) < 2 || args[0] != "identity" {
		failSummary(out, "", usage)
		return 2
	}
	switch args[1] {
	case "put":
		return runPut(ctx, args[2:], out)
	case "show":
		return runShow(ctx, args[2:], out)
	case "list":
		return runList(ctx, args[2:], out)
	default:
		failSummary(out, "", usage)
		return 2
	}
}

type storeFlags struct {
	walletDir   *string
	databaseURL *string
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		walletDir:   fs.String("wallet", envOr("WALLET_PATH", "wallet"), "wallet directory"),
		databaseURL: fs.String("database-url", os.Getenv("WALLET_DATABASE_URL"), "postgres wallet url, overrides --wallet"),
	}
}

func (f storeFlags) open(ctx context.Context) (wallet.Store, func(), error) {
	dsn := strings.TrimSpace(*f.databaseURL)
	if dsn == "" {
		return wallet.NewFileSystemStore(*f.walletDir), func() {}, nil
	}
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	st := wallet.NewPostgresStore(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return st, pool.Close, nil
}

func runPut(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("identity put", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	label := fs.String("label", "", "identity label")
	mspID := fs.String("msp-id", "", "msp id of the issuing organisation")
	certPath := fs.String("cert", "", "path to PEM certificate")
	keyPath := fs.String("key", "", "path to PEM private key")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		failSummary(out, "", err.Error())
		return 2
	}
	if strings.TrimSpace(*label) == "" || strings.TrimSpace(*certPath) == "" || strings.TrimSpace(*keyPath) == "" {
		failSummary(out, *label, "--label, --cert and --key are required")
		return 2
	}

	cert, err := os.ReadFile(*certPath)
	if err != nil {
		failSummary(out, *label, "read certificate failed: "+err.Error())
		return 1
	}
	key, err := os.ReadFile(*keyPath)
	if err != nil {
		failSummary(out, *label, "read private key failed: "+err.Error())
		return 1
	}

	st, closeStore, err := sf.open(ctx)
	if err != nil {
		failSummary(out, *label, "open wallet failed: "+err.Error())
		return 1
	}
	defer closeStore()

	id := wallet.Identity{
		Label:       strings.TrimSpace(*label),
		MSPID:       strings.TrimSpace(*mspID),
		Certificate: string(cert),
		PrivateKey:  string(key),
		Type:        wallet.TypeX509,
	}
	if err := st.Put(ctx, id); err != nil {
		failSummary(out, id.Label, err.Error())
		return 1
	}
	passSummary(out, map[string]any{"label": id.Label, "msp_id": id.MSPID})
	return 0
}

func runShow(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("identity show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	label := fs.String("label", "", "identity label")
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		failSummary(out, "", err.Error())
		return 2
	}
	if strings.TrimSpace(*label) == "" {
		failSummary(out, "", "--label is required")
		return 2
	}
	st, closeStore, err := sf.open(ctx)
	if err != nil {
		failSummary(out, *label, "open wallet failed: "+err.Error())
		return 1
	}
	defer closeStore()

	id, err := st.Get(ctx, *label)
	if err != nil {
		failSummary(out, *label, err.Error())
		return 1
	}
	// Private key material never leaves the wallet.
	passSummary(out, map[string]any{
		"label":       id.Label,
		"msp_id":      id.MSPID,
		"type":        id.Type,
		"version":     id.Version,
		"certificate": id.Certificate,
	})
	return 0
}

func runList(ctx context.Context, args []string, out io.Writer) int {
	fs := flag.NewFlagSet("identity list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		failSummary(out, "", err.Error())
		return 2
	}
	st, closeStore, err := sf.open(ctx)
	if err != nil {
		failSummary(out, "", "open wallet failed: "+err.Error())
		return 1
	}
	defer closeStore()

	labels, err := st.List(ctx)
	if err != nil {
		failSummary(out, "", err.Error())
		return 1
	}
	if labels == nil {
		labels = []string{}
	}
	passSummary(out, map[string]any{"labels": labels})
	return 0
}

func passSummary(out io.Writer, fields map[string]any) {
	fields["status"] = "PASS"
	fields["timestamp_utc"] = time.Now().UTC().Format(time.RFC3339)
	writeSummary(out, fields)
}

func failSummary(out io.Writer, label, reason string) {
	writeSummary(out, map[string]any{
		"status":        "FAIL",
		"label":         label,
		"reason":        reason,
		"timestamp_utc": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeSummary(out io.Writer, fields map[string]any) {
	b, _ := json.Marshal(fields)
	fmt.Fprintln(out, string(b))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
