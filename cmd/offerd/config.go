package main

import (
	"encoding/hex"
	"fmt"
	"os"

	flags "github.com/jessevdk/go-flags"
)

// config bundles offerd's daemon-wide flags, mirroring lnd.go's Config
// type: one struct, populated by go-flags from the command line and/or a
// config file, with no package outside main reading flags or env vars
// directly.
type config struct {
	DataDir  string `long:"datadir" description:"directory holding offerd's bolt database and gossip/mailbox state"`
	LogLevel string `long:"loglevel" description:"logging level for all lnoffer subsystems (trace, debug, info, warn, error, critical, off)"`

	NodeKey string `long:"nodekey" description:"hex-encoded 32-byte node private key used to sign offers and invoice_requests"`

	GossipFile string `long:"gossipfile" description:"path to a JSON gossip snapshot consumed by the demo Gossip adapter"`
	MailboxDir string `long:"mailboxdir" description:"directory used by the demo Transport adapter as a per-peer onion-message mailbox"`

	ChainHash string `long:"chainhash" description:"hex-encoded chain hash this node prefers; empty means bitcoin mainnet"`
}

// defaultConfig mirrors lnd.go's defaultConfig(): every field has a usable
// default so `offerd <command>` works out of the box against a fresh
// DataDir.
func defaultConfig() config {
	return config{
		DataDir:    "offerd-data",
		LogLevel:   "info",
		GossipFile: "gossip.json",
		MailboxDir: "mailbox",
	}
}

// loadConfig parses the daemon flags, following lnd.go's loadConfig
// pattern: defaults first, then flags.Parser overrides them.
func loadConfig() (*config, error) {
	cfg := defaultConfig()

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, err
	}

	return &cfg, nil
}

// nodeKeyBytes decodes cfg.NodeKey, returning ErrNoNodeKey if unset.
func (cfg *config) nodeKeyBytes() ([]byte, error) {
	if cfg.NodeKey == "" {
		return nil, ErrNoNodeKey
	}

	key, err := hex.DecodeString(cfg.NodeKey)
	if err != nil {
		return nil, fmt.Errorf("invalid --nodekey: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("--nodekey must be 32 bytes, got %d", len(key))
	}

	return key, nil
}

// chainHashBytes decodes cfg.ChainHash, defaulting to the zero hash
// (bitcoin mainnet, per isBitcoinMainnet's zero-hash convention).
func (cfg *config) chainHashBytes() ([32]byte, error) {
	var chain [32]byte
	if cfg.ChainHash == "" {
		return chain, nil
	}

	b, err := hex.DecodeString(cfg.ChainHash)
	if err != nil {
		return chain, fmt.Errorf("invalid --chainhash: %w", err)
	}
	if len(b) != 32 {
		return chain, fmt.Errorf("--chainhash must be 32 bytes, got %d", len(b))
	}
	copy(chain[:], b)

	return chain, nil
}
