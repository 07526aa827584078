package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	voicematch "github.com/kailas-cloud/voicematch/pkg/sdk"
)

// globalOpts are the persistent flags shared by every subcommand.
type globalOpts struct {
	badgerDir  string
	valkeyAddr string
	redisAddr  string
	password   string
	prefix     string
	dimensions int
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:   "voicematchctl",
		Short: "Operate a voicematch speaker store",
		Long: `voicematchctl enrolls, lists and deletes speakers and runs identification
or verification queries directly against a voicematch store.

Embeddings are read from JSON files:
  samples: {"embeddings": [[0.1, ...], [0.2, ...], [0.3, ...]]}
  query:   {"embedding": [0.1, ...], "no_voice": false}

Examples:
  voicematchctl --badger ./data enroll Alice -f alice.json
  voicematchctl --badger ./data identify -f query.json
  voicematchctl --valkey localhost:6379 verify Alice -f query.json --threshold 80
  voicematchctl --badger ./data list`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.badgerDir, "badger", "", "badger data directory")
	pf.StringVar(&opts.valkeyAddr, "valkey", "", "valkey address (host:port)")
	pf.StringVar(&opts.redisAddr, "redis", "", "redis address (host:port)")
	pf.StringVar(&opts.password, "password", os.Getenv("VOICEMATCH_DB_PASSWORD"), "database password")
	pf.StringVar(&opts.prefix, "prefix", "", "storage key prefix (default voicematch:)")
	pf.IntVar(&opts.dimensions, "dimensions", 192, "embedding dimensions (0 accepts any)")
	pf.BoolVar(&opts.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		newEnrollCmd(opts),
		newUpdateCmd(opts),
		newIdentifyCmd(opts),
		newVerifyCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newVersionCmd(),
	)
	return root
}

// open connects to the store selected by the global flags.
func (o *globalOpts) open(ctx context.Context) (*voicematch.Client, error) {
	var storage voicematch.Option
	n := 0
	if o.badgerDir != "" {
		storage = voicematch.WithBadger(o.badgerDir)
		n++
	}
	if o.valkeyAddr != "" {
		storage = voicematch.WithValkey(o.valkeyAddr, o.password)
		n++
	}
	if o.redisAddr != "" {
		storage = voicematch.WithRedis(o.redisAddr, o.password)
		n++
	}
	switch n {
	case 0:
		return nil, errors.New("no store selected (use --badger, --valkey or --redis)")
	case 1:
	default:
		return nil, errors.New("--badger, --valkey and --redis are mutually exclusive")
	}

	opts := []voicematch.Option{storage, voicematch.WithDimensions(o.dimensions)}
	if o.prefix != "" {
		opts = append(opts, voicematch.WithKeyPrefix(o.prefix))
	}
	vm, err := voicematch.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return vm, nil
}

// print writes v as indented JSON when --json is set, and calls text otherwise.
func (o *globalOpts) print(w io.Writer, v any, text func(io.Writer)) error {
	if !o.jsonOut {
		text(w)
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

type samplesFile struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type queryFile struct {
	Embedding []float32 `json:"embedding"`
	NoVoice   bool      `json:"no_voice"`
}

func readJSON(path string, v any) error {
	if path == "" {
		return errors.New("input file is required (-f)")
	}
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(filepath.Clean(path))
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
