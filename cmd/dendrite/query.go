package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xxfu/bittensor/config"
	"github.com/0xxfu/bittensor/dendrite"
	"github.com/0xxfu/bittensor/keypair"
	"github.com/0xxfu/bittensor/loadbalance"
	"github.com/0xxfu/bittensor/registry"
	"github.com/0xxfu/bittensor/synapse"
)

type queryFlags struct {
	axons      []string
	hotkeys    []string
	name       string
	payload    string
	timeout    time.Duration
	keyFile    string
	etcd       []string
	pick       string
	key        string
	sequential bool
}

func newQueryCmd(g *globalFlags) *cobra.Command {
	f := &queryFlags{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send one synapse to axons and print the answers",
		Long: `Send one synapse to axons and print the answers.

Targets come from --axon, the axons listed in the config file and, with
--etcd or etcd.endpoints in the config, the axon registry. --hotkey narrows
the targets to the given hotkeys. --pick chooses a single target instead of
sending to all of them.

Examples:
  dendrite query --synapse Echo --payload '{"text":"hi"}' --axon 127.0.0.1:8091:5F...
  dendrite query -c dendrite.yaml --synapse Echo --pick hash --route-key user-1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, g, f)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&f.axons, "axon", nil, "target as ip:port:hotkey (repeatable)")
	flags.StringArrayVar(&f.hotkeys, "hotkey", nil, "only query these hotkeys (repeatable)")
	flags.StringVarP(&f.name, "synapse", "s", "", "synapse name (route)")
	flags.StringVarP(&f.payload, "payload", "p", "{}", "synapse fields as a JSON object")
	flags.DurationVarP(&f.timeout, "timeout", "t", 0, "per-call timeout (default from config, else 12s)")
	flags.StringVar(&f.keyFile, "key", "", "hotkey seed file (default from config, else an ephemeral key)")
	flags.StringSliceVar(&f.etcd, "etcd", nil, "etcd endpoints of the axon registry")
	flags.StringVar(&f.pick, "pick", "all", "all, roundrobin, random or hash")
	flags.StringVar(&f.key, "route-key", "", "request key for --pick hash")
	flags.BoolVar(&f.sequential, "sequential", false, "query targets one after another")
	cmd.MarkFlagRequired("synapse")
	return cmd
}

func runQuery(cmd *cobra.Command, g *globalFlags, f *queryFlags) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}
	logger, err := g.logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	kp, err := loadKeypair(f.keyFile, cfg.KeyFile)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(f.payload), &fields); err != nil {
		return fmt.Errorf("--payload must be a JSON object: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	targets, err := resolveTargets(ctx, cfg, f, logger)
	if err != nil {
		return err
	}

	d, err := dendrite.New(kp, cfg.Options(logger)...)
	if err != nil {
		return err
	}

	opts := []dendrite.CallOption{dendrite.WithTimeout(f.timeout), dendrite.WithDeserialize(false)}
	if f.sequential {
		opts = append(opts, dendrite.WithSequential())
	}

	s := synapse.NewDynamic(f.name, fields)
	var results []any
	if f.pick == "all" {
		results = d.Forward(ctx, targets, s, opts...)
	} else {
		balancer, err := loadbalance.New(f.pick, cfg.Weights(), f.key)
		if err != nil {
			return err
		}
		target, err := balancer.Pick(targets)
		if err != nil {
			return err
		}
		logger.Debug("picked axon", zap.String("strategy", balancer.Name()), zap.Stringer("axon", target))
		results = []any{d.Query(ctx, target, s, opts...)}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func loadKeypair(flagPath, cfgPath string) (*keypair.Ed25519, error) {
	path := flagPath
	if path == "" {
		path = cfgPath
	}
	if path == "" {
		return keypair.Generate()
	}
	return keypair.Load(path)
}

// resolveTargets collects the serving axons from flags, config and registry, in that
// order, without duplicate hotkeys.
func resolveTargets(ctx context.Context, cfg *config.Config, f *queryFlags, logger *zap.Logger) ([]synapse.AxonInfo, error) {
	static := registry.NewStaticRegistry()
	for _, raw := range f.axons {
		axon, err := parseAxon(raw)
		if err != nil {
			return nil, err
		}
		if err := static.Register(ctx, axon, 0); err != nil {
			return nil, err
		}
	}
	for _, axon := range cfg.AxonInfos() {
		if _, err := static.Lookup(ctx, axon.Hotkey); !errors.Is(err, registry.ErrNotFound) {
			continue
		}
		if err := static.Register(ctx, axon, 0); err != nil {
			return nil, err
		}
	}
	sources := []registry.Registry{static}

	endpoints := f.etcd
	if len(endpoints) == 0 {
		endpoints = cfg.Etcd.Endpoints
	}
	if len(endpoints) > 0 {
		dialTimeout := cfg.Etcd.DialTimeout
		if dialTimeout <= 0 {
			dialTimeout = 5 * time.Second
		}
		etcd, err := registry.NewEtcdRegistry(endpoints, dialTimeout)
		if err != nil {
			return nil, err
		}
		defer etcd.Close()
		sources = append(sources, etcd)
	}

	seen := make(map[string]bool)
	var targets []synapse.AxonInfo
	add := func(axon synapse.AxonInfo) {
		if seen[axon.Hotkey] {
			return
		}
		seen[axon.Hotkey] = true
		targets = append(targets, axon)
	}

	for _, src := range sources {
		if len(f.hotkeys) > 0 {
			for _, hotkey := range f.hotkeys {
				axon, err := src.Lookup(ctx, hotkey)
				if errors.Is(err, registry.ErrNotFound) {
					continue
				}
				if err != nil {
					return nil, err
				}
				add(axon)
			}
			continue
		}
		axons, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, axon := range axons {
			add(axon)
		}
	}

	serving := registry.Serving(targets)
	if len(serving) < len(targets) {
		logger.Debug("skipping axons without an address", zap.Int("skipped", len(targets)-len(serving)))
	}
	if len(serving) == 0 {
		return nil, errors.New("no serving axons to query")
	}
	return serving, nil
}

// parseAxon reads ip:port:hotkey. IPv6 addresses go in brackets: [::1]:8091:hotkey.
func parseAxon(raw string) (synapse.AxonInfo, error) {
	i := strings.LastIndex(raw, ":")
	if i < 0 {
		return synapse.AxonInfo{}, fmt.Errorf("axon %q: want ip:port:hotkey", raw)
	}
	hostPort, hotkey := raw[:i], raw[i+1:]
	host, portText, err := net.SplitHostPort(hostPort)
	if err != nil || hotkey == "" {
		return synapse.AxonInfo{}, fmt.Errorf("axon %q: want ip:port:hotkey", raw)
	}
	port, err := strconv.Atoi(portText)
	if err != nil || port <= 0 || port > 65535 {
		return synapse.AxonInfo{}, fmt.Errorf("axon %q: bad port", raw)
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return synapse.AxonInfo{}, fmt.Errorf("axon %q: bad ip", raw)
	}
	ipType := 4
	if ip.To4() == nil {
		ipType = 6
	}
	return synapse.AxonInfo{IP: host, Port: port, IPType: ipType, Hotkey: hotkey}, nil
}
