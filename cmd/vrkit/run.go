package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/mughesh/HVAC-VRB-sub000/bridge"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/sequence"
	"github.com/mughesh/HVAC-VRB-sub000/sim"
)

var errIncomplete = errors.New("program did not finish")

type runOptions struct {
	Scene    string
	Script   string
	Profiles []string
	Timeout  time.Duration
}

type runResult struct {
	Program  string  `json:"program"`
	RunID    string  `json:"run_id"`
	Finished bool    `json:"finished"`
	Module   string  `json:"module,omitempty"`
	Group    string  `json:"group,omitempty"`
	Steps    string  `json:"steps,omitempty"`
	Failures int     `json:"failures"`
	Ticks    int     `json:"ticks"`
	Elapsed  float64 `json:"elapsed_seconds"`
}

func NewRunCommand(root *RootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run <program.yaml>",
		Short: "Run a training program in a headless scene",
		Long: `Run builds the scene, starts the program and drives the physics loop.
With --script the recorded input is played as fast as possible and the
command fails when the program has not finished by the end of it. Without a
script the loop runs in real time, taking input from the MQTT bridge, until
the program finishes, --timeout passes or the process is interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runProgram(ctx, root, opts, args[0], cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Scene, "scene", "s", "", "scene file (required)")
	cmd.Flags().StringVar(&opts.Script, "script", "", "input script to play instead of live input")
	cmd.Flags().StringSliceVarP(&opts.Profiles, "profiles", "p", nil, "extra profile directories")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "stop a live run after this long (0: no limit)")
	_ = cmd.MarkFlagRequired("scene")
	return cmd
}

func runProgram(ctx context.Context, root *RootOptions, opts *runOptions, path string, out io.Writer) error {
	cfg, log := root.cfg, root.log

	prog, err := sequence.LoadFile(path)
	if err != nil {
		return err
	}
	if issues := sequence.Validate(prog); sequence.HasErrors(issues) {
		for _, i := range issues {
			log.Error("program issue", "issue", i.String())
		}
		return fmt.Errorf("%s: %w", path, errInvalidProgram)
	}

	lib, err := root.loadLibrary(opts.Profiles...)
	if err != nil {
		return err
	}
	sc, err := root.buildScene(opts.Scene, lib)
	if err != nil {
		return err
	}
	for _, i := range sequence.ValidateScene(prog, sc) {
		log.Warn("scene issue", "issue", i.String())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	metrics, err := sequence.NewMetrics(reg)
	if err != nil {
		return err
	}
	copts := []sequence.Option{sequence.WithLogger(log), sequence.WithHooks(metrics.Hooks())}

	if cfg.Metrics.Addr != "" {
		srv := serveMetrics(cfg.Metrics.Addr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var br *bridge.Bridge
	if cfg.MQTT.Enabled {
		client := bridge.NewMQTT(bridge.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			QoS:      byte(cfg.MQTT.QoS),
			Timeout:  cfg.MQTT.Timeout(),
		})
		if err := client.Connect(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
		defer client.Disconnect()
		br = bridge.New(client, cfg.MQTT.Prefix, sc.NameOf, log)
		br.Attach(sc.World().Events())
		defer br.Detach(sc.World().Events())
		if err := br.Listen(client); err != nil {
			return err
		}
		copts = append(copts, sequence.WithHooks(br.Hooks()))
	}

	ctrl := sequence.NewController(prog, sc, copts...)
	rt := sim.New(sc,
		sim.WithFixedDT(cfg.Physics.FixedDT()),
		sim.WithMaxFixedSteps(cfg.Physics.MaxFixedSteps),
		sim.WithLogger(log),
	)
	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	defer ctrl.Stop()

	if opts.Script != "" {
		script, err := sim.LoadScript(opts.Script)
		if err != nil {
			return err
		}
		if err := rt.Play(ctx, script); err != nil {
			return err
		}
	} else {
		if err := live(ctx, root, opts, rt, ctrl, br, lib, sc); err != nil {
			return err
		}
	}

	res := summarize(prog, ctrl, rt)
	if err := report(out, root.Output, res); err != nil {
		return err
	}
	if !res.Finished {
		return fmt.Errorf("%s: %w", prog.Name, errIncomplete)
	}
	return nil
}

// live runs the frame loop on a wall clock. Profile reloads and bridge input
// are handed to the loop and applied between frames.
func live(ctx context.Context, root *RootOptions, opts *runOptions, rt *sim.Runtime, ctrl *sequence.Controller, br *bridge.Bridge, lib *profile.Library, sc *scene.Scene) error {
	cfg, log := root.cfg, root.log
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	reloads := make(chan *profile.Profile, 16)
	if cfg.Profiles.Watch {
		if dirs := root.profileDirs(opts.Profiles); len(dirs) > 0 {
			err := lib.Watch(ctx, log, func(p *profile.Profile) {
				select {
				case reloads <- p:
				default:
					log.Warn("dropping profile reload", "profile", p.Name)
				}
			}, dirs...)
			if err != nil {
				return err
			}
		}
	}

	frameDT := cfg.Physics.FrameDT()
	ticker := time.NewTicker(time.Duration(frameDT * float64(time.Second)))
	defer ticker.Stop()
	for !ctrl.Finished() {
		select {
		case <-ctx.Done():
			log.Info("live run ended", "reason", ctx.Err())
			return nil
		case p := <-reloads:
			n := sc.Reconfigure(p)
			log.Info("profile applied", "profile", p.Name, "objects", n)
		case <-ticker.C:
			if br != nil {
				for _, cmd := range br.Drain() {
					if err := rt.Apply(cmd); err != nil {
						log.Warn("input rejected", "object", cmd.Object, "action", cmd.Action, "error", err)
					}
				}
			}
			rt.Advance(frameDT)
		}
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	log.Info("serving metrics", "addr", addr)
	return srv
}

func summarize(prog *sequence.Program, ctrl *sequence.Controller, rt *sim.Runtime) runResult {
	p := ctrl.Progress()
	res := runResult{
		Program:  prog.Name,
		RunID:    p.RunID,
		Finished: p.Finished,
		Failures: p.Failures,
		Ticks:    rt.Ticks(),
		Elapsed:  rt.Elapsed(),
	}
	if !p.Finished {
		res.Module = p.ModuleName
		res.Group = p.GroupName
		res.Steps = fmt.Sprintf("%d/%d", p.CompletedSteps, p.TotalSteps)
	}
	return res
}

func report(out io.Writer, format string, res runResult) error {
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Finished {
		_, err := fmt.Fprintf(out, "%s: finished in %d ticks (%.2fs), %d failures [run %s]\n",
			res.Program, res.Ticks, res.Elapsed, res.Failures, res.RunID)
		return err
	}
	_, err := fmt.Fprintf(out, "%s: stopped in %s / %s with %s steps done, %d failures [run %s]\n",
		res.Program, res.Module, res.Group, res.Steps, res.Failures, res.RunID)
	return err
}
