package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/mughesh/HVAC-VRB-sub000/config"
	"github.com/mughesh/HVAC-VRB-sub000/ecs"
	"github.com/mughesh/HVAC-VRB-sub000/interaction"
	"github.com/mughesh/HVAC-VRB-sub000/profile"
	"github.com/mughesh/HVAC-VRB-sub000/scene"
	"github.com/mughesh/HVAC-VRB-sub000/sequence"
	"github.com/mughesh/HVAC-VRB-sub000/sim"
	"github.com/mughesh/HVAC-VRB-sub000/task"
)

func main() {
	configPath := flag.String("config", "", "config file (default: ./vrkit.yaml)")
	scenePath := flag.String("scene", "", "scene file to open")
	programPath := flag.String("program", "", "training program to run alongside (optional)")
	flag.Parse()

	if *scenePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	lib := profile.NewLibrary()
	for _, dir := range cfg.Profiles.Dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}
		if _, err := lib.LoadDir(dir); err != nil {
			log.Fatal(err)
		}
	}

	spec, err := scene.LoadSpec(*scenePath)
	if err != nil {
		log.Fatal(err)
	}
	env := interaction.NewEnv(ecs.NewWorld(), task.NewRunner(), logger)
	env.Backend = cfg.Backend()
	sc, err := scene.Build(env, spec, lib)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Profiles.Watch {
		reloads := make(chan *profile.Profile, 16)
		if err := lib.Watch(ctx, logger, func(p *profile.Profile) {
			select {
			case reloads <- p:
			default:
			}
		}, cfg.Profiles.Dirs...); err != nil {
			logger.Warn("profile watch disabled", "error", err)
		} else {
			// applied on the game loop goroutine
			sc.Env.Tasks.Start(ctx, "profile-reload", task.Func(func(ph task.Phase, _ float64) bool {
				if ph != task.PhaseFrame {
					return false
				}
				for {
					select {
					case p := <-reloads:
						sc.Reconfigure(p)
					default:
						return false
					}
				}
			}))
		}
	}

	var ctrl *sequence.Controller
	if *programPath != "" {
		prog, err := sequence.LoadFile(*programPath)
		if err != nil {
			log.Fatal(err)
		}
		ctrl = sequence.NewController(prog, sc, sequence.WithLogger(logger))
		if err := ctrl.Start(ctx); err != nil {
			log.Fatal(err)
		}
	}

	rt := sim.New(sc,
		sim.WithFixedDT(cfg.Physics.FixedDT()),
		sim.WithMaxFixedSteps(cfg.Physics.MaxFixedSteps),
		sim.WithLogger(logger),
	)

	ebiten.SetTPS(cfg.Physics.FrameHz)
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("vrkit viewer: " + sc.Name)
	if err := ebiten.RunGame(newViewer(rt, ctrl, cfg.Physics.FrameDT(), logger)); err != nil {
		log.Fatal(err)
	}
}
