package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"runtime"
	"time"

	glfw "github.com/go-gl/glfw/v3.3/glfw"

	"github.com/richinsley/gobulge/capture"
	"github.com/richinsley/gobulge/content"
	"github.com/richinsley/gobulge/geometry"
	"github.com/richinsley/gobulge/glfwcontext"
	"github.com/richinsley/gobulge/logging"
	"github.com/richinsley/gobulge/loop"
	"github.com/richinsley/gobulge/messages"
	"github.com/richinsley/gobulge/options"
	"github.com/richinsley/gobulge/pointer"
	"github.com/richinsley/gobulge/renderer"
	"github.com/richinsley/gobulge/uniforms"
)

// initialNode builds the content shown at startup from the config.
func initialNode(cfg options.Config, style content.TextStyle) (capture.Node, error) {
	if cfg.Content.Image != "" {
		img, err := content.LoadImageFile(cfg.Content.Image)
		if err != nil {
			return nil, err
		}
		fit, err := content.ParseFit(cfg.Content.Fit)
		if err != nil {
			return nil, err
		}
		return content.NewImageNode(img, fit)
	}
	return content.NewTextNode(cfg.Content.Text, style)
}

func runBulge(cfg options.Config, logger *logging.DefaultLogger) error {
	style, err := cfg.TextStyle()
	if err != nil {
		return err
	}
	node, err := initialNode(cfg, style)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	if err := glfwcontext.InitGraphics(); err != nil {
		return fmt.Errorf("failed to initialize graphics: %w", err)
	}
	defer glfwcontext.TerminateGraphics()

	// If recording, the window stays hidden.
	ctx, err := glfwcontext.New(cfg.Width, cfg.Height, cfg.Title, !cfg.Record.Enabled)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	defer ctx.Shutdown()

	r, err := renderer.NewRenderer(ctx, renderer.Config{
		Width:      cfg.Width,
		Height:     cfg.Height,
		RecordMode: cfg.Record.Enabled,
		Logger:     logger.With("renderer"),
	})
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	defer r.Shutdown()

	width, height := r.Size()
	svc := capture.NewService(capture.Config{
		Width:          width,
		Height:         height,
		DebounceWindow: cfg.DebounceWindow(),
		Logger:         logger.With("capture"),
	})
	defer svc.Close()

	tracker, err := pointer.NewTracker(cfg.Pointer.Alpha)
	if err != nil {
		return err
	}
	bridge := uniforms.NewBridge(r.Textures(), logger.With("uniforms"))
	defer bridge.Release()

	plane, err := geometry.NewPlane(1, 1)
	if err != nil {
		return err
	}
	light, err := cfg.ShaderLight()
	if err != nil {
		return err
	}
	baseColor, err := cfg.BaseColor()
	if err != nil {
		return err
	}
	ambient, err := cfg.Ambient()
	if err != nil {
		return err
	}
	lp, err := loop.New(loop.Config{
		Tracker:   tracker,
		Bridge:    bridge,
		Textures:  svc,
		Submitter: r,
		Scene: loop.Scene{
			Plane:     plane,
			Camera:    cfg.CameraParams(),
			Params:    cfg.ShaderParams(),
			Light:     light,
			BaseColor: baseColor,
			Ambient:   ambient,
		},
		Logger: logger.With("loop"),
	})
	if err != nil {
		return err
	}

	if _, err := svc.AttachContentNode(node); err != nil {
		return err
	}

	if cfg.Messages.Listen != "" {
		stop, err := startMessages(cfg, style, svc, logger.With("messages"))
		if err != nil {
			return err
		}
		defer stop()
	}

	pipeline := renderer.Pipeline{Capture: svc, Loop: lp}
	if cfg.Record.Enabled {
		log.Println("Starting offscreen render loop...")
		err := r.RunRecord(pipeline, pointer.DefaultScript(), renderer.RecordOptions{
			Output:     cfg.Record.Output,
			FFmpegPath: cfg.Record.FFmpeg,
			Codec:      cfg.Record.Codec,
			FPS:        cfg.FPS,
			Duration:   cfg.Record.Duration,
		})
		if err != nil {
			return fmt.Errorf("offscreen rendering failed: %w", err)
		}
		log.Printf("Successfully rendered to %s", cfg.Record.Output)
		return nil
	}

	ctx.RegisterKeyCallback(glfw.KeyS, func() {
		r.RequestSnapshot(func(img *image.RGBA, err error) {
			if err != nil {
				logger.Errorf("snapshot failed: %v", err)
				return
			}
			path := renderer.SnapshotPath(cfg.Snapshot.Dir, time.Now())
			go func() {
				if err := renderer.SavePNG(path, img); err != nil {
					logger.Errorf("%v", err)
					return
				}
				logger.Infof("saved snapshot %s", path)
			}()
		})
	})

	log.Println("Starting interactive render loop...")
	return r.Run(pipeline)
}

// replaceContent installs a validated replacement as the captured content.
func replaceContent(svc *capture.Service, style content.TextStyle) messages.ApplyFunc {
	return func(rep messages.Replacement) error {
		node, err := content.FromReplacement(rep, style)
		if err != nil {
			return err
		}
		_, err = svc.AttachContentNode(node)
		return err
	}
}

// startMessages serves the content replacement endpoint. Accepted messages
// are applied on the render thread through the capture service mailbox.
func startMessages(cfg options.Config, style content.TextStyle, svc *capture.Service, logger logging.Logger) (func(), error) {
	validator, err := messages.NewValidator(cfg.Messages.AllowedOrigins)
	if err != nil {
		return nil, err
	}
	receiver := messages.NewReceiver(validator, replaceContent(svc, style), logger)

	ch := messages.NewHTTPChannel(logger)
	if err := ch.Listen(cfg.Messages.Listen); err != nil {
		return nil, err
	}
	go messages.Forward(ch, svc.Post, receiver)
	return func() {
		if err := ch.Close(); err != nil {
			logger.Warnf("failed to stop content server: %v", err)
		}
	}, nil
}

func init() {
	runtime.LockOSThread()
}

func main() {
	fs := flag.NewFlagSet("gobulge", flag.ExitOnError)
	opts := options.Flags(fs)
	fs.Parse(os.Args[1:])

	if *opts.Help {
		fmt.Println("gobulge: pointer-reactive bulge over text or image content")
		fs.PrintDefaults()
		return
	}

	cfg := options.Default()
	if *opts.ConfigFile != "" {
		var err error
		cfg, err = options.Load(*opts.ConfigFile)
		if err != nil {
			log.Fatalf("%v", err)
		}
	}
	opts.Apply(fs, &cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *opts.WriteConfig != "" {
		if err := options.Write(*opts.WriteConfig, cfg); err != nil {
			log.Fatalf("%v", err)
		}
		log.Printf("Wrote config to %s", *opts.WriteConfig)
		return
	}

	logger := logging.New("gobulge", cfg.Debug)
	if err := runBulge(cfg, logger); err != nil {
		log.Fatalf("%v", err)
	}
}
