package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"steplift/host/serial"
	"steplift/lift/config"
)

var (
	configPath   = flag.String("config", "", "Lift configuration JSON (defaults if empty)")
	addr         = flag.String("addr", ":8080", "Websocket listen address (empty to disable)")
	serialDevice = flag.String("serial", "", "Also accept commands from this serial device")
	baud         = flag.Int("baud", serial.DefaultBaud, "Baud rate for -serial")
	height       = flag.Int64("height", 2500, "Initial car height above the bottom stop (steps)")
	switchHeight = flag.Int64("switch", 6000, "Top limit switch height (steps)")
	pot          = flag.Int("pot", 4095, "Initial speed potentiometer reading (0..4095)")
	noStdin      = flag.Bool("no-stdin", false, "Do not read commands from stdin")
	verbose      = flag.Bool("verbose", false, "Debug logging")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(); err != nil {
		slog.Error("liftsim failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadFile(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config %s: %w", *configPath, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *Hub
	var port serial.Port
	lines := make(chan string, 256)

	output := func(line string) {
		select {
		case lines <- line:
		default:
		}
	}
	status := func(msg StatusMessage) {
		if hub != nil {
			hub.Broadcast(msg)
		}
	}

	r, err := newRig(*cfg, *height, *switchHeight, *pot, output, status)
	if err != nil {
		return fmt.Errorf("failed to build simulator: %w", err)
	}

	if *addr != "" {
		hub = NewHub(ctx, r.submit)
	}

	if *serialDevice != "" {
		scfg := serial.DefaultConfig(*serialDevice)
		scfg.Baud = *baud
		scfg.ReadTimeout = 0 // Block; the scanner treats a timeout as end of input
		port, err = serial.Open(scfg)
		if err != nil {
			return err
		}
		defer port.Close()
		go readCommands(ctx, port, r, "serial")
		slog.Info("Accepting commands on serial port", "device", *serialDevice, "baud", *baud)
	}

	if !*noStdin {
		go readCommands(ctx, os.Stdin, r, "stdin")
	}

	// Console output fan-out: stdout, websocket clients, serial port
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case line := <-lines:
				fmt.Println(line)
				if hub != nil {
					hub.Broadcast(ConsoleMessage{Type: "console", Line: line})
				}
				if port != nil {
					if _, err := port.Write([]byte(line + "\n")); err != nil {
						slog.Warn("Serial write failed", "error", err)
					}
				}
			}
		}
	}()

	var srv *http.Server
	if hub != nil {
		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		srv = &http.Server{Addr: *addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			slog.Info("Starting lift simulator", "addr", *addr, "websocket", "/ws")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server failed", "error", err)
				stop()
			}
		}()
	}

	r.run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	slog.Info("Simulator stopped")
	return nil
}

// readCommands forwards each input line to the control loop.
// Lines starting with '#' are comments.
func readCommands(ctx context.Context, in interface{ Read([]byte) (int, error) }, r *rig, source string) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		slog.Debug("Command", "source", source, "line", line)
		if !r.submit(ctx, event{command: line, pot: -1}) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("Command input closed", "source", source, "error", err)
	}
}
