package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"

	"steplift/host/link"
	"steplift/host/serial"
	"steplift/lift"
)

var (
	device  = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate (ignored for USB CDC)")
	timeout = flag.Duration("timeout", 30*time.Second, "Timeout for status waits")
	script  = flag.String("e", "", "Run a command script (e.g. \"CALIB; wait idle\") and exit")
	verbose = flag.Bool("verbose", false, "Echo every console line from the controller")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud

	fmt.Printf("Connecting to lift controller on %s...\n", *device)
	conn, err := link.ConnectWithConfig(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	go printLines(conn)

	if *script != "" {
		for _, line := range strings.Split(*script, ";") {
			if err := runLine(conn, line); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
		}
		return
	}

	fmt.Println("Connected. Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "quit" || line == "exit" || line == "q" {
			fmt.Println("Goodbye!")
			return
		}
		if err := runLine(conn, line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

// printLines echoes diagnostics from the controller. Status lines are shown
// only in verbose mode since commands print them decoded.
func printLines(conn *link.Link) {
	for line := range conn.Lines() {
		if lift.IsStatusLine(line) && !*verbose {
			continue
		}
		fmt.Printf("\r%s\n", line)
	}
	if err := conn.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Link lost: %v\n", err)
	}
}

// runLine executes one input line. Words are split shell-style so a line can
// hold several commands, e.g. `F3 "wait idle" STATUS`.
func runLine(conn *link.Link, line string) error {
	words, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("failed to parse %q: %w", line, err)
	}

	for i := 0; i < len(words); i++ {
		word := words[i]
		switch strings.ToLower(word) {
		case "help", "?":
			printHelp()

		case "status":
			if err := printStatus(conn); err != nil {
				return err
			}

		case "wait":
			// "wait idle", "wait 2s" or the quoted form "wait idle"
			arg := ""
			if i+1 < len(words) {
				i++
				arg = words[i]
			}
			if err := wait(conn, arg); err != nil {
				return err
			}

		case "wait idle", "wait floor":
			if err := wait(conn, strings.Fields(word)[1]); err != nil {
				return err
			}

		default:
			if err := conn.Send(strings.ToUpper(word)); err != nil {
				return err
			}
		}
	}
	return nil
}

func printStatus(conn *link.Link) error {
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := conn.RequestStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	fmt.Printf("State: %s  Floor: %d  Target: %d  Position: %d  Error: %s\n",
		st.State, st.CurrentFloor, st.TargetFloor, st.Position, st.Error)
	return nil
}

// wait blocks until the lift is idle (or faulted) or for a fixed duration
func wait(conn *link.Link, arg string) error {
	if d, err := time.ParseDuration(arg); err == nil {
		time.Sleep(d)
		return nil
	}
	if arg != "idle" && arg != "floor" {
		return fmt.Errorf("wait: expected 'idle', 'floor' or a duration, got %q", arg)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	st, err := conn.WaitFor(ctx, 200*time.Millisecond, func(s lift.Status) bool {
		switch s.State {
		case lift.StateMoving, lift.StateCalibHomingUp:
			return false
		}
		return true
	})
	if err != nil {
		return fmt.Errorf("wait %s: %w", arg, err)
	}
	if st.State == lift.StateError {
		return fmt.Errorf("lift faulted: %s", st.Error)
	}
	fmt.Printf("Lift %s at floor %d\n", st.State, st.CurrentFloor)
	return nil
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  F1 F2 F3              - Move to a floor")
	fmt.Println("  STOP                  - Stop immediately")
	fmt.Println("  CALIB                 - Start calibration (homing up)")
	fmt.Println("  CALIB_DOWN_START      - Calibration: descend from the top switch")
	fmt.Println("  CALIB_DOWN_SAVE       - Calibration: save the bottom")
	fmt.Println("  CLEAR                 - Clear an error")
	fmt.Println("  MAN_UP MAN_DOWN       - Jog")
	fmt.Println("  MAN_STOP              - End jog")
	fmt.Println("  status                - Print decoded status")
	fmt.Println("  wait idle | wait 2s   - Wait for the lift to stop, or for a time")
	fmt.Println("  quit/exit/q           - Exit the program")
	fmt.Println()
}
