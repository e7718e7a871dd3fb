// Command factorio-rcon sends console commands to a Factorio server over RCON. With no commands
// on the command line it starts an interactive prompt.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	rcon "github.com/mark9064/factorio-rcon-go"
)

const version = "1.0.0"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		host        = flag.String("host", envOrDefault("FACTORIO_RCON_HOST", "localhost"), "server address")
		port        = flag.String("port", envOrDefault("FACTORIO_RCON_PORT", "27015"), "RCON port")
		password    = flag.String("password", os.Getenv("FACTORIO_RCON_PASS"), "RCON password")
		timeout     = flag.Duration("timeout", 0, "round trip timeout (0 = default, negative = none)")
		wait        = flag.Duration("wait", 0, "pause between commands in one-shot mode")
		silent      = flag.Bool("silent", false, "suppress command output")
		debug       = flag.Bool("debug", false, "log every packet sent and received")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("factorio-rcon %s\n", version)
		return 0
	}
	if *password == "" {
		fmt.Fprintln(os.Stderr, "a password is required (-password or FACTORIO_RCON_PASS)")
		return 2
	}

	logger := newLogger(*debug)
	defer func() { _ = logger.Sync() }()

	addr := net.JoinHostPort(*host, *port)
	client, err := rcon.Dial(addr, *password, rcon.ClientConfig{
		Timeout: *timeout,
		Logger:  logger,
	})
	if err != nil {
		if errors.Is(err, rcon.ErrAuthFailed) {
			fmt.Fprintln(os.Stderr, "authentication failed: check the RCON password")
		} else {
			fmt.Fprintf(os.Stderr, "failed to connect to %s: %v\n", addr, err)
		}
		return 1
	}
	defer func() { _ = client.Close() }()
	logger.Info("connected", zap.String("addr", addr))

	if flag.NArg() == 0 {
		return interactive(client)
	}
	return oneShot(client, flag.Args(), *wait, *silent)
}

// oneShot executes the command line arguments as server commands, in order.
func oneShot(client *rcon.Client, commands []string, wait time.Duration, silent bool) int {
	for i, command := range commands {
		out, err := client.SendCommand(command)
		if err != nil {
			fmt.Fprintf(os.Stderr, "command %q failed: %v\n", command, err)
			return 1
		}
		if !silent && out != "" {
			fmt.Println(out)
		}
		if wait > 0 && i < len(commands)-1 {
			time.Sleep(wait)
		}
	}
	return 0
}

// interactive reads commands from a readline prompt until EOF, interrupt, or a quit command.
func interactive(client *rcon.Client) int {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "factorio> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".factorio-rcon_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize terminal: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	fmt.Println("Connected. Type 'exit' or press Ctrl-D to disconnect.")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return 0
			}
			continue
		}
		if err == io.EOF {
			return 0
		}

		command := strings.TrimSpace(line)
		if command == "" {
			continue
		}
		if strings.EqualFold(command, "exit") || strings.EqualFold(command, "quit") {
			return 0
		}

		out, err := client.SendCommand(command)
		if err != nil {
			// Every client error closes the connection, so there is nothing to continue with.
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// newLogger builds a console logger on stderr, at debug level when packet tracing is requested.
func newLogger(debug bool) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(os.Stderr), level)
	return zap.New(core)
}

func envOrDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}
