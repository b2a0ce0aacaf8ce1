// Command pplctl is the CLI client for the PPL configure/validate/clear
// protocol: pair, push a validated JSON configuration document onto a
// device, and commit or tear it down again.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"time"

	"rbridge/cache"
	"rbridge/config"
	"rbridge/eventlog"
	"rbridge/logging"
	"rbridge/ppl"
	"rbridge/status"
	"rbridge/transport"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// preprocessLogDebugFlag lets --log-debug be used bare (meaning "all")
// as well as with an explicit protocol name, the way warlogix's own
// --log-debug flag works.
func preprocessLogDebugFlag() {
	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--log-debug" || arg == "-log-debug" {
			if i+1 >= len(args) || (len(args[i+1]) > 0 && args[i+1][0] == '-') {
				os.Args = append(os.Args[:i+2], append([]string{"all"}, os.Args[i+2:]...)...)
			}
			return
		}
		if len(arg) > 11 && (arg[:12] == "--log-debug=" || arg[:11] == "-log-debug=") {
			return
		}
	}
}

var (
	configPath  = flag.String("config", config.DefaultPath(), "Path to configuration file")
	showVersion = flag.Bool("version", false, "Show version and exit")

	timeout      time.Duration
	ownAddress   string
	ownPort      int
	devicePort   int
	logDebug     = flag.String("log-debug", "", "Enable debug logging to debug.log (bare for all protocols, or \"ppl\")")
	logFile      = flag.String("log", "", "Path to log file (optional)")
)

func init() {
	flag.DurationVar(&timeout, "timeout", 3*time.Second, "Time to wait for a response")
	flag.DurationVar(&timeout, "t", 3*time.Second, "Time to wait for a response (shorthand)")
	flag.StringVar(&ownAddress, "ownaddress", "0.0.0.0", "The interface to bind")
	flag.StringVar(&ownAddress, "a", "0.0.0.0", "The interface to bind (shorthand)")
	flag.IntVar(&ownPort, "ownport", 0, "The local port to bind (0 for an ephemeral port)")
	flag.IntVar(&ownPort, "p", 0, "The local port to bind (shorthand)")
	flag.IntVar(&devicePort, "port", ppl.DefaultDevicePort, "The device's listening port")
}

func main() {
	preprocessLogDebugFlag()
	flag.Parse()

	if *showVersion {
		fmt.Printf("pplctl %s\n", Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if *logDebug != "" {
		logger, err := logging.NewDebugLogger("debug.log")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug.log: %v\n", err)
			os.Exit(1)
		}
		logger.SetFilter(*logDebug)
		logging.SetGlobalDebugLogger(logger)
		defer logger.Close()
	}
	if *logFile != "" {
		fl, ferr := logging.NewFileLogger(*logFile)
		if ferr != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", ferr)
		} else {
			defer fl.Close()
		}
	}

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	command, rest := args[0], args[1:]

	var runErr error
	switch command {
	case "validate":
		runErr = runValidate(rest)
	case "test":
		runErr = runTest(cfg, rest)
	case "clear":
		runErr = runClear(cfg, rest)
	case "configure":
		runErr = runConfigure(cfg, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: pplctl [global flags] <command> [command flags] [args]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  validate <input_file>")
	fmt.Fprintln(os.Stderr, "  test [-fu] <ip> <input_file>")
	fmt.Fprintln(os.Stderr, "  clear [-fu] <ip>")
	fmt.Fprintln(os.Stderr, "  configure [-fu] [-st] [-sc] [-of file] [-fw] <ip> <input_file>")
}

// readDocument loads and parses a JSON configuration file into a ppl.Document,
// matching udpServer.createPacketData*'s field defaulting.
func readDocument(path string) (ppl.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ppl.Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var cfg ppl.InputConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return ppl.Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ppl.ToDocument(cfg, raw)
}

// printLog prints log the way the source client prints self.output, and
// reports whether every row in it was OK.
func printLog(log ppl.Log) bool {
	b, _ := json.MarshalIndent(log, "", "  ")
	fmt.Println(string(b))
	for _, r := range log.Response {
		if r != "OK" {
			return false
		}
	}
	return true
}

func resolveAddr(ip string, port int) (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", ip, port))
}

// runValidate locally parses and validates a configuration document without
// touching the network, matching runCmdValidateJson.
func runValidate(rest []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	fs.Parse(rest)
	if fs.NArg() != 1 {
		return fmt.Errorf("validate requires exactly one argument: <input_file>")
	}

	var log ppl.Log
	_, err := readDocument(fs.Arg(0))
	if err != nil {
		log.Response = append(log.Response, "ERROR")
		log.Timestamp = append(log.Timestamp, time.Now().Format("15:04:05"))
		log.Message = append(log.Message, err.Error())
	} else {
		log.Response = append(log.Response, "OK")
		log.Timestamp = append(log.Timestamp, time.Now().Format("15:04:05"))
		log.Message = append(log.Message, "")
	}

	if !printLog(log) {
		os.Exit(1)
	}
	return nil
}

// openOrchestrator binds a fresh transport, client and orchestrator, wiring
// the optional cache/eventlog collaborators from cfg when they're enabled.
func openOrchestrator(cfg *config.Config, device string) (*ppl.Orchestrator, func(), error) {
	reg := ppl.NewRegistry()
	t, err := transport.Listen("ppl", reg, ownAddress, ownPort)
	if err != nil {
		return nil, nil, err
	}

	client := ppl.NewClient(t, timeout)
	orch, err := ppl.NewOrchestrator(client, reg)
	if err != nil {
		t.Close()
		return nil, nil, err
	}

	var (
		store     *cache.UIDStore
		publisher *eventlog.Publisher
		srv       *status.Server
	)
	if cfg.Cache.Enabled {
		store = cache.New(cfg.Cache.Address, cfg.Cache.TTL)
		if err := store.Connect(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cache unavailable: %v\n", err)
		}
		orch.WithCache(store)
	}
	if cfg.Eventlog.Enabled {
		publisher = eventlog.New(cfg.Eventlog.Brokers, cfg.Eventlog.Topic)
		if err := publisher.Connect(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: eventlog unavailable: %v\n", err)
		}
		orch.WithEventLog(publisher, device)
	}
	if cfg.Status.Enabled {
		srv = status.New(cfg.Status.Address, t, client)
		if err := srv.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: status server unavailable: %v\n", err)
		}
	}

	cleanup := func() {
		if srv != nil {
			srv.Stop()
		}
		if publisher != nil {
			publisher.Close()
		}
		if store != nil {
			store.Close()
		}
		t.Close()
	}
	return orch, cleanup, nil
}

func runTest(cfg *config.Config, rest []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	var forceUnpair bool
	fs.BoolVar(&forceUnpair, "force_unpair", false, "force an unpair before pairing")
	fs.BoolVar(&forceUnpair, "fu", false, "force an unpair before pairing (shorthand)")
	fs.Parse(rest)
	if fs.NArg() != 2 {
		return fmt.Errorf("test requires exactly two arguments: <ip> <input_file>")
	}
	ip, path := fs.Arg(0), fs.Arg(1)

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	addr, err := resolveAddr(ip, devicePort)
	if err != nil {
		return err
	}

	orch, cleanup, err := openOrchestrator(cfg, ip)
	if err != nil {
		return err
	}
	defer cleanup()

	if orch.AlreadyCurrent(addr, doc) {
		log := orch.ClientLog()
		log.Response = append(log.Response, "OK")
		log.Timestamp = append(log.Timestamp, time.Now().Format("15:04:05"))
		log.Message = append(log.Message, "device already current, skipping validate")
		printLog(log)
		return nil
	}

	ok, verr := orch.Validate(addr, doc, forceUnpair)
	log := orch.ClientLog()
	if !printLog(log) || !ok {
		os.Exit(1)
	}
	return verr
}

func runClear(cfg *config.Config, rest []string) error {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	var forceUnpair bool
	fs.BoolVar(&forceUnpair, "force_unpair", false, "force an unpair before pairing")
	fs.BoolVar(&forceUnpair, "fu", false, "force an unpair before pairing (shorthand)")
	fs.Parse(rest)
	if fs.NArg() != 1 {
		return fmt.Errorf("clear requires exactly one argument: <ip>")
	}
	ip := fs.Arg(0)

	addr, err := resolveAddr(ip, devicePort)
	if err != nil {
		return err
	}

	orch, cleanup, err := openOrchestrator(cfg, ip)
	if err != nil {
		return err
	}
	defer cleanup()

	cerr := orch.Clear(addr, forceUnpair)
	if !printLog(orch.ClientLog()) {
		os.Exit(1)
	}
	return cerr
}

func runConfigure(cfg *config.Config, rest []string) error {
	fs := flag.NewFlagSet("configure", flag.ExitOnError)
	var (
		forceUnpair bool
		skipTest    bool
		skipClear   bool
		outputFile  string
		forceWrite  bool
	)
	fs.BoolVar(&forceUnpair, "force_unpair", false, "force an unpair before pairing")
	fs.BoolVar(&forceUnpair, "fu", false, "force an unpair before pairing (shorthand)")
	fs.BoolVar(&skipTest, "skip_test", false, "skip the MAC configuration validation pass")
	fs.BoolVar(&skipTest, "st", false, "skip the MAC configuration validation pass (shorthand)")
	fs.BoolVar(&skipClear, "skip_clear", false, "skip clearing existing config slots first")
	fs.BoolVar(&skipClear, "sc", false, "skip clearing existing config slots first (shorthand)")
	fs.StringVar(&outputFile, "output_file", "", "write the run's log to this file as JSON")
	fs.StringVar(&outputFile, "of", "", "write the run's log to this file as JSON (shorthand)")
	fs.BoolVar(&forceWrite, "force_write", false, "overwrite output_file if it already exists")
	fs.BoolVar(&forceWrite, "fw", false, "overwrite output_file if it already exists (shorthand)")
	fs.Parse(rest)
	if fs.NArg() != 2 {
		return fmt.Errorf("configure requires exactly two arguments: <ip> <input_file>")
	}
	ip, path := fs.Arg(0), fs.Arg(1)

	if outputFile != "" && !outputPathValid(outputFile, forceWrite) {
		return fmt.Errorf("output_file %s already exists; use --force_write to overwrite", outputFile)
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}
	addr, err := resolveAddr(ip, devicePort)
	if err != nil {
		return err
	}

	orch, cleanup, err := openOrchestrator(cfg, ip)
	if err != nil {
		return err
	}
	defer cleanup()

	if skipTest && orch.AlreadyCurrent(addr, doc) {
		log := orch.ClientLog()
		log.Response = append(log.Response, "OK")
		log.Timestamp = append(log.Timestamp, time.Now().Format("15:04:05"))
		log.Message = append(log.Message, "device already current, skipping configure")
		ok := printLog(log)
		if outputFile != "" {
			if werr := writeLogFile(outputFile, log); werr != nil {
				fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, werr)
			}
		}
		if !ok {
			os.Exit(1)
		}
		return nil
	}

	cerr := orch.Configure(addr, doc, ppl.ConfigureOptions{
		ForceUnpair: forceUnpair,
		SkipTest:    skipTest,
		SkipClear:   skipClear,
	})
	log := orch.ClientLog()
	ok := printLog(log)

	if outputFile != "" {
		if werr := writeLogFile(outputFile, log); werr != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", outputFile, werr)
		}
	}

	if !ok {
		os.Exit(1)
	}
	return cerr
}

func outputPathValid(path string, forceWrite bool) bool {
	if _, err := os.Stat(path); err == nil && !forceWrite {
		return false
	}
	return true
}

func writeLogFile(path string, log ppl.Log) error {
	b, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
