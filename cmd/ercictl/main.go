// Command ercictl is the CLI client for the ERCI ring-switched antenna
// control protocol: select a config/ring/antenna, start or stop a device,
// and query its state, diagnostics, and channel information.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"rbridge/erci"
	"rbridge/logging"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	showVersion = flag.Bool("version", false, "Show version and exit")
	logDebug    = flag.String("log-debug", "", "Enable debug logging to debug.log")

	timeout    time.Duration
	ownAddress string
	ownPort    int
	port       int
)

func init() {
	flag.DurationVar(&timeout, "timeout", 3*time.Second, "Time to wait for a response")
	flag.DurationVar(&timeout, "t", 3*time.Second, "Time to wait for a response (shorthand)")
	flag.StringVar(&ownAddress, "ownaddress", "0.0.0.0", "The interface to bind")
	flag.StringVar(&ownAddress, "a", "0.0.0.0", "The interface to bind (shorthand)")
	flag.IntVar(&ownPort, "ownport", 0, "The local port to bind (0 for an ephemeral port)")
	flag.IntVar(&ownPort, "p", 0, "The local port to bind (shorthand)")
	flag.IntVar(&port, "port", erci.Port, "The device's listening port")
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("ercictl %s\n", Version)
		os.Exit(0)
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

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}
	command, ip, rest := args[0], args[1], args[2:]

	client, err := erci.NewClient(ownAddress, ownPort, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	addr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", ip, port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var (
		result any
		runErr error
	)
	switch command {
	case "config":
		result, runErr = runConfig(client, addr, rest)
	case "ring":
		result, runErr = runRing(client, addr, rest)
	case "start":
		result, runErr = client.Start(addr)
	case "stop":
		result, runErr = client.Stop(addr)
	case "state":
		result, runErr = client.StateQuery(addr)
	case "diagdesc":
		result, runErr = client.DiagnosticDescriptionQuery(addr)
	case "antenna":
		result, runErr = runAntenna(client, addr, rest)
	case "configmode":
		result, runErr = runConfigMode(client, addr, rest)
	case "passportquery":
		result, runErr = runPassportQuery(client, addr, rest)
	case "reboot":
		runErr = client.Reboot(addr)
		if runErr == nil {
			result = map[string]string{"status": "sent"}
		}
	case "csi":
		result, runErr = client.GetCSI(addr)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", command)
		usage()
		os.Exit(1)
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		os.Exit(1)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
	if !succeeded(result) {
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ercictl [global flags] <command> <ip> [args]")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  config <ip> <config_id> <ring_id> <antenna_id>")
	fmt.Fprintln(os.Stderr, "  ring <ip> <ring_id> <antenna_id>")
	fmt.Fprintln(os.Stderr, "  start <ip>")
	fmt.Fprintln(os.Stderr, "  stop <ip>")
	fmt.Fprintln(os.Stderr, "  state <ip>")
	fmt.Fprintln(os.Stderr, "  diagdesc <ip>")
	fmt.Fprintln(os.Stderr, "  antenna <ip> <antenna_id>")
	fmt.Fprintln(os.Stderr, "  configmode <ip> <0|1>")
	fmt.Fprintln(os.Stderr, "  passportquery <ip> <mac> <serial>")
	fmt.Fprintln(os.Stderr, "  reboot <ip>")
	fmt.Fprintln(os.Stderr, "  csi <ip>")
}

// succeeded reports whether a decoded response represents success. Query
// types without an explicit status field (state, diagnostics) are
// considered successful whenever they were returned without an error.
func succeeded(result any) bool {
	switch r := result.(type) {
	case *erci.CommandResult:
		return r.Success
	case *erci.PassportResponse:
		return r.Success
	case *erci.CSIResponse:
		return r.Success
	default:
		return true
	}
}

func parseUint8(name, s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("argument %s must be an 8-bit unsigned integer: %w", name, err)
	}
	return uint8(v), nil
}

func runConfig(c *erci.Client, addr *net.UDPAddr, args []string) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("config requires exactly three arguments: <config_id> <ring_id> <antenna_id>")
	}
	configID, err := parseUint8("config_id", args[0])
	if err != nil {
		return nil, err
	}
	ringID, err := parseUint8("ring_id", args[1])
	if err != nil {
		return nil, err
	}
	antennaID, err := parseUint8("antenna_id", args[2])
	if err != nil {
		return nil, err
	}
	return c.SelectConfig(addr, configID, ringID, antennaID)
}

func runRing(c *erci.Client, addr *net.UDPAddr, args []string) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("ring requires exactly two arguments: <ring_id> <antenna_id>")
	}
	ringID, err := parseUint8("ring_id", args[0])
	if err != nil {
		return nil, err
	}
	antennaID, err := parseUint8("antenna_id", args[1])
	if err != nil {
		return nil, err
	}
	return c.SwitchRing(addr, ringID, antennaID)
}

func runAntenna(c *erci.Client, addr *net.UDPAddr, args []string) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("antenna requires exactly one argument: <antenna_id>")
	}
	antennaID, err := parseUint8("antenna_id", args[0])
	if err != nil {
		return nil, err
	}
	return c.SwitchAntenna(addr, antennaID)
}

func runConfigMode(c *erci.Client, addr *net.UDPAddr, args []string) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("configmode requires exactly one argument: <0|1>")
	}
	flagVal, err := parseUint8("configmode_flag", args[0])
	if err != nil {
		return nil, err
	}
	return c.SetConfigMode(addr, flagVal)
}

func runPassportQuery(c *erci.Client, addr *net.UDPAddr, args []string) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("passportquery requires exactly two arguments: <mac> <serial>")
	}
	mac, err := erci.ParseMAC(args[0])
	if err != nil {
		return nil, err
	}
	return c.PassportQuery(addr, mac, args[1])
}
