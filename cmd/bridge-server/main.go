// Command bridge-server answers bridge-protocol requests over a byte bus,
// dispatching the two built-in request types forever until the bus fails.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	bridge "github.com/kestrel-embedded/bridge-protocol"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dial string
	var hwVersion, fwVersion uint32

	root := &cobra.Command{
		Use:     "bridge-server",
		Short:   "answer bridge-protocol requests over a byte bus",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, dial, bridge.DeviceInfo{HardwareVersion: hwVersion, FirmwareVersion: fwVersion})
		},
	}
	root.PersistentFlags().StringVarP(&dial, "dial", "d", "", "bus dial string (serial:///dev/ttyUSB0:115200 or tcp://host:port)")
	root.PersistentFlags().Uint32Var(&hwVersion, "hardware-version", 1, "hardware_version reported to GET_DEVICE_INFO")
	root.PersistentFlags().Uint32Var(&fwVersion, "firmware-version", 1, "firmware_version reported to GET_DEVICE_INFO")
	root.MarkPersistentFlagRequired("dial")
	root.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	return root
}

func runServer(cmd *cobra.Command, dial string, info bridge.DeviceInfo) error {
	bus, err := bridge.NewByteBus(dial)
	if err != nil {
		return fmt.Errorf("dial %q: %w", dial, err)
	}
	if err := bus.Open(); err != nil {
		return fmt.Errorf("open %v: %w", bus, err)
	}
	defer bus.Close()

	session := bridge.NewSession(bus, bridge.NewCatalog())
	if err := session.Bootstrap(context.Background()); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	cmd.Println("bridge-server ready on", bus)

	for {
		// Process already recovers past a Corrupted frame or an unknown
		// request type internally; a non-nil error here means the bus
		// itself hard-failed (IOError), which is fatal for the session.
		req, outcome, err := session.Process(bridge.WaitForever)
		if err != nil {
			return fmt.Errorf("process: %w", err)
		}

		switch outcome {
		case bridge.NoRequest, bridge.UnknownRequestRecovered:
			continue
		case bridge.RequestReceived:
			if err := answer(session, req, info); err != nil {
				return fmt.Errorf("answer %v: %w", req.Type, err)
			}
		}
	}
}

func answer(session *bridge.Session, req bridge.Request, info bridge.DeviceInfo) error {
	switch req.Type {
	case bridge.RequestMatchProtocolVersion:
		return session.AnswerMatchProtocolVersion()
	case bridge.RequestGetDeviceInfo:
		return session.AnswerGetDeviceInfo(info)
	default:
		return session.AnswerRejected()
	}
}
