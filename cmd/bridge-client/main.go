// Command bridge-client dials a bridge-protocol server over a byte bus,
// checks that the server's protocol version matches, then fetches and
// prints its device info.
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

	root := &cobra.Command{
		Use:     "bridge-client",
		Short:   "talk to a bridge-protocol server",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd, dial)
		},
	}
	root.PersistentFlags().StringVarP(&dial, "dial", "d", "", "bus dial string (serial:///dev/ttyUSB0:115200 or tcp://host:port)")
	root.MarkPersistentFlagRequired("dial")
	root.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}
	return root
}

func runClient(cmd *cobra.Command, dial string) error {
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

	if err := session.CheckCompatibility(); err != nil {
		return fmt.Errorf("compatibility check: %w", err)
	}
	cmd.Println("protocol version matches server")

	ans, err := session.Exchange(bridge.NewGetDeviceInfoRequest())
	if err != nil {
		return fmt.Errorf("get device info: %w", err)
	}
	info, err := ans.DeviceInfo()
	if err != nil {
		return fmt.Errorf("decode device info: %w", err)
	}
	cmd.Printf("hardware_version=%d firmware_version=%d\n", info.HardwareVersion, info.FirmwareVersion)
	return nil
}
