package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/tapcart/internal/device/camera"
	"github.com/abhisek/tapcart/internal/device/pcsc"
	"github.com/abhisek/tapcart/internal/logging"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List cameras and NFC readers the kiosk can use",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log := logging.New(cfg, cmd.ErrOrStderr())

		cam := camera.New(camera.Config{Device: cfg.CameraDevice, Width: cfg.CameraWidth, Height: cfg.CameraHeight}, log)
		ids, err := cam.ListDevices(cmd.Context())
		switch {
		case err != nil:
			fmt.Printf("Cameras: %v\n", err)
		case len(ids) == 0:
			fmt.Println("Cameras: none")
		default:
			fmt.Println("Cameras:")
			for _, id := range ids {
				fmt.Printf("  %s\n", id)
			}
		}

		readers, err := pcsc.New(pcsc.Config{Reader: cfg.NFCReader}, log).Readers()
		switch {
		case err != nil:
			fmt.Printf("NFC readers: %v\n", err)
		case len(readers) == 0:
			fmt.Println("NFC readers: none")
		default:
			fmt.Println("NFC readers:")
			for _, r := range readers {
				fmt.Printf("  %s\n", r)
			}
		}
		return nil
	},
}
