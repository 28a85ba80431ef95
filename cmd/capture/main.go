// Command capture is the development harness for the attendance pipeline.
// It runs the capture loop against the scripted sensor stack and drives the
// enrollment and login flows against a backend, so the whole stack can be
// exercised without a device build.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run the face capture and attendance flows from the terminal",
	Long: `The capture harness runs the on-device capture pipeline with a
scripted camera and detector, then optionally submits the result to the
attendance backend for enrollment or login.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
