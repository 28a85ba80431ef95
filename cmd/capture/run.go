package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one capture session and print the result",
	Long: `Run the capture loop until a stable centered frame is captured,
then print the capture result as JSON without contacting the backend.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.runCapture(cmd.Context())
	if err != nil {
		return err
	}

	out := map[string]any{
		"faceDetected": result.FaceDetected,
		"faceId":       result.FaceID,
		"hasEmbedding": len(result.FaceEmbedding) > 0,
		"imagePath":    result.ImagePath,
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
