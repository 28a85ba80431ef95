package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Capture a face and verify it against the enrolled credential",
	RunE:  runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.runCapture(cmd.Context())
	if err != nil {
		return err
	}

	verdict, err := a.service.Login(cmd.Context(), *result)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotEnrolled):
			return fmt.Errorf("this device is not enrolled, run enroll first")
		case errors.Is(err, domain.ErrCredentialMismatch):
			return fmt.Errorf("device credential no longer matches the backend, re-enroll this device")
		default:
			return err
		}
	}

	if !verdict.Verified {
		fmt.Fprintf(cmd.OutOrStdout(), "not verified (confidence %.2f)\n", verdict.Confidence)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "verified as %s (confidence %.2f)\n", verdict.ExternalID, verdict.Confidence)
	return nil
}
