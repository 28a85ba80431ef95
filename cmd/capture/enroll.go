package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/veriface/internal/domain"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll [employee-id]",
	Short: "Capture a face and enroll this device for the given employee",
	Args:  cobra.ExactArgs(1),
	RunE:  runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)

	enrollCmd.Flags().String("email", "", "Employee email passed to the backend")
}

func runEnroll(cmd *cobra.Command, args []string) error {
	employeeID := args[0]
	email, _ := cmd.Flags().GetString("email")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	result, err := a.runCapture(cmd.Context())
	if err != nil {
		return err
	}

	outcome, err := a.service.Enroll(cmd.Context(), *result, employeeID, email)
	if err != nil {
		if domain.IsConflict(err) {
			fmt.Fprintf(cmd.OutOrStdout(), "enrollment rejected: %s\n", domain.Classification(err))
			if outcome != nil && outcome.Preserved != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "previous device credential kept, login still works")
			}
			return nil
		}
		if errors.Is(err, domain.ErrNoFaceEvidence) {
			return fmt.Errorf("capture produced no usable face evidence, try again")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "enrolled employee %s on this device\n", employeeID)
	return nil
}
