// Command genkey derives the device key pair for a given install secret and
// device fingerprint, printing the material the backend needs to pre-register
// a kiosk terminal.
package main

import (
	"fmt"
	"os"

	"github.com/saturnino-fabrica-de-software/veriface/internal/credential"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: genkey <install-secret> <device-fingerprint>")
		os.Exit(1)
	}

	keys, err := credential.DeriveKeyPair([]byte(os.Args[1]), os.Args[2])
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Printf("PUBLIC_KEY=%s\nKEY_ID=%s\n", keys.Credential.PublicKey, keys.Credential.KeyID)
}
