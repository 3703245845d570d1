package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

// Generates a bcrypt hash suitable for ADMIN_PASSWORD, so the plain password
// never has to live in the environment.
// Usage: go run scripts/hash_admin_password.go <password>
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/hash_admin_password.go <password>")
		os.Exit(1)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error generating hash: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Bcrypt Hash: %s\n", string(hashedPassword))
	fmt.Printf("\nSet it in the environment, quoting the $ characters:\n")
	fmt.Printf("ADMIN_PASSWORD='%s'\n", string(hashedPassword))
}
