package main

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Generates bcrypt hashes for local seed accounts used in development.
func main() {
	passwords := map[string]string{
		"devadmin":  "Admin123!@#",
		"devtester": "Tester123!@#",
	}

	for user, pass := range passwords {
		hash, err := bcrypt.GenerateFromPassword([]byte(pass), 10)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		fmt.Printf("User: %s\nPassword: %s\nHash: %s\n\n", user, pass, string(hash))
	}
}
