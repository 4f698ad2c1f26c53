// Command daan-secret prints the bcrypt hash to use as DELETE_SECRET_HASH.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"daan/internal/confirm"
)

func main() {
	secret := flag.String("secret", "", "secret to hash; read from stdin when empty")
	flag.Parse()

	s := *secret
	if s == "" {
		fmt.Fprint(os.Stderr, "Delete secret: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "read secret: %v\n", err)
			os.Exit(1)
		}
		s = strings.TrimRight(line, "\r\n")
	}
	if s == "" {
		fmt.Fprintln(os.Stderr, "secret must not be empty")
		os.Exit(1)
	}

	hash, err := confirm.Hash(s)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash secret: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("DELETE_SECRET_HASH=%s\n", hash)
}
