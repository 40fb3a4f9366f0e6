package main

import (
	"errors"
	"log"
	"os"

	"github.com/coscon/cop-sdk-go/cmd/copctl/cli"
)

type ExitCoder interface {
	error
	ExitCode() int
}

func main() {
	log.SetFlags(0)

	if err := cli.New().Execute(); err != nil {
		var ec ExitCoder
		if errors.As(err, &ec) {
			log.Printf("copctl: %v", err)
			os.Exit(ec.ExitCode())
		}

		log.Fatalf("copctl: %v", err)
	}
}
