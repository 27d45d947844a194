package main

import (
	"fmt"
	"log"

	"github.com/openratchet/signal-go/pkg/signal"
)

func main() {
	log.Printf("signal-go version: %s", signal.WrapperVersion())
	log.Printf("engine: %s", signal.EngineVersion())

	if !signal.EngineAvailable() {
		fmt.Println("native engine not built; running on the pure-Go fallback (not wire compatible)")
		return
	}
	fmt.Println("native engine available")
}
