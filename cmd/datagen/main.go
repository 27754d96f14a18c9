package main

import (
	"flag"
	"log"

	"dispute-resolution-service/internal/datagen"
)

func main() {
	var (
		dir  string
		seed int64
	)
	flag.StringVar(&dir, "dir", "./data", "output directory for the CSV tables")
	flag.Int64Var(&seed, "seed", 42, "generation seed")
	flag.Parse()

	if err := datagen.New(seed).Generate(dir); err != nil {
		log.Fatalf("generate data: %v", err)
	}
	log.Printf("fixture tables written to %s (seed=%d)\n", dir, seed)
}
