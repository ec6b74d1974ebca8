package main

import (
	"log"
	"os"
)

func main() {
	reportStatus()
}

func reportStatus() {
	panic("sampling failed") // want "found usage of panic"

	log.Fatal("sampling failed") // want "found usage of log.Fatal outside of main function"

	os.Exit(1) // want "found usage of os.Exit outside of main function"
}
