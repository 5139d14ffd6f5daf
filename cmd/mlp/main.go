// Command mlp trains and evaluates feed-forward classifiers on
// whitespace-delimited datasets such as MNIST.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const version = "v0.1.0"

func usage() {
	fmt.Fprintf(os.Stderr, `usage: mlp <command> [flags]

Commands:
  train      Train a model described by a YAML config
  eval       Report the accuracy of a checkpoint on a dataset
  show       Print one dataset sample as a pixel grid
  convert    Convert MNIST IDX files to the text dataset format
  version    Show version
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "train":
		err = runTrain(ctx, args)
	case "eval":
		err = runEval(args, os.Stdout)
	case "show":
		err = runShow(args, os.Stdout)
	case "convert":
		err = runConvert(args)
	case "version":
		fmt.Printf("mlp %s\n", version)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		stop()
		os.Exit(2)
	}
	if err != nil {
		stop()
		log.Fatalf("%s: %v", cmd, err)
	}
}
