// Command cfftrend computes the county birth, fertility and under-5 trend files.
//
//	cfftrend [-config cff.yaml] [-env .env] births|fertility|under5|all
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/invertedv/censusdf/config"
	"github.com/invertedv/censusdf/pipeline"
)

func main() {
	cfgFile := flag.String("config", "", "YAML configuration file; defaults are used if empty")
	envFile := flag.String("env", "", ".env file to load before reading the environment")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] births|fertility|under5|all\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}

	cfg, e := config.Load(*cfgFile, envFiles...)
	if e != nil {
		log.Fatal(e)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if e := pipeline.Run(ctx, cfg, flag.Arg(0), os.Stdout); e != nil {
		stop()
		log.Fatal(e)
	}
}
