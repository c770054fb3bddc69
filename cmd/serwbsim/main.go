// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// serwbsim simulates a SerWB link: it trains the link with comma words, sends
// a random payload and checks that the receiver got it back intact.
//
// Usage:
//
//	serwbsim [flags]
//
// Flags override the values read from the configuration file.
//
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/db47h/serwb/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if err != pflag.ErrHelp {
			fmt.Fprintf(os.Stderr, "serwbsim: %v\n", err)
		}
		os.Exit(1)
	}
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "serwbsim").Logger()
}

func run(args []string, out io.Writer) error {
	var (
		cfgPath string
		cfg     = config.Default()
	)
	fs := pflag.NewFlagSet("serwbsim", pflag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVarP(&cfgPath, "config", "c", "", "TOML configuration `file`")
	words := fs.IntP("words", "n", cfg.Run.Words, "number of random words to send")
	cycles := fs.Int("train-cycles", cfg.Run.TrainCycles, "maximum training time in clock cycles")
	seed := fs.Int64("seed", cfg.Run.Seed, "payload generator seed")
	byteDelay := fs.Int("byte-delay", cfg.Transport.ByteDelay, "line delay in whole bytes")
	bitDelay := fs.Int("bit-delay", cfg.Transport.BitDelay, "extra line delay in bits [0, 8)")
	ber := fs.Float64("ber", cfg.Transport.BER, "line bit error rate")
	autoAlign := fs.Bool("auto-align", cfg.Link.AutoAlign, "run the bit-slip controller inside the receiver circuit")
	master := fs.Bool("master", cfg.Link.Master, "forward a clock pattern from the transmitter")
	free := fs.Bool("free-running", cfg.Run.FreeRunning, "run transmitter and receiver in their own goroutines")
	tracePath := fs.StringP("trace", "t", cfg.Trace.Path, "record a trace to `file`")
	level := fs.StringP("log-level", "l", cfg.Log.Level, "log level")
	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: serwbsim [flags]\n\nFlags:\n%s", fs.FlagUsages())
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return errors.Errorf("unexpected arguments %q", fs.Args())
	}

	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	// explicit flags override the file
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "words":
			cfg.Run.Words = *words
		case "train-cycles":
			cfg.Run.TrainCycles = *cycles
		case "seed":
			cfg.Run.Seed = *seed
		case "byte-delay":
			cfg.Transport.ByteDelay = *byteDelay
		case "bit-delay":
			cfg.Transport.BitDelay = *bitDelay
		case "ber":
			cfg.Transport.BER = *ber
		case "auto-align":
			cfg.Link.AutoAlign = *autoAlign
		case "master":
			cfg.Link.Master = *master
		case "free-running":
			cfg.Run.FreeRunning = *free
		case "trace":
			cfg.Trace.Path = *tracePath
		case "log-level":
			cfg.Log.Level = *level
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, _ := cfg.LogLevel()
	log := newLogger(out, lvl)

	s := &sim{cfg: cfg, log: log}
	return s.run()
}
