// VyPR
// Copyright (C) 2018-2026+ Joshua Dawes and the VyPR contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Command vypr is a standalone harness that loads a configuration file,
// starts a verification context, and runs until interrupted: the thin
// process boundary that wires everything else in this repository together.
// The --dump-dir value is only reported in the startup log; the harness
// registers no properties and loads no binding-space dumps itself.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"

	"github.com/joshdawes/vypr/config"
	"github.com/joshdawes/vypr/sink"
	"github.com/joshdawes/vypr/util"
	"github.com/joshdawes/vypr/verification"
)

type args struct {
	Config  string `arg:"--config,required" help:"path to the YAML configuration file"`
	DumpDir string `arg:"--dump-dir,required" help:"directory of module-*-function-*-property-*.dump binding-space artifacts"`
}

func (args) Version() string {
	return "vypr dev build"
}

func main() {
	var parsed args
	arg.MustParse(&parsed)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	logf := util.PrefixLogf(logger, "vypr: ")

	cfg, err := config.Load(parsed.Config)
	if err != nil {
		logf("failed to load configuration: %v", err)
		os.Exit(1)
	}

	httpSink := sink.NewHTTPClient(cfg.VerdictServerURL, nil, util.PrefixLogf(logger, "vypr: sink: "))
	httpSink.Verbose = cfg.Verbose
	ctx := verification.New(cfg, httpSink, util.PrefixLogf(logger, "vypr: verification: "))

	if err := httpSink.Ping(); err != nil {
		ctx.MarkInitialisationFailed()
	}

	ctx.Start()
	logf("monitoring started (binding-space directory %s, not loaded by this harness)", parsed.DumpDir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logf("shutting down")
	ctx.EndMonitoring()
	httpSink.Wait()
}
