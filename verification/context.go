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

// Package verification wires configuration, the event consumer, the
// verdict sink, and loaded binding spaces together into the single
// top-level object a host application holds for the lifetime of a
// monitoring session: one object that owns every sub-component and exposes
// start/stop lifecycle methods called from the process entrypoint.
package verification

import (
	"sync"
	"time"

	"github.com/joshdawes/vypr/bindingspace"
	"github.com/joshdawes/vypr/config"
	"github.com/joshdawes/vypr/formula"
	"github.com/joshdawes/vypr/monitor"
	"github.com/joshdawes/vypr/sink"
)

// Context owns a monitoring session end to end.
type Context struct {
	Config   config.Config
	Consumer *monitor.Consumer
	Sink     sink.Client
	Logf     func(format string, v ...interface{})

	ntp *monitor.NTPClient

	mu                   sync.Mutex
	initialisationFailed bool
	started              bool
}

// New builds a Context from cfg, wiring a Consumer over sinkClient. If
// cfg.NTPServer is set, an NTPClient is created, queried lazily the first
// time GetTime is called.
func New(cfg config.Config, sinkClient sink.Client, logf func(format string, v ...interface{})) *Context {
	ctx := &Context{
		Config: cfg,
		Sink:   sinkClient,
		Logf:   logf,
	}
	ctx.Consumer = monitor.NewConsumer(sinkClient, logf, ctx.nowNanos)
	ctx.Consumer.MachineID = cfg.MachineID
	ctx.Consumer.TestMode = cfg.IsTestMode()
	if cfg.NTPServer != "" {
		ctx.ntp = monitor.NewNTPClient(cfg.NTPServer, logf)
	}
	return ctx
}

func (c *Context) nowNanos() int64 { return c.GetTime().UnixNano() }

func (c *Context) logf(format string, v ...interface{}) {
	if c.Logf != nil {
		c.Logf(format, v...)
	}
}

// MarkInitialisationFailed records that the initial ping to the verdict
// server failed. Every later SendEvent/control call becomes a no-op: the
// host application continues running without monitoring rather than
// crashing.
func (c *Context) MarkInitialisationFailed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialisationFailed = true
	c.logf("verification: sink unavailable at startup, monitoring disabled for this process")
}

func (c *Context) failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialisationFailed
}

// LoadProperty loads the binding-space dump for (module, function,
// propertyHash) out of dumpDir and registers a fresh PropertyMapGroup for
// it against structure.
func (c *Context) LoadProperty(dumpDir, module, function, propertyHash string, structure formula.Structure) error {
	bindings, err := bindingspace.Load(dumpDir, module, function, propertyHash)
	if err != nil {
		return err
	}
	c.Consumer.RegisterProperty(propertyHash, monitor.NewPropertyMapGroup(structure, bindings))
	return nil
}

// Start launches the consumer's background worker. It is safe to call at
// most once per Context.
func (c *Context) Start() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.Consumer.Run()
}

// GetTime returns the current wall-clock time, corrected by the configured
// NTP offset if one could be obtained.
func (c *Context) GetTime() time.Time {
	if c.ntp == nil {
		return time.Now()
	}
	return time.Now().Add(c.ntp.Offset())
}

// SendEvent forwards ev to the consumer, unless initialisation has already
// failed (in which case it's a documented no-op).
func (c *Context) SendEvent(ev monitor.Event) {
	if c.failed() {
		return
	}
	c.Consumer.Submit(ev)
}

// EndMonitoring requests the consumer's background worker to stop, then
// waits for every event submitted so far (including this one) to drain.
// Shutdown is cooperative: the worker is joined here rather than forcibly
// interrupted.
func (c *Context) EndMonitoring() {
	if c.failed() {
		return
	}
	c.Consumer.Submit(monitor.Event{Kind: monitor.KindEndMonitoring})
	c.Consumer.Drain()
}

// PauseMonitoring and ResumeMonitoring translate directly to queue control
// messages; a host framework's pause-monitoring/resume-monitoring control
// endpoints call them.
func (c *Context) PauseMonitoring() {
	if c.failed() {
		return
	}
	c.Consumer.Submit(monitor.Event{Kind: monitor.KindInactiveMonitoringStart})
}

func (c *Context) ResumeMonitoring() {
	if c.failed() {
		return
	}
	c.Consumer.Submit(monitor.Event{Kind: monitor.KindInactiveMonitoringStop})
}
