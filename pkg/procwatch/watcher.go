// Gameyfin Shell
// Copyright (c) 2026 The Gameyfin Shell Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Gameyfin Shell.
//
// Gameyfin Shell is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gameyfin Shell is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gameyfin Shell.  If not, see <http://www.gnu.org/licenses/>.

// Package procwatch observes a running process by PID and signals when
// it exits. Watching is observation only; stopping a watcher never
// touches the process itself.
package procwatch

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

const defaultInterval = 1 * time.Second

// ProbeFunc reports whether a process with the given PID exists.
type ProbeFunc func(pid int32) (bool, error)

// Watcher polls a PID until the process exits.
type Watcher struct {
	clock    clockwork.Clock
	probe    ProbeFunc
	done     chan struct{}
	stop     chan struct{}
	interval time.Duration
	pid      int32
	stopOnce sync.Once
}

type Option func(*Watcher)

func WithClock(clock clockwork.Clock) Option {
	return func(w *Watcher) { w.clock = clock }
}

func WithInterval(interval time.Duration) Option {
	return func(w *Watcher) { w.interval = interval }
}

func WithProbe(probe ProbeFunc) Option {
	return func(w *Watcher) { w.probe = probe }
}

func New(pid int32, opts ...Option) *Watcher {
	w := &Watcher{
		pid:      pid,
		interval: defaultInterval,
		clock:    clockwork.NewRealClock(),
		probe:    process.PidExists,
		done:     make(chan struct{}),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Done is closed when the watched process is observed to have exited.
// It is never closed for an invalid PID or a stopped watcher.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

// Stop halts polling. The watched process is left running.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
	})
}

// Start begins polling in a new goroutine.
func (w *Watcher) Start() {
	if w.pid <= 0 {
		log.Warn().Int32("pid", w.pid).Msg("not watching invalid pid")
		return
	}
	go w.run()
}

func (w *Watcher) run() {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	log.Debug().Int32("pid", w.pid).Msg("watching process")

	for {
		select {
		case <-w.stop:
			log.Debug().Int32("pid", w.pid).Msg("process watcher stopped")
			return
		case <-ticker.Chan():
			alive, err := w.probe(w.pid)
			if err != nil {
				log.Warn().Err(err).Int32("pid", w.pid).Msg("process probe failed")
				continue
			}
			if !alive {
				log.Info().Int32("pid", w.pid).Msg("process exited")
				close(w.done)
				return
			}
		}
	}
}
