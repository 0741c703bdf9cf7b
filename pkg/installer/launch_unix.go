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

//go:build !windows

package installer

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/rs/zerolog/log"
)

// launchDetached runs a launch command line through the shell in its
// own session so it outlives this process. The child is still reaped
// here so PID polling sees the real exit.
func launchDetached(workingDir, cmdline string) (int32, error) {
	cmd := exec.Command("/bin/sh", "-c", cmdline)
	cmd.Dir = workingDir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("error starting launch command: %w", err)
	}

	pid := int32(cmd.Process.Pid) // #nosec G115 - pids fit in int32 on supported platforms

	// Reap the child when it exits, otherwise the zombie keeps its
	// PID visible and process polling never sees it finish.
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Int32("pid", pid).Msg("launch command exited with error")
		}
	}()

	return pid, nil
}
