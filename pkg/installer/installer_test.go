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

package installer

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gameyfin/gameyfin-shell/pkg/catalog"
	"github.com/gameyfin/gameyfin-shell/pkg/config"
	"github.com/gameyfin/gameyfin-shell/pkg/downloads"
	"github.com/gameyfin/gameyfin-shell/pkg/prefixes"
	"github.com/gameyfin/gameyfin-shell/pkg/procwatch"
	"github.com/gameyfin/gameyfin-shell/pkg/shortcuts"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPrompter answers prompts with canned responses and records what
// it was asked.
type stubPrompter struct {
	configureBlock  chan struct{}
	entry           catalog.Entry
	cfg             map[string]string
	launcher        string
	gotDefaults     ConfigDefaults
	gotEntries      []catalog.Entry
	entryOK         bool
	cfgOK           bool
	launcherOK      bool
	shortcutsOK     bool
	configureCalled bool
	mu              sync.Mutex
}

func (p *stubPrompter) SelectEntry(_ context.Context, entries []catalog.Entry) (catalog.Entry, bool, error) {
	p.mu.Lock()
	p.gotEntries = entries
	p.mu.Unlock()
	return p.entry, p.entryOK, nil
}

func (p *stubPrompter) ConfigureInstall(_ context.Context, defaults ConfigDefaults) (map[string]string, bool, error) {
	p.mu.Lock()
	p.configureCalled = true
	p.gotDefaults = defaults
	block := p.configureBlock
	p.mu.Unlock()
	if block != nil {
		<-block
	}
	return p.cfg, p.cfgOK, nil
}

func (p *stubPrompter) SelectLauncher(_ context.Context, _ string, _ []string) (string, bool, error) {
	return p.launcher, p.launcherOK, nil
}

func (p *stubPrompter) SelectShortcuts(_ context.Context, paths []string) ([]string, bool, error) {
	return paths, p.shortcutsOK, nil
}

// statusRecorder captures status updates in order.
type statusRecorder struct {
	statuses []Status
	mu       sync.Mutex
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, s)
}

func (r *statusRecorder) last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statuses) == 0 {
		return Status{}
	}
	return r.statuses[len(r.statuses)-1]
}

func (r *statusRecorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.statuses))
	for i, s := range r.statuses {
		out[i] = s.Text
	}
	return out
}

type fixture struct {
	fs       afero.Fs
	inst     *Installer
	prompter *stubPrompter
	status   *statusRecorder
	launched []string
	openedAt []string
	mu       sync.Mutex
}

// exitedWatcher builds watchers whose process is already gone, so the
// first poll reports exit.
func exitedWatcher(pid int32) *procwatch.Watcher {
	return procwatch.New(pid,
		procwatch.WithInterval(time.Millisecond),
		procwatch.WithProbe(func(int32) (bool, error) { return false, nil }),
	)
}

func newFixture(t *testing.T, catalogJSON string) *fixture {
	t.Helper()

	if catalogJSON == "" {
		catalogJSON = "[]"
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(catalogJSON))
	}))
	t.Cleanup(srv.Close)

	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	cache := catalog.NewCache(catalog.NewClient(srv.URL))
	require.NoError(t, cache.Refresh(context.Background()))

	prefixMgr := prefixes.NewManager(fs, "/cfg/prefixes", "/cfg/shortcut_scripts")
	gen := shortcuts.NewGenerator(fs, "/cfg/shortcut_scripts",
		shortcuts.WithTargetDirs("/home/user/Desktop", "/home/user/apps"))

	prompter := &stubPrompter{
		cfg:         map[string]string{"GAMEID": "umu-1302", "STORE": "gog"},
		cfgOK:       true,
		shortcutsOK: true,
	}
	status := &statusRecorder{}

	f := &fixture{
		fs:       fs,
		prompter: prompter,
		status:   status,
	}

	f.inst = New(fs, cfg, cache, prompter, gen, prefixMgr, status.record,
		WithLaunchFunc(func(workingDir, cmdline string) (int32, error) {
			f.mu.Lock()
			f.launched = append(f.launched, cmdline)
			f.mu.Unlock()
			return 4242, nil
		}),
		WithWatcherFactory(exitedWatcher),
		WithOpenFolder(func(path string) {
			f.mu.Lock()
			f.openedAt = append(f.openedAt, path)
			f.mu.Unlock()
		}),
	)
	return f
}

func (f *fixture) writeZip(t *testing.T, path string, members map[string]string) downloads.Record {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range members {
		zf, err := w.Create(name)
		require.NoError(t, err)
		_, err = zf.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, afero.WriteFile(f.fs, path, buf.Bytes(), 0o644))

	return downloads.Record{
		Path:       path,
		Status:     downloads.StatusCompleted,
		TotalBytes: int64(buf.Len()),
	}
}

func TestInstallHappyPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	rec := f.writeZip(t, "/downloads/Arx_Fatalis.zip", map[string]string{
		"arx.exe":  "binary",
		"data.pak": "stuff",
	})

	require.NoError(t, f.inst.Install(context.Background(), rec))

	// The extracted launcher was started with the full environment.
	require.Len(t, f.launched, 1)
	assert.Contains(t, f.launched[0], `PROTONPATH="GE-Proton"`)
	assert.Contains(t, f.launched[0], `WINEPREFIX="/cfg/prefixes/arx_fatalis_pfx"`)
	assert.Contains(t, f.launched[0], `GAMEID="umu-1302"`)
	assert.Contains(t, f.launched[0], `umu-run "/downloads/Arx_Fatalis/arx.exe"`)

	texts := f.status.texts()
	require.GreaterOrEqual(t, len(texts), 2)
	assert.Equal(t, "Starting extraction...", texts[0])
	assert.Contains(t, texts[len(texts)-2], "Running... (")
	assert.Contains(t, texts[len(texts)-1], "Completed (")
}

func TestInstallArchiveMissing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	rec := downloads.Record{Path: "/downloads/nope.zip"}

	err := f.inst.Install(context.Background(), rec)
	require.ErrorIs(t, err, ErrArchiveNotFound)
	assert.Equal(t, "Install failed: File not found", f.status.last().Text)
	assert.False(t, f.prompter.configureCalled)
}

func TestInstallNonZipPath(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	require.NoError(t, afero.WriteFile(f.fs, "/downloads/game.rar", []byte("x"), 0o644))

	err := f.inst.Install(context.Background(), downloads.Record{Path: "/downloads/game.rar"})
	require.ErrorIs(t, err, ErrArchiveNotFound)
	assert.Equal(t, "Install failed: File not found", f.status.last().Text)
}

func TestInstallFailsOnCorruptMember(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	zf, err := w.Create("game.exe")
	require.NoError(t, err)
	_, err = zf.Write([]byte("binary"))
	require.NoError(t, err)

	// The second member is stored uncompressed so its payload can be
	// flipped in place; reading it then fails the checksum.
	zf, err = w.CreateHeader(&zip.FileHeader{Name: "data.pak", Method: zip.Store})
	require.NoError(t, err)
	payload := []byte(strings.Repeat("A", 64))
	_, err = zf.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw := buf.Bytes()
	idx := bytes.Index(raw, payload)
	require.GreaterOrEqual(t, idx, 0)
	raw[idx] ^= 0xFF
	require.NoError(t, afero.WriteFile(f.fs, "/downloads/game.zip", raw, 0o644))

	err = f.inst.Install(context.Background(), downloads.Record{Path: "/downloads/game.zip"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrArchiveNotFound)

	last := f.status.last()
	assert.True(t, strings.HasPrefix(last.Text, "Install failed:"), last.Text)
	assert.False(t, f.prompter.configureCalled)
	assert.Empty(t, f.launched)
}

func TestInstallConfigDeclined(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.prompter.cfgOK = false
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{"game.exe": "x"})

	require.NoError(t, f.inst.Install(context.Background(), rec))
	assert.Equal(t, "Install cancelled by user.", f.status.last().Text)
	assert.Empty(t, f.launched)
}

func TestInstallNoExecutable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{
		"readme.txt": "no binaries here",
	})

	require.NoError(t, f.inst.Install(context.Background(), rec))
	assert.Equal(t, "Install complete, no .exe found.", f.status.last().Text)
	assert.Equal(t, []string{"/downloads/game"}, f.openedAt)
	assert.Empty(t, f.launched)
}

func TestInstallLauncherPromptCancelled(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.prompter.launcherOK = false
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{
		"setup.exe": "x",
		"game.exe":  "y",
	})

	require.NoError(t, f.inst.Install(context.Background(), rec))
	assert.Equal(t, "Install complete, launch cancelled.", f.status.last().Text)
	assert.Empty(t, f.launched)
}

func TestInstallNoLauncherSelected(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.prompter.launcherOK = true
	f.prompter.launcher = ""
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{
		"setup.exe": "x",
		"game.exe":  "y",
	})

	require.NoError(t, f.inst.Install(context.Background(), rec))
	assert.Equal(t, "Install complete, no launcher selected.", f.status.last().Text)
	assert.Empty(t, f.launched)
}

func TestInstallLaunchFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.inst.launch = func(_, _ string) (int32, error) { return 0, nil }
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{"game.exe": "x"})

	err := f.inst.Install(context.Background(), rec)
	require.ErrorIs(t, err, ErrLaunchFailed)
	assert.Equal(t, "Launch failed. Is 'umu-run' installed?", f.status.last().Text)
}

func TestInstallRejectsConcurrentSameArchive(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.prompter.configureBlock = make(chan struct{})
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{"game.exe": "x"})

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- f.inst.Install(context.Background(), rec)
	}()

	// Wait until the first install blocks on the config prompt.
	require.Eventually(t, func() bool {
		f.prompter.mu.Lock()
		defer f.prompter.mu.Unlock()
		return f.prompter.configureCalled
	}, 5*time.Second, 10*time.Millisecond)

	err := f.inst.Install(context.Background(), rec)
	require.ErrorIs(t, err, ErrInstallInProgress)

	close(f.prompter.configureBlock)
	require.NoError(t, <-firstDone)

	// Once finished, the same archive can be installed again.
	f.prompter.configureBlock = nil
	require.NoError(t, f.inst.Install(context.Background(), rec))
}

func TestInstallResolvesCodenameDefaults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `[{"title":"Arx Fatalis","store":"gog","umu_id":"umu-1302"}]`)
	rec := f.writeZip(t, "/downloads/bundle.zip", map[string]string{
		"game.exe":           "x",
		"product_12345.json": `{"id": "arx_fatalis"}`,
	})

	require.NoError(t, f.inst.Install(context.Background(), rec))

	assert.Equal(t, "umu-1302", f.prompter.gotDefaults.GameID)
	assert.Equal(t, "gog", f.prompter.gotDefaults.Store)
	assert.NotEmpty(t, f.prompter.gotDefaults.Stores)
}

func TestInstallFallsBackToTitleSearch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, `[{"title":"Arx Fatalis","store":"gog","umu_id":"umu-1302"}]`)
	rec := f.writeZip(t, "/downloads/Arx_Fatalis.zip", map[string]string{"game.exe": "x"})

	require.NoError(t, f.inst.Install(context.Background(), rec))

	assert.Equal(t, "umu-1302", f.prompter.gotDefaults.GameID)
	assert.Equal(t, "gog", f.prompter.gotDefaults.Store)
}

func TestInstallDefaultsWithoutCatalogMatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	rec := f.writeZip(t, "/downloads/Unknown_Game.zip", map[string]string{"game.exe": "x"})

	require.NoError(t, f.inst.Install(context.Background(), rec))

	assert.Equal(t, DefaultGameID, f.prompter.gotDefaults.GameID)
	assert.Equal(t, DefaultStore, f.prompter.gotDefaults.Store)
}

func TestInstallCreatesShortcutsAfterExit(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	rec := f.writeZip(t, "/downloads/arx.zip", map[string]string{"arx.exe": "x"})

	// Simulate the game's first run writing a desktop file into the
	// new prefix before exiting.
	f.inst.launch = func(_, cmdline string) (int32, error) {
		desktop := "[Desktop Entry]\n" +
			"Name=Arx Fatalis\n" +
			"Path=/cfg/prefixes/arx_pfx/drive_c/games/arx\n" +
			"StartupWMClass=arx.exe\n"
		dir := "/cfg/prefixes/arx_pfx/drive_c/proton_shortcuts"
		if err := afero.WriteFile(f.fs, filepath.Join(dir, "arx.desktop"), []byte(desktop), 0o644); err != nil {
			return 0, err
		}
		return 4242, nil
	}

	require.NoError(t, f.inst.Install(context.Background(), rec))

	// Shortcut landed in both target dirs.
	for _, dir := range []string{"/home/user/Desktop", "/home/user/apps"} {
		exists, err := afero.Exists(f.fs, filepath.Join(dir, "arx.desktop"))
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}

	// Launch config was snapshotted for the prefix manager.
	exists, err := afero.Exists(f.fs, "/cfg/shortcut_scripts/arx/config.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestInstallContextCancelWhileRunning(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	// Process that never exits on its own.
	f.inst.newWatcher = func(pid int32) *procwatch.Watcher {
		return procwatch.New(pid,
			procwatch.WithInterval(time.Millisecond),
			procwatch.WithProbe(func(int32) (bool, error) { return true, nil }),
		)
	}
	rec := f.writeZip(t, "/downloads/game.zip", map[string]string{"game.exe": "x"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- f.inst.Install(ctx, rec)
	}()

	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return len(f.launched) == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestCancelUnknownArchiveIsNoop(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "")
	f.inst.Cancel("/downloads/never-started.zip")
}
