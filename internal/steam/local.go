package steam

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// openURL dispatches a URL to the OS default handler. Overridable in tests.
var openURL = func(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// Local is the interface to the locally installed Steam client.
//
// It reads per-game ACF manifest files from the library's steamapps
// directory to determine install state, and triggers install/uninstall
// actions by opening steam:// protocol URLs via the OS.
type Local struct {
	appsDir string // Path to the Steam library steamapps directory
	logger  *slog.Logger
}

// NewLocal creates a Local pointing at the given steamapps directory
// (e.g. ~/.steam/steam/steamapps).
func NewLocal(appsDir string, logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{appsDir: appsDir, logger: logger}
}

// manifestPath returns the expected ACF manifest file for a game. Steam
// keeps per-game metadata in appmanifest_<id>.acf inside steamapps.
func (l *Local) manifestPath(appID string) string {
	return filepath.Join(l.appsDir, fmt.Sprintf("appmanifest_%s.acf", appID))
}

// IsInstalled reports whether the game is fully installed in this Steam
// library: its manifest exists and its BytesToDownload equals
// BytesDownloaded, meaning no pending download remains.
func (l *Local) IsInstalled(appID string) bool {
	content, err := os.ReadFile(l.manifestPath(appID))
	if err != nil {
		return false
	}

	toDownload, downloaded, ok := parseManifestBytes(string(content))
	return ok && toDownload == downloaded
}

// parseManifestBytes extracts the BytesToDownload and BytesDownloaded
// fields from ACF manifest content. Returns ok=false unless both fields
// are present and numeric.
func parseManifestBytes(content string) (toDownload, downloaded int64, ok bool) {
	var haveToDownload, haveDownloaded bool

	for _, line := range strings.Split(content, "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) < 2 {
			continue
		}

		value := strings.Trim(fields[1], `"`)

		switch fields[0] {
		case `"BytesToDownload"`:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				toDownload = n
				haveToDownload = true
			}
		case `"BytesDownloaded"`:
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				downloaded = n
				haveDownloaded = true
			}
		}

		if haveToDownload && haveDownloaded {
			break
		}
	}

	return toDownload, downloaded, haveToDownload && haveDownloaded
}

// Install triggers installation of a game via the steam://install protocol.
//
// The URL is opened in the OS default handler, which hands control to the
// running Steam client. A nil return means only that the dispatch
// succeeded; the download happens asynchronously inside Steam.
func (l *Local) Install(appID string) error {
	l.logger.Debug("dispatching install", "appID", appID)
	if err := openURL(fmt.Sprintf("steam://install/%s", appID)); err != nil {
		return fmt.Errorf("failed to open steam url: %w", err)
	}
	return nil
}

// Uninstall triggers uninstallation of a game via the steam://uninstall
// protocol. A nil return means only that the dispatch succeeded.
func (l *Local) Uninstall(appID string) error {
	l.logger.Debug("dispatching uninstall", "appID", appID)
	if err := openURL(fmt.Sprintf("steam://uninstall/%s", appID)); err != nil {
		return fmt.Errorf("failed to open steam url: %w", err)
	}
	return nil
}
