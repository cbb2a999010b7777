package profile

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

const keyringSalt = "lazysnmp-keyring-salt-v1"

// deriveFilePassword returns the passphrase for the file keyring backend:
// stable for one user on one machine, different everywhere else
func deriveFilePassword() (string, error) {
	id := machineID()
	sum := sha256.Sum256([]byte(id + currentUser() + keyringSalt))
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}

func currentUser() string {
	for _, env := range []string{"USER", "USERNAME"} {
		if u := os.Getenv(env); u != "" {
			return u
		}
	}
	return fmt.Sprintf("uid-%d", os.Getuid())
}

// machineID falls back to the hostname whenever the platform lookup fails
func machineID() string {
	var id string
	switch runtime.GOOS {
	case "linux":
		id = readFirst("/etc/machine-id", "/var/lib/dbus/machine-id")
	case "darwin":
		id = commandField([]string{"ioreg", "-rd1", "-c", "IOPlatformExpertDevice"}, "IOPlatformUUID")
	case "windows":
		id = commandField([]string{"wmic", "csproduct", "get", "UUID"}, "")
	}
	if id == "" {
		id, _ = os.Hostname()
	}
	return id
}

func readFirst(paths ...string) string {
	for _, p := range paths {
		if data, err := os.ReadFile(p); err == nil {
			if id := strings.TrimSpace(string(data)); id != "" {
				return id
			}
		}
	}
	return ""
}

// commandField runs argv and extracts a value from its output. With a key it
// returns the right side of the first `key = value` line; without one it
// returns the first non-header line.
func commandField(argv []string, key string) string {
	out, err := exec.Command(argv[0], argv[1:]...).Output()
	if err != nil {
		return ""
	}
	for i, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if key == "" {
			if i > 0 && line != "" {
				return line
			}
			continue
		}
		if !strings.Contains(line, key) {
			continue
		}
		if _, v, ok := strings.Cut(line, "="); ok {
			return strings.Trim(strings.TrimSpace(v), `"`)
		}
	}
	return ""
}
