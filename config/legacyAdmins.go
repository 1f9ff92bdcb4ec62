package config

import (
	"os"
	"strings"
)

// LegacyAdmin is a break-glass operator credential configured at startup.
// These identities have no stored user document; the auth layer synthesizes
// an administrator identity for them when they log in.
type LegacyAdmin struct {
	Username string
	Password string
	Name     string
}

// Display names for the operator accounts the legacy frontend shipped with.
var legacyAdminNames = map[string]string{
	"admin":     "System Administrator",
	"collector": "District Collector",
}

// LegacyAdmins parses the LEGACY_ADMIN_CREDENTIALS environment variable,
// a comma-separated list of username:password pairs. The bypass is
// disabled entirely when the variable is unset or empty.
func LegacyAdmins() []LegacyAdmin {
	raw := os.Getenv("LEGACY_ADMIN_CREDENTIALS")
	if raw == "" {
		return nil
	}

	var admins []LegacyAdmin
	for _, pair := range strings.Split(raw, ",") {
		username, password, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || username == "" || password == "" {
			continue
		}
		name := legacyAdminNames[username]
		if name == "" {
			name = username
		}
		admins = append(admins, LegacyAdmin{
			Username: username,
			Password: password,
			Name:     name,
		})
	}
	return admins
}

// LegacyAdminByUsername looks up a configured break-glass credential.
func LegacyAdminByUsername(username string) (LegacyAdmin, bool) {
	for _, admin := range LegacyAdmins() {
		if admin.Username == username {
			return admin, true
		}
	}
	return LegacyAdmin{}, false
}
