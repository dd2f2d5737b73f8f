package configs

import (
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// DatabasePath should be run after viper has read the config file. An empty
// database.path means the sqlite file under the XDG data directory.
func DatabasePath() string {
	if p := viper.GetString("database.path"); p != "" {
		return p
	}
	return filepath.Join(xdg.DataHome, appName, "ricecall.sqlite")
}
