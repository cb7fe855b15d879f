package config

import (
	"strings"

	"baskt/internal/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// WatchLogLevel re-applies app.log_level whenever the config file changes on
// disk. Only the log level is hot-reloaded; everything else requires a restart.
func WatchLogLevel(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		level := strings.TrimSpace(v.GetString("app.log_level"))
		if level == "" {
			return
		}
		logger.SetLevel(level)
		logger.Infof("log level reloaded from %s: %s", evt.Name, level)
	})
	v.WatchConfig()
	return nil
}
