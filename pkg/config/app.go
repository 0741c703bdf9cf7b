package config

var AppVersion = "DEVELOPMENT"

const (
	AppName     = "gameyfin-shell"
	LogFile     = "shell.log"
	CfgFile     = "config.toml"
	HistoryFile = "downloads.json"
)
