package config

// Defaults applied when the corresponding environment variable is unset
const (
	DefaultPort                     = 8080
	DefaultTicketPriceSUP           = "10"
	DefaultNGNPerSUP                = "100"
	DefaultDailyCapUnverified       = 3
	DefaultDailyCapVerified         = 20
	DefaultLockSweepIntervalSeconds = 60
	DefaultDeadLetterPath           = "logs/dead_letter.jsonl"
	DefaultEventRetentionDays       = 90
)

// Config file paths
const (
	ConfigPathTasks = "configs/tasks.json"
)
