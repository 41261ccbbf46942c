package config

const (
	defaultLogDir             = "~/.local/share/funbatch/logs"
	defaultStashURL           = "http://localhost:9999"
	defaultSessionCookieName  = "session"
	defaultStashTimeout       = 60
	defaultStashPageSize      = 200
	defaultPython             = "python3"
	defaultODMode             = "current"
	defaultWorkers            = 1
	defaultStderrExcerptLimit = 2000
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir: defaultLogDir,
		},
		Stash: Stash{
			URL:               defaultStashURL,
			SessionCookieName: defaultSessionCookieName,
			RequestTimeout:    defaultStashTimeout,
			PageSize:          defaultStashPageSize,
		},
		FunGen: FunGen{
			Python: defaultPython,
			ODMode: defaultODMode,
		},
		Batch: Batch{
			Workers:            defaultWorkers,
			StderrExcerptLimit: defaultStderrExcerptLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
