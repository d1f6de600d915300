package config

var defaults = map[string]any{
	"secret":          "",
	"token_ttl_hours": 24,
	"log_level":       "info",

	"grace_minutes":  10,
	"retention_days": 0,

	"base_url": "/",

	"autocancel.enabled":              true,
	"autocancel.cron":                 "*/3 * * * *",
	"autocancel.grace_seconds":        600,
	"autocancel.lookback_hours":       24,
	"autocancel.tick_timeout_seconds": 60,

	"email.host":     "",
	"email.port":     25,
	"email.username": "",
	"email.password": "",
	"email.from":     "noreply@example.com",

	"storage.type":        "sqlite",
	"storage.sqlite.path": "./data/reservations.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
