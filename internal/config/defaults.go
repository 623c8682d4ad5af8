package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("backend", BackendGemini)

	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")

	v.SetDefault("credential.api_key", "")
	v.SetDefault("credential.env", []string{"SIMPLYREAD_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"})
	v.SetDefault("credential.helper", "")

	v.SetDefault("requests.timeout_seconds", 20)
	v.SetDefault("requests.per_minute", 60)
	v.SetDefault("requests.breaker_failures", 5)
	v.SetDefault("requests.breaker_cooldown_seconds", 30)

	v.SetDefault("ui.banner_dwell_ms", 5000)    // bias banner
	v.SetDefault("ui.affordance_ttl_ms", 10000) // read-aloud button
	v.SetDefault("ui.term_min_length", 10)      // letters before a word is highlighted
	v.SetDefault("ui.double_click_ms", 400)

	v.SetDefault("speech.command", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.file", "")
}
