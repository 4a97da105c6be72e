// Package settings stores the runtime configuration the dashboard edits:
// the model endpoint, the system prompt and processing limits. Values live
// in the database so changes apply without a restart.
package settings

// Setting is one key/value configuration row.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

const (
	KeyAPIKey         = "openai_api_key"
	KeyBaseURL        = "openai_base_url"
	KeyModel          = "openai_model"
	KeySystemPrompt   = "system_prompt"
	KeyMaxConcurrent  = "max_concurrent_analysis_tasks"
	KeyTimeoutSeconds = "analysis_timeout_seconds"
)

const (
	DefaultBaseURL        = "https://api.openai.com/v1"
	DefaultMaxConcurrent  = 3
	DefaultTimeoutSeconds = 300
)

// KnownKey reports whether k is a recognized setting key.
func KnownKey(k string) bool {
	switch k {
	case KeyAPIKey, KeyBaseURL, KeyModel, KeySystemPrompt, KeyMaxConcurrent, KeyTimeoutSeconds:
		return true
	}
	return false
}

// SecretKey reports whether the value of k must be masked in API responses.
func SecretKey(k string) bool {
	return k == KeyAPIKey
}
