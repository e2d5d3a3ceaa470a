package config

// Auth configures bearer token checks on the RPC surface.
type Auth struct {
	// Enabled requires a valid token on every mutating call.
	Enabled bool `toml:"Enabled"`
	// HMACSecret signs HS256 tokens. HMACSecretEnv names an environment
	// variable that overrides it.
	HMACSecret    string `toml:"HMACSecret"`
	HMACSecretEnv string `toml:"HMACSecretEnv"`
	Issuer        string `toml:"Issuer"`
	Audience      string `toml:"Audience"`
	// AdminScope is the scope required for admin calls such as game_credit.
	AdminScope string `toml:"AdminScope"`
}

// RateLimit bounds requests per client.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Pauses toggles individual game modules off.
type Pauses struct {
	Refinery bool `toml:"Refinery"`
	Fleet    bool `toml:"Fleet"`
	Upgrade  bool `toml:"Upgrade"`
	Market   bool `toml:"Market"`
	Staking  bool `toml:"Staking"`
}

// Quota limits how many calls an address may make against a module per epoch.
type Quota struct {
	MaxActionsPerEpoch uint32 `toml:"MaxActionsPerEpoch"`
	EpochSeconds       uint32 `toml:"EpochSeconds"`
}

// Quotas groups quotas for each module.
type Quotas struct {
	Refinery Quota `toml:"Refinery"`
	Fleet    Quota `toml:"Fleet"`
	Upgrade  Quota `toml:"Upgrade"`
	Market   Quota `toml:"Market"`
	Staking  Quota `toml:"Staking"`
}

// Randomness selects the randomness source.
type Randomness struct {
	// Source is "entropy" (default) or "hashchain". A hashchain needs an
	// operator chosen Seed; its position is stored with the game state.
	Source string `toml:"Source"`
	Seed   string `toml:"Seed"`
}

// Telemetry configures the OTLP exporters.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Metrics  bool   `toml:"Metrics"`
	Traces   bool   `toml:"Traces"`
}
