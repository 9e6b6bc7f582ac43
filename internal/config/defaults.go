package config

const (
	// DefaultAPIBase is the GitHub REST API base URL
	DefaultAPIBase = "https://api.github.com"
	// DefaultOAuthBase is the GitHub OAuth base URL
	DefaultOAuthBase = "https://github.com/login/oauth"
	// DefaultConfigFile is looked up in the working directory when --config is not given
	DefaultConfigFile = ".test-viewer.yaml"
	// DefaultStorePath is the JSON file backing the persistent store
	DefaultStorePath = ".test-viewer/store.json"
	// DefaultWorkers is the default number of artifacts ingested in parallel
	DefaultWorkers = 4
	// DefaultMaxArtifactSize skips artifacts larger than 2.5 MiB without fetching them
	DefaultMaxArtifactSize = 5 * 1024 * 1024 / 2
	// DefaultCacheCeiling bounds the serialized size of all cached archives
	DefaultCacheCeiling = 5 * 1024 * 1024
	// DefaultMaxEntrySize bounds decompression of a single archive entry
	DefaultMaxEntrySize = 64 * 1024 * 1024
	// DefaultMaxArchiveInflate bounds decompression across all entries of one archive
	DefaultMaxArchiveInflate = 128 * 1024 * 1024
	// DefaultRelayAddr is the listen address of the OAuth relay
	DefaultRelayAddr = ":8787"
)

// DefaultArtifactKeywords select which artifacts of a run are ingested (case-insensitive substring)
var DefaultArtifactKeywords = []string{
	"junit",
	"test",
}

// DefaultRedirectURIs are the redirect URIs the OAuth relay accepts; the first is used when none is sent
var DefaultRedirectURIs = []string{
	"http://localhost:5173",
	"http://localhost:4173",
}
