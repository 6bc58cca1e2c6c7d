package providers

const (
	// Identifier for ipinfo.io.
	NameIPInfo = "ipinfo"

	// Identifier for ipstack.com
	NameIPStack = "ipstack"

	// Identifier for local MaxMind databases in mmdb format.
	NameMaxmind = "maxmind"
)
