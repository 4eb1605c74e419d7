package sshserver

// Config defines SSH server settings.
type Config struct {
	Addr        string
	HostKeyPath string
	IdlePrompt  string
	// AuthorizedKeysPath restricts logins to the listed public keys. Empty
	// allows anyone to connect.
	AuthorizedKeysPath string
}
