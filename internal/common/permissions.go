package common

// File permission constants used for config files and clone directories
const (
	// FilePermissionSecure is used for the config file, which may hold webhook secrets
	FilePermissionSecure = 0600

	// FilePermissionNormal is used for generated starter configs
	FilePermissionNormal = 0644

	// DirPermissionSecure is used for the config directory
	DirPermissionSecure = 0700

	// DirPermissionNormal is used for workspace directories
	DirPermissionNormal = 0755
)
