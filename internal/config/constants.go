package config

// Application constants
const (
	AppName    = "sigitm"
	AppVersion = "1.0.0"

	// DefaultPrefix is the filename prefix of the ticket export workbooks
	DefaultPrefix = "CONSULTA_TLP_PCP_CS"

	// DownloadsFolder is the conventional downloads folder name under the home directory
	DownloadsFolder = "Downloads"
)
