// Package config loads the ingestor configuration.
//
// # Configuration Sources
//
// Values are resolved in this order, later sources winning:
//
//	1. Default() values
//	2. A YAML file passed to Load
//	3. Environment variables prefixed with SIGITM_
//
// # Environment Variables
//
//	SIGITM_INGEST_DIRECTORY=/home/ana/Downloads
//	SIGITM_INGEST_PREFIX=CONSULTA_TLP_PCP_CS
//	SIGITM_INGEST_SHEET=Plan1
//	SIGITM_LOGGING_LEVEL=debug
//	SIGITM_TELEMETRY_ENABLED=true
//
// # YAML
//
//	ingest:
//	  directory: /data/inbox
//	  create_directory: true
//	logging:
//	  output: both
//	  file_path: logs/sigitm.log
//
// The default search directory is the user's downloads folder, see DownloadsDir.
package config
