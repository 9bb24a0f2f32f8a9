// Package files provides file system operations and discovery utilities
// for the workbook ingestor.
//
// Discovery lists files matching a filename prefix and picks the most
// recently modified one. Manager deletes regular files and creates
// directories.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/home/ana/Downloads")
//	matches, err := discovery.FindFilesByPrefix("", "CONSULTA_TLP_PCP_CS")
//	latest, ok := files.GetLatestFile(matches)
//
//	manager := files.NewManager(logger)
//	err = manager.DeleteFile(latest.Path)
package files
