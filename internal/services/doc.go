// Package services exposes the file ingestor, the public entry point that
// locates the newest ticket export, loads and normalizes it, and removes it
// once consumed.
//
// Every public operation converts failures into a ProcessingResult or a
// bool; callers never see an error value from LoadAndNormalize,
// ProcessLatest or DeleteLatest.
package services
