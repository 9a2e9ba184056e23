// Package logger provides structured logging for injector using zerolog.
//
// Containers log registration, eager initialization, and shutdown through a
// *Logger. The zero configuration writes human-readable console output; JSON
// is selected with format "json".
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("di")
//	log.Info("module loaded", logger.Fields(logger.FieldModule, "storage"))
package logger
