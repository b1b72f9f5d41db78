// Package logger provides structured logging for compgraph using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers. Engine packages obtain their logger once with
// logger.Get and log spills, merges and run boundaries at debug level.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("extsort")
//	log.Debug("chunk spilled", logger.Fields("rows", n, "path", p))
package logger
