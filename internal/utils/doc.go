// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses ConfigurationLoader (Viper with embedded defaults and environment
// overrides), LoggerFactory (zap in structured or console encoding), and
// PathExpander for configured filesystem paths.
package utils
