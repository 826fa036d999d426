// Package ui renders command lifecycle events as short console messages.
//
// Detailed telemetry keeps flowing through the structured executor logs; the
// console logger only echoes what a person watching a CI job needs to see.
package ui
