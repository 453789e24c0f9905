// Package msgs defines the messages published by the telemetry bridge.
package msgs
