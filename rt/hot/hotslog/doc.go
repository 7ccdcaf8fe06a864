// Package hotslog binds a hot log level to log/slog.
//
// The level lives in a hot.Source[string] registered in a hot.Registry, so ops tooling
// can change it with Registry.SetFromString while a *slog.LevelVar follows along.
package hotslog
