/*
Package log provides structured logging for the indexer using zerolog.

It wraps zerolog with a single global Logger, initialized once via
Init(Config), plus a handful of child-logger helpers
(WithComponent, WithCheckpoint, WithTable, WithDigest) that attach
recurring fields without repeating them at every call site:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	committerLog := log.WithComponent("committer")
	committerLog.Info().Uint64("checkpoint", seq).Msg("batch committed")

JSONOutput selects JSON (production) vs a console writer (local
development); Output defaults to os.Stdout when nil. There is no dynamic
reconfiguration — Init is called once at process startup.
*/
package log
