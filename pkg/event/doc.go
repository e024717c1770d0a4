/*
Package event provides the pub/sub bus the configuration manager reports
lifecycle changes on.

# Event Types

  - config.initialized: a holder was registered and its file written
  - config.loaded: a file was read and decoded into a holder
  - config.migrated: datafixers advanced a file to the current version
  - config.backup.created: a file was copied aside before migration
  - config.saved: a holder was written to disk

# Basic Usage

	bus := event.NewBus()
	defer bus.Close()

	unsubscribe := bus.Subscribe(event.ConfigMigrated, func(e event.Event) {
		data := e.Data.(event.MigratedData)
		log.Info().Str("id", data.ID).Int("from", data.From).Int("to", data.To).Msg("config migrated")
	})
	defer unsubscribe()

	manager := offsetconfig.NewManager(offsetconfig.WithBus(bus))

The manager publishes with PublishSync, so subscribers run on the goroutine
doing the load or save. Subscribers must not call back into the manager for
the same config; the per-config lock is held while they run.

# Watermill

Every event is also published as a JSON message on the watermill topic named
after its type:

	messages, err := bus.PubSub().Subscribe(ctx, string(event.ConfigSaved))

Each event gets a ULID if the publisher did not set one.
*/
package event
