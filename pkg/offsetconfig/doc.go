/*
Package offsetconfig loads, migrates and saves versioned configuration files.

A configuration is any type implementing Config. Its exported fields are what
ends up in the file:

	type Settings struct {
		Greeting string  `json:"greeting"`
		Count    float64 `json:"count"`
	}

	func (*Settings) ID() string   { return "settings" }
	func (*Settings) Version() int { return 1 }

	func (*Settings) Datafixers() []offsetconfig.Datafixer {
		return []offsetconfig.Datafixer{
			// 0 -> 1
			func(doc *document.Document, s *document.Serializer) error {
				doc.Rename("hi", "greeting")
				doc.Put("count", float64(doc.Int("nice", 0)))
				doc.Remove("nice")
				return nil
			},
		}
	}

Optional interfaces change the defaults: Pather and Extensioner the file
location (config/{id}.json), Migrator the datafixers, BeforeLoader runs before
the file is read and SerializerConfigurer customizes the serializer.

# Lifecycle

	manager := offsetconfig.NewManager()
	holder := offsetconfig.Register(manager, func() *Settings {
		return &Settings{Greeting: "Hello, World!", Count: 69}
	}, offsetconfig.Stderr)

	fmt.Println(holder.Get().Greeting)

Initialize registers the holder, loads the file when it exists and then saves
it, so a file at the current version is always on disk afterwards. Load reads
the file, and when the stored version (the "!!!version" key) differs from
Version it copies the file to a backup-{timestamp}-{name} sibling and runs
datafixers[stored:current] in order before decoding. A decode that fails
strictly is reported and retried leniently, keeping whatever fields fit. A
migrated file is saved again straight away.

Nothing is returned to the caller. Every problem is reported to the holder's
ErrorHandler as one of the error types in this package; IsWarning tells the
ones the Manager carried on after apart from the ones that stopped it. Errors
returned from BeforeLoad or a datafixer abort the load and leave the held
config untouched.

# Lookup

Holders are registered by id. Get returns the untyped Handle and Lookup the
typed holder:

	if h, ok := offsetconfig.Lookup[*Settings](manager, "settings"); ok {
		fmt.Println(h.Get().Count)
	}

Lookup with the wrong type reports a TypeMismatchError and returns false.

# Concurrency

Initialize, Load and Save on the same id are serialized by a per-id lock.
Holder.Get may be called at any time; the held value is swapped in a single
write.

# Watching

Watch reloads holders when their files are edited outside the process:

	stop, err := manager.Watch(ctx)
	if err != nil {
		return err
	}
	defer stop()
*/
package offsetconfig
