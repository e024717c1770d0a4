package offsetconfig_test

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/offsetmonkey538/offsetconfig/internal/storage"
	"github.com/offsetmonkey538/offsetconfig/pkg/document"
	"github.com/offsetmonkey538/offsetconfig/pkg/event"
	"github.com/offsetmonkey538/offsetconfig/pkg/offsetconfig"
)

var _ = Describe("Manager", func() {
	var (
		dir     string
		manager *offsetconfig.Manager
		rep     *reports
		disk    *storage.Disk
	)

	readDoc := func(path string) *document.Document {
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		doc, err := document.FormatFor(path).Parse(data)
		Expect(err).NotTo(HaveOccurred())
		return doc
	}

	writeFile := func(path, content string) {
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		rep = &reports{}
		disk = storage.New()
		manager = offsetconfig.NewManager(offsetconfig.WithDir(dir))
	})

	Describe("Initialize", func() {
		It("writes defaults when no file exists", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			path := filepath.Join(dir, "test.json")

			Expect(h.Get().Greeting).To(Equal("Hello, World!"))
			doc := readDoc(path)
			Expect(doc.String("greeting", "")).To(Equal("Hello, World!"))
			Expect(doc.Float("count", 0)).To(Equal(69.0))
			Expect(doc.Int(offsetconfig.VersionKey, -1)).To(Equal(1))
			Expect(doc.Comment(offsetconfig.VersionKey)).To(Equal(offsetconfig.VersionComment))
			Expect(rep.Errors()).To(BeEmpty())
		})

		It("migrates a legacy file, backs it up and rewrites it", func() {
			path := filepath.Join(dir, "test.json")
			legacy := `{"hi":"Hi!","nice":42}`
			writeFile(path, legacy)

			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			Expect(h.Get().Greeting).To(Equal("Hi!"))
			Expect(h.Get().Count).To(Equal(42.0))
			Expect(rep.Errors()).To(BeEmpty())

			doc := readDoc(path)
			Expect(doc.Int(offsetconfig.VersionKey, -1)).To(Equal(1))
			Expect(doc.Has("hi")).To(BeFalse())
			Expect(doc.Has("nice")).To(BeFalse())

			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(1))
			data, err := os.ReadFile(backups[0].Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(legacy))
		})

		It("replaces a holder registered under the same id", func() {
			first := offsetconfig.NewHolder(newGreetingConfig, rep.Handler())
			second := offsetconfig.NewHolder(newGreetingConfig, rep.Handler())
			manager.Initialize(first)
			manager.Initialize(second)

			h, ok := manager.Get("test")
			Expect(ok).To(BeTrue())
			Expect(h).To(BeIdenticalTo(second))

			manager.Load(first)
			Expect(rep.Errors()).To(ContainElement(BeAssignableToTypeOf(&offsetconfig.UninitializedError{})))
		})

		It("runs BeforeLoad before looking for the file", func() {
			legacy := filepath.Join(dir, "old", "relocated.json")
			path := filepath.Join(dir, "new", "relocated.json")
			writeFile(legacy, `{"name":"moved"}`)

			h := offsetconfig.Register(manager, func() *relocatingConfig {
				return &relocatingConfig{Name: "default", legacy: legacy, path: path}
			}, rep.Handler())

			Expect(h.Get().Name).To(Equal("moved"))
			Expect(legacy).NotTo(BeAnExistingFile())
			Expect(readDoc(path).String("name", "")).To(Equal("moved"))
		})

		It("backs the file up before saving over it when BeforeLoad fails", func() {
			path := filepath.Join(dir, "relocated.json")
			writeFile(path, `{"name":"on disk"}`)
			hookErr := errors.New("legacy file is locked")

			h := offsetconfig.Register(manager, func() *relocatingConfig {
				return &relocatingConfig{Name: "default", path: path, hookErr: hookErr}
			}, rep.Handler())

			Expect(h.Get().Name).To(Equal("default"))
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var hookError *offsetconfig.HookError
			Expect(errors.As(errs[0], &hookError)).To(BeTrue())
			Expect(errors.Is(errs[0], hookErr)).To(BeTrue())
			Expect(readDoc(path).String("name", "")).To(Equal("default"))

			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(1))
			Expect(readDoc(backups[0].Path).String("name", "")).To(Equal("on disk"))
		})

		It("backs up a file with a negative version before saving defaults", func() {
			path := filepath.Join(dir, "test.json")
			writeFile(path, `{"greeting":"user data","!!!version":-1}`)

			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			Expect(h.Get().Greeting).To(Equal("Hello, World!"))
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var migration *offsetconfig.MigrationError
			Expect(errors.As(errs[0], &migration)).To(BeTrue())
			Expect(migration.From).To(Equal(-1))
			Expect(migration.To).To(Equal(1))

			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(1))
			Expect(readDoc(backups[0].Path).String("greeting", "")).To(Equal("user data"))
			Expect(readDoc(path).Int(offsetconfig.VersionKey, -1)).To(Equal(1))
		})

		It("backs up a malformed file before saving defaults", func() {
			path := filepath.Join(dir, "test.json")
			writeFile(path, `{"greeting": "user data" oops}`)

			offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			var syntax *offsetconfig.SyntaxError
			Expect(errors.As(rep.Errors()[0], &syntax)).To(BeTrue())
			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(1))
			data, err := os.ReadFile(backups[0].Path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"greeting": "user data" oops}`))
		})
	})

	Describe("Load", func() {
		It("runs exactly the datafixers between the stored and current version, in order", func() {
			rec := &stepRecorder{}
			path := filepath.Join(dir, "steps.json")
			writeFile(path, `{}`)

			h := offsetconfig.Register(manager, stepFactory(3, rec.fixers(3)), rep.Handler())

			Expect(rec.Calls()).To(Equal([]int{0, 1, 2}))
			Expect(h.Get().Steps).To(Equal([]string{"0->1", "1->2", "2->3"}))
			Expect(readDoc(path).Int(offsetconfig.VersionKey, -1)).To(Equal(3))
		})

		It("starts from the stored version", func() {
			rec := &stepRecorder{}
			writeFile(filepath.Join(dir, "steps.json"), `{"steps":["0->1"],"!!!version":1}`)

			h := offsetconfig.Register(manager, stepFactory(3, rec.fixers(3)), rep.Handler())

			Expect(rec.Calls()).To(Equal([]int{1, 2}))
			Expect(h.Get().Steps).To(Equal([]string{"0->1", "1->2", "2->3"}))
		})

		It("does not back up or migrate a current file", func() {
			rec := &stepRecorder{}
			path := filepath.Join(dir, "steps.json")
			writeFile(path, `{"steps":["kept"],"!!!version":3}`)

			h := offsetconfig.Register(manager, stepFactory(3, rec.fixers(3)), rep.Handler())

			Expect(rec.Calls()).To(BeEmpty())
			Expect(h.Get().Steps).To(Equal([]string{"kept"}))
			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(BeEmpty())
		})

		It("warns about a newer file, runs no datafixers and restamps it", func() {
			rec := &stepRecorder{}
			path := filepath.Join(dir, "steps.json")
			writeFile(path, `{"steps":["future"],"!!!version":5}`)

			h := offsetconfig.Register(manager, stepFactory(3, rec.fixers(3)), rep.Handler())

			Expect(rec.Calls()).To(BeEmpty())
			Expect(h.Get().Steps).To(Equal([]string{"future"}))

			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var skew *offsetconfig.VersionSkewWarning
			Expect(errors.As(errs[0], &skew)).To(BeTrue())
			Expect(skew.Expected).To(Equal(3))
			Expect(skew.Got).To(Equal(5))
			Expect(offsetconfig.IsWarning(errs[0])).To(BeTrue())

			Expect(readDoc(path).Int(offsetconfig.VersionKey, -1)).To(Equal(3))
			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(1))
		})

		It("treats an out-of-range version as newer, not negative", func() {
			rec := &stepRecorder{}
			writeFile(filepath.Join(dir, "steps.json"), `{"!!!version":1e19}`)

			offsetconfig.Register(manager, stepFactory(3, rec.fixers(3)), rep.Handler())

			Expect(rec.Calls()).To(BeEmpty())
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var skew *offsetconfig.VersionSkewWarning
			Expect(errors.As(errs[0], &skew)).To(BeTrue())
			Expect(skew.Got).To(Equal(math.MaxInt))
		})

		It("falls back to a lenient decode", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			writeFile(filepath.Join(dir, "test.json"), `{"greeting":5,"count":7,"extra":true,"!!!version":1}`)

			manager.Load(h)

			Expect(h.Get()).NotTo(BeNil())
			Expect(h.Get().Greeting).To(Equal("Hello, World!"))
			Expect(h.Get().Count).To(Equal(7.0))

			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var decodeErr *offsetconfig.DecodeError
			Expect(errors.As(errs[0], &decodeErr)).To(BeTrue())
			Expect(decodeErr.Skipped).To(ConsistOf("greeting", "extra"))
			Expect(offsetconfig.IsWarning(errs[0])).To(BeFalse())
		})

		It("keeps the held config on a syntax error", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			h.Get().Greeting = "in memory"
			writeFile(filepath.Join(dir, "test.json"), "{\n  \"greeting\": \"x\",\n  oops\n}")

			manager.Load(h)

			Expect(h.Get().Greeting).To(Equal("in memory"))
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var syntax *document.SyntaxError
			Expect(errors.As(errs[0], &syntax)).To(BeTrue())
			Expect(syntax.Line).To(Equal(3))
		})

		It("reports a missing datafixer before running any", func() {
			rec := &stepRecorder{}
			h := offsetconfig.Register(manager, stepFactory(2, rec.fixers(1)), rep.Handler())
			path := filepath.Join(dir, "steps.json")
			writeFile(path, `{"steps":["legacy"]}`)

			manager.Load(h)

			Expect(rec.Calls()).To(BeEmpty())
			Expect(h.Get().Steps).To(BeEmpty())
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var migration *offsetconfig.MigrationError
			Expect(errors.As(errs[0], &migration)).To(BeTrue())
			Expect(migration.From).To(Equal(0))
			Expect(migration.To).To(Equal(2))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"steps":["legacy"]}`))
			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(1))
		})

		It("aborts on a failing datafixer", func() {
			boom := errors.New("boom")
			rec := &stepRecorder{}
			fixers := rec.fixers(2)
			fixers[1] = func(*document.Document, *document.Serializer) error { return boom }

			h := offsetconfig.Register(manager, stepFactory(2, fixers), rep.Handler())
			writeFile(filepath.Join(dir, "steps.json"), `{}`)
			manager.Load(h)

			Expect(rec.Calls()).To(Equal([]int{0}))
			Expect(h.Get().Steps).To(BeEmpty())
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var migration *offsetconfig.MigrationError
			Expect(errors.As(errs[0], &migration)).To(BeTrue())
			Expect(migration.From).To(Equal(1))
			Expect(migration.To).To(Equal(2))
			Expect(errors.Is(errs[0], boom)).To(BeTrue())
		})

		It("rejects holders it does not know", func() {
			h := offsetconfig.NewHolder(newGreetingConfig, rep.Handler())

			manager.Load(h)
			manager.Save(h)

			Expect(rep.Errors()).To(HaveLen(2))
			Expect(rep.Errors()).To(HaveEach(BeAssignableToTypeOf(&offsetconfig.UninitializedError{})))
			Expect(filepath.Join(dir, "test.json")).NotTo(BeAnExistingFile())
		})

		It("reports to an explicit handler", func() {
			other := &reports{}
			h := offsetconfig.NewHolder(newGreetingConfig, rep.Handler())

			manager.LoadWith(h, other.Handler())

			Expect(rep.Errors()).To(BeEmpty())
			Expect(other.Errors()).To(HaveLen(1))
		})

		It("disambiguates backups taken within the same second", func() {
			now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.Local)
			manager = offsetconfig.NewManager(offsetconfig.WithDir(dir), offsetconfig.WithClock(func() time.Time { return now }))
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			path := filepath.Join(dir, "test.json")

			writeFile(path, `{"hi":"first","nice":1}`)
			manager.Load(h)
			writeFile(path, `{"hi":"second","nice":2}`)
			manager.Load(h)

			backups, err := disk.Backups(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(backups).To(HaveLen(2))
			Expect(filepath.Base(backups[0].Path)).To(Equal("backup-2024_05_04-12_00_00_1-test.json"))
			Expect(filepath.Base(backups[1].Path)).To(Equal("backup-2024_05_04-12_00_00-test.json"))
		})
	})

	Describe("Save", func() {
		It("round-trips the held config", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			h.Set(&greetingConfig{Greeting: "Bye", Count: 1.5})
			manager.Save(h)

			h.Reset()
			Expect(h.Get().Greeting).To(Equal("Hello, World!"))

			manager.Load(h)
			Expect(*h.Get()).To(Equal(greetingConfig{Greeting: "Bye", Count: 1.5}))
			Expect(rep.Errors()).To(BeEmpty())
		})

		It("is idempotent", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			path := filepath.Join(dir, "test.json")

			manager.Save(h)
			first, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			manager.Save(h)
			second, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
		})

		It("refuses to save a config that is not an object", func() {
			offsetconfig.Register(manager, func() listConfig { return listConfig{"a"} }, rep.Handler())

			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var shape *offsetconfig.ShapeError
			Expect(errors.As(errs[0], &shape)).To(BeTrue())
			Expect(shape.Got).To(Equal("array"))
			Expect(filepath.Join(dir, "list.json")).NotTo(BeAnExistingFile())
		})

		It("writes YAML for .yaml configs", func() {
			h := offsetconfig.Register(manager, func() *yamlConfig {
				return &yamlConfig{Motd: "yes: no", Ports: []int{25565, 25566}}
			}, rep.Handler())
			path := filepath.Join(dir, "server.yaml")

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("# " + offsetconfig.VersionComment))

			h.Reset()
			h.Get().Motd = "changed"
			manager.Load(h)
			Expect(h.Get().Motd).To(Equal("yes: no"))
			Expect(h.Get().Ports).To(Equal([]int{25565, 25566}))
			Expect(rep.Errors()).To(BeEmpty())
		})

		It("runs configurators before the config's own serializer hook", func() {
			var order []string
			manager.OnConfigure(func(b *document.Builder) { order = append(order, "first") })
			manager.OnConfigure(func(b *document.Builder) { order = append(order, "second") })

			offsetconfig.Register(manager, func() *customConfig {
				return &customConfig{Motd: "hi", order: &order}
			}, rep.Handler())

			Expect(order).To(Equal([]string{"first", "second", "config"}))
			data, err := os.ReadFile(filepath.Join(dir, "custom.json"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(ContainSubstring("// Shown on join"))
		})
	})

	Describe("file system failures", func() {
		var fs *faultyFS

		BeforeEach(func() {
			fs = &faultyFS{Disk: storage.New()}
			manager = offsetconfig.NewManager(offsetconfig.WithDir(dir), offsetconfig.WithFileSystem(fs))
		})

		It("reports write failures", func() {
			fs.writeErr = errors.New("read-only file system")
			offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var ioErr *offsetconfig.IOError
			Expect(errors.As(errs[0], &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("write"))
			Expect(ioErr.Path).To(Equal(filepath.Join(dir, "test.json")))
		})

		It("reports mkdir failures", func() {
			fs.mkdirErr = errors.New("permission denied")
			offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			var ioErr *offsetconfig.IOError
			Expect(errors.As(rep.Errors()[0], &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("mkdir"))
		})

		It("keeps the held config on read failures", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			h.Get().Count = 3
			fs.readErr = errors.New("input/output error")

			manager.Load(h)

			Expect(h.Get().Count).To(Equal(3.0))
			var ioErr *offsetconfig.IOError
			Expect(errors.As(rep.Errors()[0], &ioErr)).To(BeTrue())
			Expect(ioErr.Op).To(Equal("read"))
		})

		It("leaves a file alone that it can neither load nor back up", func() {
			fs.copyErr = errors.New("no space left on device")
			path := filepath.Join(dir, "test.json")
			writeFile(path, `{"greeting":"user data","!!!version":-1}`)

			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			Expect(h.Get().Greeting).To(Equal("Hello, World!"))
			errs := rep.Errors()
			Expect(errs).To(HaveLen(2))
			var backupErr *offsetconfig.BackupError
			Expect(errors.As(errs[0], &backupErr)).To(BeTrue())
			var migration *offsetconfig.MigrationError
			Expect(errors.As(errs[1], &migration)).To(BeTrue())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(`{"greeting":"user data","!!!version":-1}`))
		})

		It("migrates anyway when the backup fails", func() {
			fs.copyErr = errors.New("no space left on device")
			writeFile(filepath.Join(dir, "test.json"), `{"hi":"Hi!","nice":42}`)

			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			Expect(h.Get().Greeting).To(Equal("Hi!"))
			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var backupErr *offsetconfig.BackupError
			Expect(errors.As(errs[0], &backupErr)).To(BeTrue())
			Expect(offsetconfig.IsWarning(errs[0])).To(BeTrue())
		})
	})

	Describe("lookup", func() {
		It("returns typed holders", func() {
			registered := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			h, ok := offsetconfig.Lookup[*greetingConfig](manager, "test")
			Expect(ok).To(BeTrue())
			Expect(h).To(BeIdenticalTo(registered))
		})

		It("does not return a holder of another type", func() {
			offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			h, ok := offsetconfig.Lookup[*stepConfig](manager, "test")
			Expect(ok).To(BeFalse())
			Expect(h).To(BeNil())

			errs := rep.Errors()
			Expect(errs).To(HaveLen(1))
			var mismatch *offsetconfig.TypeMismatchError
			Expect(errors.As(errs[0], &mismatch)).To(BeTrue())
			Expect(mismatch.Got.String()).To(Equal("*offsetconfig_test.greetingConfig"))
		})

		It("signals unknown ids without reporting", func() {
			_, ok := offsetconfig.Lookup[*greetingConfig](manager, "missing")
			Expect(ok).To(BeFalse())
			_, ok = manager.Get("missing")
			Expect(ok).To(BeFalse())
			Expect(rep.Errors()).To(BeEmpty())
		})

		It("enumerates holders sorted by id", func() {
			offsetconfig.Register(manager, named("network"), rep.Handler())
			offsetconfig.Register(manager, named("audio"), rep.Handler())
			offsetconfig.Register(manager, named("graphics"), rep.Handler())

			var ids []string
			for _, h := range manager.Holders() {
				ids = append(ids, h.ID())
			}
			Expect(ids).To(Equal([]string{"audio", "graphics", "network"}))
		})

		It("suggests close ids", func() {
			offsetconfig.Register(manager, named("network"), rep.Handler())
			offsetconfig.Register(manager, named("audio"), rep.Handler())

			Expect(manager.Suggest("netwrok")).To(Equal("network"))
			Expect(manager.Suggest("somethingelse")).To(BeEmpty())
		})

		It("is safe to use concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					h := offsetconfig.Register(manager, newGreetingConfig, offsetconfig.Discard)
					manager.Save(h)
					manager.Load(h)
					manager.Holders()
				}()
			}
			wg.Wait()
			Expect(manager.Holders()).To(HaveLen(1))
		})
	})

	Describe("events and metrics", func() {
		It("publishes the lifecycle of a migration", func() {
			bus := event.NewBus()
			defer bus.Close()
			var types []event.EventType
			bus.SubscribeAll(func(e event.Event) { types = append(types, e.Type) })

			reg := prometheus.NewRegistry()
			manager = offsetconfig.NewManager(
				offsetconfig.WithDir(dir),
				offsetconfig.WithBus(bus),
				offsetconfig.WithRegisterer(reg),
			)
			writeFile(filepath.Join(dir, "test.json"), `{"hi":"Hi!","nice":42}`)

			offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			Expect(types).To(Equal([]event.EventType{
				event.BackupCreated,
				event.ConfigMigrated,
				event.ConfigLoaded,
				event.ConfigSaved,
				event.ConfigSaved,
				event.ConfigInitialized,
			}))

			expected := `
# HELP offsetconfig_datafixers_applied_total Total datafixers applied
# TYPE offsetconfig_datafixers_applied_total counter
offsetconfig_datafixers_applied_total{id="test"} 1
# HELP offsetconfig_saves_total Total config saves by outcome
# TYPE offsetconfig_saves_total counter
offsetconfig_saves_total{id="test",result="ok"} 2
`
			Expect(testutil.GatherAndCompare(reg, strings.NewReader(expected),
				"offsetconfig_datafixers_applied_total", "offsetconfig_saves_total")).To(Succeed())
		})
	})

	Describe("Watch", func() {
		It("reloads files edited outside the process", func() {
			manager = offsetconfig.NewManager(offsetconfig.WithDir(dir), offsetconfig.WithWatchDebounce(20*time.Millisecond))
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			stop, err := manager.Watch(ctx)
			Expect(err).NotTo(HaveOccurred())
			defer stop()

			writeFile(filepath.Join(dir, "test.json"), `{"greeting":"Edited","count":1,"!!!version":1}`)

			Eventually(func() string { return h.Get().Greeting }, 2*time.Second, 10*time.Millisecond).Should(Equal("Edited"))
		})

		It("ignores its own writes", func() {
			bus := event.NewBus()
			defer bus.Close()
			var mu sync.Mutex
			loads := 0
			bus.Subscribe(event.ConfigLoaded, func(event.Event) {
				mu.Lock()
				loads++
				mu.Unlock()
			})

			manager = offsetconfig.NewManager(
				offsetconfig.WithDir(dir),
				offsetconfig.WithBus(bus),
				offsetconfig.WithWatchDebounce(20*time.Millisecond),
			)
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			stop, err := manager.Watch(ctx, h)
			Expect(err).NotTo(HaveOccurred())
			defer stop()

			h.Get().Count = 70
			manager.Save(h)

			Consistently(func() int {
				mu.Lock()
				defer mu.Unlock()
				return loads
			}, 200*time.Millisecond, 20*time.Millisecond).Should(BeZero())
		})

		It("stops when the context is cancelled", func() {
			h := offsetconfig.Register(manager, newGreetingConfig, rep.Handler())
			ctx, cancel := context.WithCancel(context.Background())
			stop, err := manager.Watch(ctx, h)
			Expect(err).NotTo(HaveOccurred())

			cancel()
			Eventually(stop).Should(Succeed())
		})
	})

	It("shares one default manager", func() {
		Expect(offsetconfig.Default()).To(BeIdenticalTo(offsetconfig.Default()))
	})
})
