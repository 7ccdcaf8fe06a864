// Package admin assembles an explicit, guarded admin subtree (http.Handler) for hot state.
//
// admin wires the handlers of package ops into a single net/http subtree handler.
// Mount it anywhere in your existing HTTP stack:
//
//	mux := http.NewServeMux()
//	mux.Handle("/-/", http.StripPrefix("/-", admin.New(...)))
//	mux.Handle("/", yourBusinessHandler)
//
// # Quick start
//
//	tokens := hot.NewSource([]string{"s3cr3t"})
//	guard := admin.HotTokens(tokens)
//	h := admin.New(
//		admin.EnableHotSnapshot(admin.HotSnapshotSpec{Guard: guard, Registry: hot.Default()}),
//		admin.EnableHotSet(admin.HotSetSpec{
//			Guard:    guard,
//			Registry: hot.Default(),
//			Access:   admin.HotAccessSpec{AllowPrefixes: []string{"feature."}},
//		}),
//		admin.EnableReload(admin.ReloadSpec{Guard: guard, Reloader: rl}),
//	)
//
// # Rules
//
// Nothing is mounted unless explicitly enabled via EnableXxx options, and every enabled
// capability must have a non-nil Guard. Each capability is identified by its path.
//
// Invalid configuration is an assembly error and panics, including:
//   - nil Guard, Registry or Reloader
//   - invalid Path
//   - duplicated Path
//
// Write endpoints are fail-closed: EnableHotSet with an empty HotAccessSpec denies every key.
//
// Handler panics are recovered and answered with HTTP 500.
package admin
