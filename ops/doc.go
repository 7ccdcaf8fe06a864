// Package ops provides small, standard-library flavored net/http handlers that expose
// hot state to operators.
//
// ops is designed to be mounted into your own routing tree. It intentionally:
//   - does not choose routing paths (mount it anywhere),
//   - does not do authn/authz decisions (protect it with your own middleware),
//   - does not start servers or manage process lifecycle.
//
// # Formats
//
// Every handler supports both text and JSON output. By default they render text.
// The default can be configured by options, and can be overridden per request by URL query:
//   - ?format=text
//   - ?format=json
//
// Text output is line-based and stable/greppable. JSON output is structured and suitable for tooling.
//
// # What ops provides
//
//   - registry: HotSnapshotHandler, HotLookupHandler, HotSetHandler (rt/hot integration)
//   - reload: ReloadTriggerHandler, ReloadStatsHandler (rt/hot/hotreload integration)
//
// # Security notes
//
// Operational endpoints often expose sensitive information. Mount these handlers behind your own
// authentication/authorization middleware, and restrict write handlers with allowlists such as
// WithHotAllowKeys. Register secrets with hot.WithRedact.
package ops
