// Package server provides HTTP routing, middleware, the album API and the purchase return handler.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger], [CORS] and [Recover] are the stock middleware.
//
// The [BasicRouter] implementation registers method patterns on [http.ServeMux].
//
// # Album API
//
//	GET /health       → liveness plus the catalog source and fallback status
//	GET /albums       → album summaries with the persisted purchase flag
//	GET /albums/{id}  → one album with tracks, state (LOCKED_PREVIEW/UNLOCKED) and purchase label
//
// # Purchase Return Handler
//
// [PurchaseHandler] stands in for the payment provider's redirect back to the app.
// It validates the random state token and album id, delivers exactly one [PurchaseResult]
// on a channel and ignores later requests.
//
// # Current Usage
//
// The serve command mounts the API. The purchase command with --wait starts a temporary
// server, waits for the return request and shuts down after the first result.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
