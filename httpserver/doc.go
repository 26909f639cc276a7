/*
Package httpserver serves the pool registry over HTTP.

Handler exposes every registry operation under /api (see Handler.Routes for
the route table). Reads are public. Mutations must carry a caller signature
(see package api); Authenticate recovers the caller address and the registry
decides whether that address may perform the operation.

Registry errors map to status codes:

	Unauthorized                              403
	OutOfRange, EmptyRegistry                 404
	FromGreaterThanTo, ZeroAddress,
	NotAContract                              400
	missing or invalid signature,
	reused nonce                              401
	too many outstanding nonces               503
	anything else                             500

Server wraps the handler with request logging, health endpoints
(/livez, /readyz, /drain, /undrain), optional pprof and a Prometheus
metrics listener. After /drain, /readyz answers 503 "draining" for the
configured drain duration and "drained" after it, until /undrain.
*/
package httpserver
