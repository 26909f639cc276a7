/*
Package api defines the HTTP wire format of the pool registry service.

It is shared by the server (package httpserver) and the client
(package api/clients):

  - request and response bodies for every registry operation
  - the caller authentication scheme
  - the server configuration

# Caller Authentication

Mutating requests carry three headers:

	X-Caller-Timestamp: 1718000000
	X-Caller-Nonce: 6f1c0e52-8a0b-4b43-9c47-2f4e0d3b1a55
	X-Caller-Signature: 0x<65-byte secp256k1 signature>

The signature covers

	METHOD + " " + PATH + "\n" + TIMESTAMP + "\n" + NONCE + "\n" + BODY

hashed as an EIP-191 personal message. The address recovered from the
signature is the caller identity the registry authorizes against its keeper
and safe. Requests older or newer than MaxClockSkew are rejected, and the
server refuses a nonce it has already accepted from the same caller, so a
signed request takes effect at most once.

Reads are unauthenticated.

# Errors

Failures are returned as ErrorResponse. Code carries the registry error kind
(for example "Unauthorized" or "OutOfRange") so clients can map it back to
the sentinel errors of package interfaces.
*/
package api
