/*
Package clients provides a Go client for the pool registry HTTP API.

RegistryClient covers every registry operation. Reads need no key; mutations
are signed with the caller's secp256k1 key, and the server authorizes the
recovered address against the registry keeper and safe.

	key, _ := crypto.HexToECDSA(hexKey)
	client := clients.NewRegistryClient("http://localhost:8080", key)

	if err := client.AddPools(ctx, pools); err != nil {
		if errors.Is(err, interfaces.ErrUnauthorized) {
			// the key is neither keeper nor safe
		}
	}

Registry errors returned by the server are mapped back to the sentinels of
package interfaces, so callers can use errors.Is on them.
*/
package clients
