/*
Command registry-server serves the pool registry over HTTP.

	registry-server \
	  --network sepolia \
	  --keeper 0x... --safe 0x... --vault 0x... \
	  --relay-key $RELAY_KEY \
	  --snapshot-uri file:///var/lib/registry/snapshot.json

The vault is checked for contract code through the RPC endpoint whenever it
is updated. With --relay-key set, every pause is forwarded to the vault as
setPoolPaused transactions. With --snapshot-uri set, the registry is restored
from the first readable location at startup and saved to all locations after
every change. A stored snapshot takes precedence over the address flags, so
--keeper is only required when no snapshot exists yet. On shutdown the
server waits for the snapshot and relay workers to finish.
*/
package main
