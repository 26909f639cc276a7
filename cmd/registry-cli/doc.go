/*
Command registry-cli talks to a running registry-server.

	registry-cli --server-addr http://127.0.0.1:8080 list --from 0 --to 10
	registry-cli --key $KEEPER_KEY add 0xPool1 0xPool2
	registry-cli --key $SAFE_KEY pause --from 0 --to 2

Reads need no key. Mutations are signed with --key (or BH_KEY) and are
authorized against the keeper and safe configured in the registry.
*/
package main
