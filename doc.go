// Copyright 2026 mark9064. All rights reserved.
// Use of this source code is governed by an ISC license that can be found in the LICENSE file.

/*
Package rcon implements a client for the RCON remote console protocol spoken by Factorio
dedicated servers. The wire format is the Source RCON protocol described by Valve Software at
https://developer.valvesoftware.com/wiki/Source_RCON_Protocol.

Factorio splits long command output across several response packets and the protocol offers no
end-of-response marker, so every command is paired with an empty probe request; the probe's echo
marks the point at which the full response has been received. [Client] offers blocking calls;
[AsyncClient] offers the same operations under [context.Context] control.
*/
package rcon
