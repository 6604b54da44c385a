// SPDX-License-Identifier: GPL-3.0-or-later

// Package isochannel implements the framing channel of an ISO 8583 stack.
//
// # Core Abstraction
//
// A [*Channel] turns a byte stream into discrete [*Message] values and back:
//
//	ch := isochannel.NewClientChannel(cfg, "10.0.0.1", 8000, isochannel.PostFramer{}, codec)
//	if err := ch.Connect(ctx); err != nil {
//		return err
//	}
//	defer ch.Disconnect()
//	if err := ch.Send(request); err != nil {
//		return err
//	}
//	response, err := ch.Receive()
//
// Three collaborators plug into a channel:
//   - [Codec]: packs and unpacks message fields (external to this package)
//   - [Framer]: the byte-level hooks of a wire dialect (length prefix,
//     network header, trailer, undeclared-length streaming, rejections)
//   - [Filter]: per-direction pipelines that observe, modify, or veto
//     messages in flight
//
// # Available Dialects
//
//   - [NopFramer]: no framing; inert defaults to embed in custom dialects
//   - [PostFramer]: two bytes binary length
//   - [ASCIIFramer]: four decimal digits length
//   - [NACFramer]: two bytes binary length followed by a TPDU
//   - [BASE1Framer]: two bytes binary length followed by a network header
//     that may signal rejections
//   - [DelimitedFramer]: ETX-terminated payloads with no length, where
//     payloads containing ETX are refused
//
// Use [NewFramer] to select a dialect by name, e.g., from [Settings].
//
// # Connection Lifecycle
//
// [*Channel.Connect] dials a client channel or accepts a peer for a server
// channel, [*Channel.Disconnect] tears the transport down and leaves the
// channel reusable, and [*Channel.Reconnect] does both. A refused connection
// is logged, not returned: poll [*Channel.IsConnected] to detect it. Nothing
// disconnects implicitly on error: callers decide whether to reconnect.
//
// # Observability
//
// Every operation emits exactly one Info-level record through the channel
// [SLogger] (compatible with [log/slog]) whose message is the operation tag:
// connect, connection-refused, send, receive, disconnect, or usable. All records
// carry channel, realm, spanID, localAddr, remoteAddr, protocol, messages,
// err, errClass, t0, and t. Transport-level records (connectStart/Done,
// acceptStart/Done, and, when [Config.ObserveIO] is set, per-I/O records)
// use [slog.LevelDebug].
//
// Each channel also keeps connect/transmit/receive [Counter] values and
// notifies the callbacks registered with [*Channel.Subscribe].
//
// # Concurrency
//
// A channel is not safe for concurrent use and enforces no timeouts. Serialize
// access externally, set deadlines on the transport if needed, and use
// [*Channel.CloseOnDone] to unblock pending I/O by closing the transport.
// The [*Registry] is safe for concurrent use.
package isochannel
