// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package events publishes election notifications.

With a NATS URL configured, NATSPublisher sends each Envelope as JSON to
"<prefix>.<event>", for example elections.vote.cast. Without one,
LogPublisher writes them to the structured log. Publishing never fails
the request that caused it; Notify logs errors and moves on.

Recorder keeps envelopes in memory for tests.
*/
package events
