// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election owns the election lifecycle and its candidates.

Status only moves forward:

	draft -> scheduled -> ongoing -> closed

Admins drive draft to scheduled, and may force a scheduled election to
start or any open election to close. The scheduler package moves the rest
as time passes. Every transition is a single UPDATE guarded on the
expected status; when it matches no row the election is reloaded and the
Can* rule that failed is reported instead.

Candidates can be added or removed only in draft, and never once a vote
names them.
*/
package election
