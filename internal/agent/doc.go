// ABOUTME: Agent registry, handler variants, and the message router.
// ABOUTME: Handlers map user text to a reply plus side-effect actions.

// Package agent implements the conversational layer of the gateway.
//
// A Handler is a stateless responder: it maps one user message to a
// reply and zero or more Actions. Handlers never mutate shared state
// directly; every effect they want applied goes out as an Action for
// the dispatcher to execute. The fixed set of handler variants (risk
// analyst, market bot, research agent, confidential-compute agent,
// identity agent) lives in a Registry keyed by agent id.
//
// The Router is the single entry point: it resolves the handler,
// invokes it, wraps the reply into a Message, and hands each action to
// the dispatcher asynchronously before returning. A slow or failing
// action never delays the conversational reply.
package agent
