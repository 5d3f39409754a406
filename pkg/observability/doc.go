/*
Package observability provides tools for monitoring the Folio editor.

It builds domain.LifecycleHooks that record Prometheus metrics or write
structured logs for every dispatched action and delivered message, and
combines several hook sets into one.
*/
package observability
