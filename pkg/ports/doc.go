/*
Package ports defines the driven ports (interfaces) of the Folio editor.

These interfaces decouple the editor core from the execution host and from
the collaborators that live outside it.

# Key Interfaces

  - MessageSink: Receives outbound messages addressed to the execution host.
  - NotebookExporter, DocumentProvider, GatherEngine: Collaborators used to
    turn a gathered script into a new notebook document.
  - StateStore: Persists document snapshots between runs.
  - DistributedLocker: Coordinates concurrent access to a stored document.
*/
package ports
