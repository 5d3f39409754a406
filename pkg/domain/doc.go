/*
Package domain contains the core data model of the folio editor core.

It defines the document state, the cells it is made of, the vocabulary of
actions that can transform it and the messages exchanged with the execution
host. The package is pure and free of I/O, following Hexagonal Architecture
principles.

# Key Entities

  - Cell / CellViewModel: one unit of content plus its transient UI flags.
  - State: the snapshot of one open document (cells, focus, execution count, variables).
  - Action: a request for a state transition (insert, focus, execute, host notifications).
  - Message: a {kind, payload} unit sent to or received from the execution host.
*/
package domain
