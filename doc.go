/*
Package folio is the state core of a cell-based document editor.

An Editor holds one open document. User actions (insert, focus, execute)
and notifications pushed by an external execution host (a cell started,
produced output, finished) are reduced into a new document state. Reducers
are pure, but a reducer may schedule follow-up actions; those run after the
transition that scheduled them has committed, in FIFO order, depth first.

Messages for the execution host are never sent while a reducer runs. They
are queued and delivered once the dispatch that produced them has settled.

# Usage

	ed := folio.New(folio.WithLogger(logger))
	defer ed.Close()

	out, cancel := ed.Subscribe(64)
	defer cancel()

	_ = ed.Dispatch(domain.InsertAboveFirst{})
	_ = ed.Dispatch(domain.ExecuteCell{CellID: ed.State().Cells[0].ID(), Code: "print(1)"})

	msg := <-out // reexecute_cell

Host notifications arrive as messages:

	err := ed.HandleMessage(ctx, domain.Message{Kind: domain.MsgFinishCell, Payload: cell})

# Surfaces

The same Editor is served over HTTP (pkg/adapters/http), over MCP
(pkg/adapters/mcp), and over line-delimited JSON on stdio (Runner).
*/
package folio
