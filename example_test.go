package folio_test

import (
	"fmt"

	"github.com/aretw0/folio"
	"github.com/aretw0/folio/pkg/domain"
)

// ExampleNew drives an editor with local actions and reads the message it
// sends to the execution host.
func ExampleNew() {
	ids := 0
	ed := folio.New(folio.WithIDGenerator(func() string {
		ids++
		return fmt.Sprintf("cell-%d", ids)
	}))
	defer ed.Close()

	outbound, cancel := ed.Subscribe(8)
	defer cancel()

	_ = ed.Dispatch(domain.InsertAboveFirst{})
	_ = ed.Dispatch(domain.ExecuteCell{CellID: "cell-1", Code: "x = 1"})

	msg := <-outbound
	req := msg.Payload.(domain.ReExecuteCellRequest)
	fmt.Println(msg.Kind, req.ID, req.Code)
	fmt.Println(ed.State().Cells[0].Cell.State)
	// Output:
	// reexecute_cell cell-1 x = 1
	// executing
}
