// Package counter implements a minimal provable contract used as an example
// and by the command line tool.
//
// The contract exposes two methods. Bump credits the account with the amount
// passed as witness and emits it as an event. Ping takes no argument and only
// emits a liveness event, which makes it the cheapest method to prove.
//
package counter

import (
	"go.dedis.ch/prova/core/contract"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// ClassName is the name of the contract class.
const ClassName = "counter"

// NewClass returns the counter class with its methods registered.
func NewClass() (*contract.Class, error) {
	class := contract.NewClass(ClassName)

	err := class.Register("bump", []proof.Type{update.AmountType{}}, bump)
	if err != nil {
		return nil, xerrors.Errorf("couldn't register bump: %v", err)
	}

	err = class.Register("ping", nil, ping)
	if err != nil {
		return nil, xerrors.Errorf("couldn't register ping: %v", err)
	}

	return class, nil
}

func bump(call *contract.Call) error {
	amount, ok := call.Args[0].(update.Amount)
	if !ok {
		return xerrors.Errorf("invalid amount of type '%T'", call.Args[0])
	}

	call.Self.AddBalance(int64(amount))
	call.Self.EmitEvent(amount.ToFields()...)

	return nil
}

func ping(call *contract.Call) error {
	call.Self.EmitEvent(proof.NewFieldFromUint64(1))

	return nil
}
