// This file contains the amount scalar, the witness argument type used for
// balances and transfers.
//

package update

import (
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// Amount is an unsigned token quantity usable as a witness argument of a
// provable method.
//
// - implements proof.Fieldable
type Amount uint64

// SizeInFields implements proof.Fieldable. An amount is a single field
// element.
func (a Amount) SizeInFields() int {
	return 1
}

// ToFields implements proof.Fieldable. It returns the field representation of
// the amount.
func (a Amount) ToFields() []proof.Field {
	return []proof.Field{proof.NewFieldFromUint64(uint64(a))}
}

// AmountType is the argument type descriptor of Amount.
//
// - implements proof.Type
type AmountType struct{}

// SizeInFields implements proof.Type. An amount is a single field element.
func (AmountType) SizeInFields() int {
	return 1
}

// FromFields implements proof.Type. It restores the amount from its field
// representation.
func (AmountType) FromFields(fields []proof.Field) (proof.Fieldable, error) {
	if len(fields) != 1 {
		return nil, xerrors.Errorf("expected 1 field element, got %d", len(fields))
	}

	return Amount(fields[0].Uint64()), nil
}
