// Package json implements the JSON format of the transactions. The account
// updates are delegated to their own format.
//
package json

import (
	"encoding/json"

	"go.dedis.ch/prova/core/txn"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/serde"
	"golang.org/x/xerrors"
)

func init() {
	txn.RegisterTransactionFormat(serde.FormatJSON, txFormat{})
}

// TransactionJSON is the JSON message of a transaction.
type TransactionJSON struct {
	FeePayer json.RawMessage `json:",omitempty"`
	Fee      uint64
	Nonce    uint64
	Updates  []json.RawMessage
}

// TxFormat is the engine to encode and decode transaction messages in JSON
// format.
//
// - implements serde.FormatEngine
type txFormat struct{}

// Encode implements serde.FormatEngine. It returns the serialized data of the
// transaction message if appropriate, otherwise an error.
func (f txFormat) Encode(ctx serde.Context, msg serde.Message) ([]byte, error) {
	tx, ok := msg.(*txn.Transaction)
	if !ok {
		return nil, xerrors.Errorf("unsupported message of type '%T'", msg)
	}

	m := TransactionJSON{
		Fee:   tx.GetFee(),
		Nonce: tx.GetNonce(),
	}

	feePayer, found := tx.GetFeePayer()
	if found {
		raw, err := feePayer.Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize fee payer: %v", err)
		}

		m.FeePayer = raw
	}

	for i, u := range tx.GetUpdates() {
		raw, err := u.Serialize(ctx)
		if err != nil {
			return nil, xerrors.Errorf("couldn't serialize update %d: %v", i, err)
		}

		m.Updates = append(m.Updates, raw)
	}

	data, err := ctx.Marshal(m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't marshal: %v", err)
	}

	return data, nil
}

// Decode implements serde.FormatEngine. It populates the transaction from the
// data if appropriate, otherwise it returns an error.
func (f txFormat) Decode(ctx serde.Context, data []byte) (serde.Message, error) {
	m := TransactionJSON{}

	err := ctx.Unmarshal(data, &m)
	if err != nil {
		return nil, xerrors.Errorf("couldn't unmarshal: %v", err)
	}

	fac := ctx.GetFactory(txn.UpdateFac{})

	updateFac, ok := fac.(serde.Factory)
	if !ok {
		return nil, xerrors.Errorf("invalid update factory of type '%T'", fac)
	}

	var feePayer *update.Update

	if len(m.FeePayer) > 0 {
		feePayer, err = decodeUpdate(ctx, updateFac, m.FeePayer)
		if err != nil {
			return nil, xerrors.Errorf("couldn't deserialize fee payer: %v", err)
		}
	}

	updates := make([]*update.Update, len(m.Updates))

	for i, raw := range m.Updates {
		updates[i], err = decodeUpdate(ctx, updateFac, raw)
		if err != nil {
			return nil, xerrors.Errorf("couldn't deserialize update %d: %v", i, err)
		}
	}

	return txn.Restore(feePayer, m.Fee, m.Nonce, updates), nil
}

func decodeUpdate(ctx serde.Context, fac serde.Factory,
	raw json.RawMessage) (*update.Update, error) {

	msg, err := fac.Deserialize(ctx, raw)
	if err != nil {
		return nil, err
	}

	u, ok := msg.(*update.Update)
	if !ok {
		return nil, xerrors.Errorf("invalid update of type '%T'", msg)
	}

	return u, nil
}
