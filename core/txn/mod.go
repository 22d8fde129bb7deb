// Package txn implements the transaction, the ordered set of account updates
// submitted as one unit, and the assembler that builds transactions out of
// the contract pipelines.
//
package txn

import (
	"encoding/binary"
	"io"

	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/serde"
	"go.dedis.ch/prova/serde/registry"
	"golang.org/x/xerrors"
)

var txnFormats = registry.NewSimpleRegistry()

// RegisterTransactionFormat registers the engine for the provided format.
func RegisterTransactionFormat(f serde.Format, e serde.FormatEngine) {
	txnFormats.Register(f, e)
}

// UpdateFac is the key of the account update factory in a serialization
// context.
type UpdateFac struct{}

// Transaction is an ordered set of account updates with an optional fee
// payer. The fee payer authorizes the fee and, for deployments, funds the
// created account.
//
// - implements serde.Message
// - implements serde.Fingerprinter
type Transaction struct {
	feePayer *update.Update
	fee      uint64
	nonce    uint64
	updates  []*update.Update
}

// New returns a transaction of the updates, in order, without fee payer.
func New(updates ...*update.Update) *Transaction {
	return &Transaction{
		updates: updates,
	}
}

// SetFeePayer attaches the fee payer update.
func (t *Transaction) SetFeePayer(u *update.Update) {
	t.feePayer = u
}

// GetFeePayer returns the fee payer update and whether one is attached.
func (t *Transaction) GetFeePayer() (*update.Update, bool) {
	if t.feePayer == nil {
		return nil, false
	}

	return t.feePayer, true
}

// GetFee returns the fee of the transaction.
func (t *Transaction) GetFee() uint64 {
	return t.fee
}

// GetNonce returns the nonce of the fee payer.
func (t *Transaction) GetNonce() uint64 {
	return t.nonce
}

// GetUpdates returns the account updates in order, fee payer excluded.
func (t *Transaction) GetUpdates() []*update.Update {
	return append([]*update.Update{}, t.updates...)
}

// SignFeePayer sets the fee and the nonce, then signs the whole transaction
// with the signer and attaches the signature as the authorization of the fee
// payer update. The signature therefore commits to the fee, the nonce and
// every update of the transaction.
func (t *Transaction) SignFeePayer(signer crypto.Signer, f crypto.HashFactory,
	fee uint64, nonce uint64) error {

	if t.feePayer == nil {
		return xerrors.New("transaction has no fee payer")
	}

	t.fee = fee
	t.nonce = nonce
	t.feePayer.RequireNonce(nonce)

	h := f.New()

	err := t.Fingerprint(h)
	if err != nil {
		return xerrors.Errorf("couldn't fingerprint transaction: %v", err)
	}

	sig, err := signer.Sign(h.Sum(nil))
	if err != nil {
		return xerrors.Errorf("signer failed: %v", err)
	}

	if !t.feePayer.SetAuthorization(update.NewSignatureAuthorization(sig)) {
		return xerrors.New("fee payer is already authorized")
	}

	return nil
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary encoding of the transaction. Like for the updates, authorizations
// are excluded.
func (t *Transaction) Fingerprint(w io.Writer) error {
	err := writeUint64(w, t.fee)
	if err != nil {
		return xerrors.Errorf("couldn't write fee: %v", err)
	}

	err = writeUint64(w, t.nonce)
	if err != nil {
		return xerrors.Errorf("couldn't write nonce: %v", err)
	}

	if t.feePayer == nil {
		_, err = w.Write([]byte{0})
	} else {
		_, err = w.Write([]byte{1})
		if err == nil {
			err = t.feePayer.Fingerprint(w)
		}
	}

	if err != nil {
		return xerrors.Errorf("couldn't write fee payer: %v", err)
	}

	err = writeUint64(w, uint64(len(t.updates)))
	if err != nil {
		return xerrors.Errorf("couldn't write length: %v", err)
	}

	for i, u := range t.updates {
		err = u.Fingerprint(w)
		if err != nil {
			return xerrors.Errorf("couldn't write update %d: %v", i, err)
		}
	}

	return nil
}

// Serialize implements serde.Message. It serializes the transaction with the
// format of the context.
func (t *Transaction) Serialize(ctx serde.Context) ([]byte, error) {
	format := txnFormats.Get(ctx.GetFormat())

	data, err := format.Encode(ctx, t)
	if err != nil {
		return nil, xerrors.Errorf("couldn't encode transaction: %v", err)
	}

	return data, nil
}

// Restore rebuilds a transaction from its deserialized pieces. It is used by
// the formats.
func Restore(feePayer *update.Update, fee, nonce uint64,
	updates []*update.Update) *Transaction {

	return &Transaction{
		feePayer: feePayer,
		fee:      fee,
		nonce:    nonce,
		updates:  updates,
	}
}

// TransactionFactory is a factory to deserialize transactions.
//
// - implements serde.Factory
type TransactionFactory struct {
	updateFac update.Factory
}

// NewTransactionFactory returns a factory using the update factory to restore
// the account updates of the transactions.
func NewTransactionFactory(fac update.Factory) TransactionFactory {
	return TransactionFactory{
		updateFac: fac,
	}
}

// Deserialize implements serde.Factory. It populates the transaction from the
// data if appropriate, otherwise it returns an error.
func (f TransactionFactory) Deserialize(ctx serde.Context, data []byte) (serde.Message, error) {
	format := txnFormats.Get(ctx.GetFormat())

	ctx = serde.WithFactory(ctx, UpdateFac{}, f.updateFac)

	msg, err := format.Decode(ctx, data)
	if err != nil {
		return nil, xerrors.Errorf("couldn't decode transaction: %v", err)
	}

	return msg, nil
}

func writeUint64(w io.Writer, value uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	_, err := w.Write(buffer)

	return err
}
