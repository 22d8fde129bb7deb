// This file contains the assembler that turns the outcomes of the contract
// pipelines into submittable transactions.
//

package txn

import (
	"context"

	"go.dedis.ch/prova"
	"go.dedis.ch/prova/core"
	"go.dedis.ch/prova/core/contract"
	"go.dedis.ch/prova/core/exec"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// AccountCreationFee is the amount burnt when a deployment creates a new
// account.
const AccountCreationFee uint64 = 1_000_000_000

var (
	// ErrMissingFeePayerKey is returned when a deployment funds the new
	// account but no fee payer key is provided to pay for it.
	ErrMissingFeePayerKey = xerrors.New("missing fee payer key")

	// ErrProofVerificationFailed is returned when the self-check of a proved
	// call rejects the generated proof.
	ErrProofVerificationFailed = xerrors.New("proof verification failed")
)

// Client is the interface to fetch the next nonce of an account from the
// current state.
type Client interface {
	// GetNonce returns the nonce to use for the next transaction of the
	// account.
	GetNonce(crypto.PublicKey) (uint64, error)
}

// Event is the notification sent to the observers of the assembler every time
// a transaction is assembled.
type Event struct {
	Transaction *Transaction
}

// DeployArguments gathers the parameters of a deployment.
type DeployArguments struct {
	// Key is the key of the contract account. It signs the contract update.
	Key crypto.Signer

	// VerificationKey is the key installed on the account, produced by the
	// compilation pipeline.
	VerificationKey proof.VerificationKey

	// InitialBalance optionally funds the new account. Funding requires a
	// fee payer.
	InitialBalance *uint64

	// FeePayerKey is the key paying the fee and the funding.
	FeePayerKey crypto.Signer

	// Fee is the declared fee of the transaction.
	Fee uint64

	// Nonce is the fee payer nonce, or nil to fetch it from the client.
	Nonce *uint64

	// SignFeePayer requests the fee payer signature to be attached right
	// away instead of before submission.
	SignFeePayer bool
}

// template is the configuration of an assembler under construction.
type template struct {
	client  Client
	hashFac crypto.HashFactory
}

// AssemblerOption is the type of options to create an assembler.
type AssemblerOption func(*template)

// WithClient sets the client used to fetch the fee payer nonces.
func WithClient(client Client) AssemblerOption {
	return func(tmpl *template) {
		tmpl.client = client
	}
}

// WithHashFactory sets the hash factory used to digest the signed payloads.
func WithHashFactory(f crypto.HashFactory) AssemblerOption {
	return func(tmpl *template) {
		tmpl.hashFac = f
	}
}

// Assembler builds transactions out of deployments, proved calls and
// sessions. Observers are notified of every assembled transaction.
type Assembler struct {
	suite   proof.Suite
	client  Client
	hashFac crypto.HashFactory
	watcher core.Observable
}

// NewAssembler returns an assembler using the suite for the proof system
// primitives.
func NewAssembler(suite proof.Suite, opts ...AssemblerOption) *Assembler {
	tmpl := template{
		hashFac: crypto.NewSha256Factory(),
	}

	for _, opt := range opts {
		opt(&tmpl)
	}

	return &Assembler{
		suite:   suite,
		client:  tmpl.client,
		hashFac: tmpl.hashFac,
		watcher: core.NewWatcher(),
	}
}

// Watch registers the observer so that it is notified of the assembled
// transactions.
func (a *Assembler) Watch(obs core.Observer) {
	a.watcher.Add(obs)
}

// Unwatch removes the observer.
func (a *Assembler) Unwatch(obs core.Observer) {
	a.watcher.Remove(obs)
}

// Deploy assembles the transaction installing the verification key on the
// contract account. The contract update sets the default permissions and is
// signed with the contract key. When an initial balance is requested, a fee
// payer update funds it plus the account creation fee, and the deployment
// fails with ErrMissingFeePayerKey without a fee payer key.
func (a *Assembler) Deploy(args DeployArguments) (*Transaction, error) {
	if args.Key == nil {
		return nil, xerrors.New("missing contract key")
	}

	u := update.New(args.Key.GetPublicKey())
	u.SetVerificationKey(args.VerificationKey)
	u.SetPermissions(update.DefaultPermissions())

	if args.InitialBalance != nil {
		u.AddBalance(int64(*args.InitialBalance))
	}

	err := u.Sign(args.Key, a.hashFac)
	if err != nil {
		return nil, xerrors.Errorf("couldn't sign contract update: %v", err)
	}

	tx := New(u)

	if args.InitialBalance != nil {
		if args.FeePayerKey == nil {
			return nil, xerrors.Errorf("funding of %d requested: %w",
				*args.InitialBalance, ErrMissingFeePayerKey)
		}

		feePayer := update.New(args.FeePayerKey.GetPublicKey())
		feePayer.AddBalance(-(int64(*args.InitialBalance) + int64(AccountCreationFee)))

		tx.SetFeePayer(feePayer)
	}

	if args.SignFeePayer && tx.feePayer != nil {
		nonce, err := a.resolveNonce(args)
		if err != nil {
			return nil, xerrors.Errorf("couldn't resolve nonce: %v", err)
		}

		err = tx.SignFeePayer(args.FeePayerKey, a.hashFac, args.Fee, nonce)
		if err != nil {
			return nil, xerrors.Errorf("couldn't sign fee payer: %v", err)
		}
	}

	a.notify(tx)

	return tx, nil
}

// Call assembles the transaction of a proved method call. The proving
// pipeline generates the proof, which is attached as the authorization of the
// resulting update. With the verification enabled, the proof is checked
// against the statement before the transaction is assembled.
func (a *Assembler) Call(ctx context.Context, stack *exec.Stack,
	ins *contract.Instance, method string, args []proof.Fieldable,
	verify bool) (*Transaction, error) {

	res, err := ins.Prove(ctx, a.suite, stack, method, args)
	if err != nil {
		return nil, xerrors.Errorf("couldn't prove '%s': %v", method, err)
	}

	if verify {
		err = ins.GetClass().Verify(method, res.Statement, res.Proof)
		if err != nil {
			prova.Logger.Warn().
				Str("method", method).
				Err(err).
				Msg("self-check rejected the proof")

			return nil, xerrors.Errorf("self-check of '%s': %w",
				method, ErrProofVerificationFailed)
		}
	}

	res.Update.SetAuthorization(update.NewProofAuthorization(res.Proof))

	tx := New(res.Update)

	a.notify(tx)

	return tx, nil
}

// CallUnproved assembles the transaction of a method call authorized by a
// signature instead of a proof. The body still runs under the checked
// pipeline. A nil key leaves a deliberately absent signature to be completed
// before submission.
func (a *Assembler) CallUnproved(stack *exec.Stack, ins *contract.Instance,
	method string, args []proof.Fieldable, key crypto.Signer) (*Transaction, error) {

	res, err := ins.RunAndCheck(a.suite, stack, method, args)
	if err != nil {
		return nil, xerrors.Errorf("couldn't run '%s': %v", method, err)
	}

	if key != nil {
		err = res.Update.Sign(key, a.hashFac)
		if err != nil {
			return nil, xerrors.Errorf("couldn't sign update: %v", err)
		}
	} else {
		res.Update.SetAuthorization(update.NewSignatureAuthorization(nil))
	}

	tx := New(res.Update)

	a.notify(tx)

	return tx, nil
}

// Assemble closes the session and folds its updates into a transaction, in
// the order the methods were called.
func (a *Assembler) Assemble(session *update.Session) (*Transaction, error) {
	updates := session.GetUpdates()
	if len(updates) == 0 {
		return nil, xerrors.New("session has no update")
	}

	session.Close()

	tx := New(updates...)

	a.notify(tx)

	return tx, nil
}

func (a *Assembler) resolveNonce(args DeployArguments) (uint64, error) {
	if args.Nonce != nil {
		return *args.Nonce, nil
	}

	if a.client == nil {
		return 0, xerrors.New("no nonce provided and no client configured")
	}

	nonce, err := a.client.GetNonce(args.FeePayerKey.GetPublicKey())
	if err != nil {
		return 0, xerrors.Errorf("client failed: %v", err)
	}

	return nonce, nil
}

func (a *Assembler) notify(tx *Transaction) {
	a.watcher.Notify(Event{Transaction: tx})
}
