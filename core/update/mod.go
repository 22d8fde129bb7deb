// Package update defines the account update, the unit of intent of the
// transaction model.
//
// An account update describes the changes a method execution wants to apply
// to one account: a balance change, an optional verification key rotation,
// permission settings, emitted events and the preconditions under which the
// update is valid. Its deterministic fingerprint is the value the statements
// and the signatures commit to.
//
// The authorization of an update is a single-assignment slot so that at most
// one authorization can ever be attached, whichever writer comes first.
//
package update

import (
	"encoding/binary"
	"io"

	"github.com/rs/xid"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

// Permission is the level of authorization required to perform a class of
// operations on an account.
type Permission byte

const (
	// PermissionNone allows the operation without any authorization.
	PermissionNone Permission = iota

	// PermissionSignature requires a signature of the account owner.
	PermissionSignature

	// PermissionProof requires a proof of one of the account methods.
	PermissionProof

	// PermissionImpossible forbids the operation entirely.
	PermissionImpossible
)

// Permissions holds the permission levels of an account, one per class of
// operations.
type Permissions struct {
	EditState          Permission
	Send               Permission
	Receive            Permission
	SetVerificationKey Permission
}

// DefaultPermissions returns the permissions a deployment sets on a provable
// account: state transitions and outgoing transfers require a proof, and the
// verification key can only be rotated by the owner.
func DefaultPermissions() Permissions {
	return Permissions{
		EditState:          PermissionProof,
		Send:               PermissionProof,
		Receive:            PermissionNone,
		SetVerificationKey: PermissionSignature,
	}
}

// Range is an inclusive interval precondition over an unsigned counter.
type Range struct {
	Lower uint64
	Upper uint64
}

// FullRange returns the range that accepts any value.
func FullRange() Range {
	return Range{Lower: 0, Upper: ^uint64(0)}
}

// Preconditions is the set of assumptions an update makes about the state of
// the account at application time.
type Preconditions struct {
	Balance Range
	Nonce   Range
}

// AuthorizationKind tells how an update is, or will be, authorized.
type AuthorizationKind byte

const (
	// KindNone is the kind of an update without authorization.
	KindNone AuthorizationKind = iota

	// KindSignature is the kind of an update authorized by the account owner.
	KindSignature

	// KindProof is the kind of an update authorized by a method proof.
	KindProof

	// KindLazyProof is the kind of an update whose proof is deferred to the
	// proving pipeline. It records everything needed to generate the proof
	// later.
	KindLazyProof
)

// ClassReference is a reduced view of a contract class, enough for a lazy
// proof to point back at the class the proof must be generated with.
type ClassReference interface {
	GetName() string
}

// Lazy is the recording of a deferred proof: which method of which class was
// called, and with which arguments.
type Lazy struct {
	Method string
	Args   []proof.Fieldable
	Class  ClassReference
}

// Authorization is the attachment that makes an update acceptable: nothing, a
// signature, a proof, or the promise of a proof.
type Authorization struct {
	kind      AuthorizationKind
	signature crypto.Signature
	proof     []byte
	lazy      *Lazy
}

// NewSignatureAuthorization returns a signature authorization. A nil
// signature marks the spot of a signature to be provided before submission.
func NewSignatureAuthorization(sig crypto.Signature) Authorization {
	return Authorization{kind: KindSignature, signature: sig}
}

// NewProofAuthorization returns an authorization carrying a serialized proof.
func NewProofAuthorization(data []byte) Authorization {
	return Authorization{kind: KindProof, proof: data}
}

// NewLazyAuthorization returns an authorization deferring the proof
// generation.
func NewLazyAuthorization(lazy *Lazy) Authorization {
	return Authorization{kind: KindLazyProof, lazy: lazy}
}

// GetKind returns the kind of the authorization.
func (a Authorization) GetKind() AuthorizationKind {
	return a.kind
}

// GetSignature returns the signature of a signature authorization, which can
// be nil when the signature is yet to be provided.
func (a Authorization) GetSignature() crypto.Signature {
	return a.signature
}

// GetProof returns the serialized proof of a proof authorization.
func (a Authorization) GetProof() []byte {
	return append([]byte{}, a.proof...)
}

// GetLazy returns the deferred proof recording of a lazy authorization.
func (a Authorization) GetLazy() *Lazy {
	return a.lazy
}

// Slot is a single-assignment holder for the authorization of an update. The
// first write wins and later ones are rejected, so an update can never end up
// with two authorizations.
type Slot struct {
	value *Authorization
}

// Set stores the authorization when the slot is empty and returns whether the
// write took place.
func (s *Slot) Set(auth Authorization) bool {
	if s.value != nil {
		return false
	}

	s.value = &auth

	return true
}

// Get returns the authorization and whether the slot is filled.
func (s *Slot) Get() (Authorization, bool) {
	if s.value == nil {
		return Authorization{}, false
	}

	return *s.value, true
}

// Update is the pending change set of one account.
//
// - implements serde.Fingerprinter
type Update struct {
	address       crypto.PublicKey
	balanceDelta  int64
	key           *proof.VerificationKey
	permissions   *Permissions
	preconditions Preconditions
	events        [][]proof.Field
	auth          Slot
}

// New returns an empty update for the account of the address, with
// preconditions accepting any state.
func New(address crypto.PublicKey) *Update {
	return &Update{
		address: address,
		preconditions: Preconditions{
			Balance: FullRange(),
			Nonce:   FullRange(),
		},
	}
}

// GetAddress returns the address of the account the update applies to.
func (u *Update) GetAddress() crypto.PublicKey {
	return u.address
}

// AddBalance accumulates a signed change of the account balance.
func (u *Update) AddBalance(delta int64) {
	u.balanceDelta += delta
}

// GetBalanceChange returns the accumulated balance change.
func (u *Update) GetBalanceChange() int64 {
	return u.balanceDelta
}

// SetVerificationKey schedules a rotation of the account verification key.
func (u *Update) SetVerificationKey(key proof.VerificationKey) {
	u.key = &key
}

// GetVerificationKey returns the scheduled verification key and whether a
// rotation is scheduled.
func (u *Update) GetVerificationKey() (proof.VerificationKey, bool) {
	if u.key == nil {
		return proof.VerificationKey{}, false
	}

	return *u.key, true
}

// SetPermissions schedules the permissions of the account.
func (u *Update) SetPermissions(perms Permissions) {
	u.permissions = &perms
}

// GetPermissions returns the scheduled permissions and whether the update
// sets them.
func (u *Update) GetPermissions() (Permissions, bool) {
	if u.permissions == nil {
		return Permissions{}, false
	}

	return *u.permissions, true
}

// RequireBalanceBetween constrains the balance of the account to the
// inclusive interval at application time.
func (u *Update) RequireBalanceBetween(lower, upper uint64) {
	u.preconditions.Balance = Range{Lower: lower, Upper: upper}
}

// RequireNonceBetween constrains the nonce of the account to the inclusive
// interval at application time.
func (u *Update) RequireNonceBetween(lower, upper uint64) {
	u.preconditions.Nonce = Range{Lower: lower, Upper: upper}
}

// RequireNonce constrains the nonce of the account to an exact value.
func (u *Update) RequireNonce(nonce uint64) {
	u.preconditions.Nonce = Range{Lower: nonce, Upper: nonce}
}

// GetPreconditions returns the preconditions of the update.
func (u *Update) GetPreconditions() Preconditions {
	return u.preconditions
}

// EmitEvent appends an event made of field elements to the update.
func (u *Update) EmitEvent(fields ...proof.Field) {
	u.events = append(u.events, fields)
}

// GetEvents returns the events of the update in emission order.
func (u *Update) GetEvents() [][]proof.Field {
	return u.events
}

// SetAuthorization attaches the authorization and returns whether it took
// place. The slot is single-assignment so an update already authorized keeps
// its first authorization.
func (u *Update) SetAuthorization(auth Authorization) bool {
	return u.auth.Set(auth)
}

// GetAuthorization returns the authorization and whether one is attached.
func (u *Update) GetAuthorization() (Authorization, bool) {
	return u.auth.Get()
}

// Sign computes the digest of the update and attaches the signature of the
// signer as the authorization. It fails when the update is already
// authorized.
func (u *Update) Sign(signer crypto.Signer, f crypto.HashFactory) error {
	h := f.New()

	err := u.Fingerprint(h)
	if err != nil {
		return xerrors.Errorf("couldn't fingerprint update: %v", err)
	}

	sig, err := signer.Sign(h.Sum(nil))
	if err != nil {
		return xerrors.Errorf("signer failed: %v", err)
	}

	if !u.auth.Set(NewSignatureAuthorization(sig)) {
		return xerrors.New("update is already authorized")
	}

	return nil
}

// AssertPreconditionInvariants returns an error when a precondition interval
// is inverted, which no account state could ever satisfy.
func (u *Update) AssertPreconditionInvariants() error {
	if u.preconditions.Balance.Lower > u.preconditions.Balance.Upper {
		return xerrors.Errorf("balance range [%d, %d] is inverted",
			u.preconditions.Balance.Lower, u.preconditions.Balance.Upper)
	}

	if u.preconditions.Nonce.Lower > u.preconditions.Nonce.Upper {
		return xerrors.Errorf("nonce range [%d, %d] is inverted",
			u.preconditions.Nonce.Lower, u.preconditions.Nonce.Upper)
	}

	return nil
}

// Fingerprint implements serde.Fingerprinter. It writes a deterministic
// binary encoding of the update content. The authorization is excluded so
// that the digest is stable before and after it is attached.
func (u *Update) Fingerprint(w io.Writer) error {
	addr, err := u.address.MarshalBinary()
	if err != nil {
		return xerrors.Errorf("couldn't marshal address: %v", err)
	}

	_, err = w.Write(addr)
	if err != nil {
		return xerrors.Errorf("couldn't write address: %v", err)
	}

	err = writeUint64(w, uint64(u.balanceDelta))
	if err != nil {
		return xerrors.Errorf("couldn't write balance: %v", err)
	}

	err = u.fingerprintKey(w)
	if err != nil {
		return xerrors.Errorf("couldn't write key: %v", err)
	}

	err = u.fingerprintPermissions(w)
	if err != nil {
		return xerrors.Errorf("couldn't write permissions: %v", err)
	}

	err = u.fingerprintPreconditions(w)
	if err != nil {
		return xerrors.Errorf("couldn't write preconditions: %v", err)
	}

	err = u.fingerprintEvents(w)
	if err != nil {
		return xerrors.Errorf("couldn't write events: %v", err)
	}

	return nil
}

func (u *Update) fingerprintKey(w io.Writer) error {
	if u.key == nil {
		_, err := w.Write([]byte{0})
		return err
	}

	_, err := w.Write([]byte{1})
	if err != nil {
		return err
	}

	err = writeUint32(w, uint32(len(u.key.Data)))
	if err != nil {
		return err
	}

	_, err = w.Write(u.key.Data)
	if err != nil {
		return err
	}

	_, err = w.Write(u.key.Hash.Bytes())

	return err
}

func (u *Update) fingerprintPermissions(w io.Writer) error {
	if u.permissions == nil {
		_, err := w.Write([]byte{0})
		return err
	}

	_, err := w.Write([]byte{
		1,
		byte(u.permissions.EditState),
		byte(u.permissions.Send),
		byte(u.permissions.Receive),
		byte(u.permissions.SetVerificationKey),
	})

	return err
}

func (u *Update) fingerprintPreconditions(w io.Writer) error {
	for _, value := range []uint64{
		u.preconditions.Balance.Lower,
		u.preconditions.Balance.Upper,
		u.preconditions.Nonce.Lower,
		u.preconditions.Nonce.Upper,
	} {
		err := writeUint64(w, value)
		if err != nil {
			return err
		}
	}

	return nil
}

func (u *Update) fingerprintEvents(w io.Writer) error {
	err := writeUint32(w, uint32(len(u.events)))
	if err != nil {
		return err
	}

	for _, event := range u.events {
		err = writeUint32(w, uint32(len(event)))
		if err != nil {
			return err
		}

		for _, field := range event {
			_, err = w.Write(field[:])
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func writeUint32(w io.Writer, value uint32) error {
	buffer := make([]byte, 4)
	binary.LittleEndian.PutUint32(buffer, value)

	_, err := w.Write(buffer)

	return err
}

func writeUint64(w io.Writer, value uint64) error {
	buffer := make([]byte, 8)
	binary.LittleEndian.PutUint64(buffer, value)

	_, err := w.Write(buffer)

	return err
}

// Session is a transaction-building session. It carries a unique identity and
// the ordered list of updates folded into the pending transaction. Contract
// instances memoize their pending update per session identity.
type Session struct {
	id      xid.ID
	updates []*Update
	closed  bool
}

// NewSession returns an open session with a fresh identity.
func NewSession() *Session {
	return &Session{id: xid.New()}
}

// GetID returns the unique identity of the session.
func (s *Session) GetID() string {
	return s.id.String()
}

// Add folds the update into the pending transaction. The order of the calls
// is the order of the updates.
func (s *Session) Add(u *Update) {
	s.updates = append(s.updates, u)
}

// GetUpdates returns the updates of the session in fold order.
func (s *Session) GetUpdates() []*Update {
	return append([]*Update{}, s.updates...)
}

// Close invalidates the session. Memoized updates keyed by the session
// identity must be discarded by their holders.
func (s *Session) Close() {
	s.closed = true
}

// IsClosed returns whether the session has been closed.
func (s *Session) IsClosed() bool {
	return s.closed
}
