// Package contract implements the provable contract classes, their method
// registry and the dispatcher.
//
// A class declares named methods with typed witness arguments. Compiling the
// class produces one prover per method and the aggregated verification key of
// the class. An instance binds the class to an account address and dispatches
// the method calls according to the active execution context: directly,
// under the compiler, or folded into a transaction-building session.
//
package contract

import (
	"go.dedis.ch/prova/core/exec"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

var (
	// ErrInvalidDeclaration is returned when a method declaration is
	// rejected by the registry.
	ErrInvalidDeclaration = xerrors.New("invalid declaration")

	// ErrInvalidArgument is returned when an argument declaration uses an
	// unsupported kind.
	ErrInvalidArgument = xerrors.New("invalid argument")

	// ErrNotCompiled is returned when the proving pipeline is used on a
	// class without compilation artifact.
	ErrNotCompiled = xerrors.New("class is not compiled")

	// ErrMethodNotFound is returned when a method name does not resolve.
	ErrMethodNotFound = xerrors.New("method not found")

	// ErrWitnessArityMismatch is returned when the supplied witness values
	// do not line up with the declared arguments of a method.
	ErrWitnessArityMismatch = xerrors.New("witness arity mismatch")
)

// reservedNames are the method names the lifecycle owns. Declaring one of
// them is rejected.
var reservedNames = map[string]struct{}{
	"init":    {},
	"compile": {},
	"prove":   {},
	"deploy":  {},
	"verify":  {},
}

// Call is the view a method body gets of its invocation.
type Call struct {
	// Self is the pending account update of the instance. The body folds
	// its effects into it.
	Self *update.Update

	// Args are the materialized arguments of the call, in declaration
	// order.
	Args []proof.Fieldable
}

// Body is the implementation of a provable method.
type Body func(call *Call) error

// Method is a declared method of a class.
type Method struct {
	name  string
	types []proof.Type
	arity int
	body  Body
}

// GetName returns the name of the method.
func (m *Method) GetName() string {
	return m.name
}

// GetArity returns the number of private field elements the method consumes.
func (m *Method) GetArity() int {
	return m.arity
}

// ZeroArguments returns the canonical zero value of every declared argument.
// They stand in for the witnesses at compile time.
func (m *Method) ZeroArguments() ([]proof.Fieldable, error) {
	args := make([]proof.Fieldable, len(m.types))

	for i, t := range m.types {
		arg, err := t.FromFields(make([]proof.Field, t.SizeInFields()))
		if err != nil {
			return nil, xerrors.Errorf("couldn't build zero value %d: %v", i, err)
		}

		args[i] = arg
	}

	return args, nil
}

// Class is a provable contract class: a name and an ordered list of declared
// methods. The declaration order is the compilation order, so the prover
// handles of the artifact are indexed identically to the methods.
//
// - implements update.ClassReference
type Class struct {
	name     string
	methods  []*Method
	artifact *proof.Artifact
}

// NewClass returns an empty class with the name.
func NewClass(name string) *Class {
	return &Class{name: name}
}

// GetName implements update.ClassReference. It returns the name of the
// class.
func (c *Class) GetName() string {
	return c.name
}

// GetMethodNames returns the method names in declaration order.
func (c *Class) GetMethodNames() []string {
	names := make([]string, len(c.methods))
	for i, m := range c.methods {
		names[i] = m.name
	}

	return names
}

// GetArtifact returns the compilation artifact of the class and whether the
// class has been compiled.
func (c *Class) GetArtifact() (*proof.Artifact, bool) {
	if c.artifact == nil {
		return nil, false
	}

	return c.artifact, true
}

// Register declares a method on the class. The argument types describe the
// witness arguments in order. A reserved or duplicated name, a nil body or an
// unsupported argument kind is rejected and leaves the class untouched.
func (c *Class) Register(name string, types []proof.Type, body Body) error {
	if _, ok := reservedNames[name]; ok {
		return xerrors.Errorf("method '%s': name is reserved: %w",
			name, ErrInvalidDeclaration)
	}

	if body == nil {
		return xerrors.Errorf("method '%s': missing body: %w",
			name, ErrInvalidDeclaration)
	}

	_, _, found := c.resolve(name)
	if found {
		return xerrors.Errorf("method '%s': already declared: %w",
			name, ErrInvalidDeclaration)
	}

	arity := 0

	for i, t := range types {
		if t == nil {
			return xerrors.Errorf("method '%s': argument %d is nil: %w",
				name, i, ErrInvalidDeclaration)
		}

		if _, ok := t.(proof.Argument); ok {
			return xerrors.Errorf(
				"method '%s': argument %d: proof arguments are not supported: %w",
				name, i, ErrInvalidArgument)
		}

		arity += t.SizeInFields()
	}

	c.methods = append(c.methods, &Method{
		name:  name,
		types: append([]proof.Type{}, types...),
		arity: arity,
		body:  body,
	})

	return nil
}

// Verify checks a proof of the method against the statement with the prover
// of the compilation artifact.
func (c *Class) Verify(name string, st proof.Statement, data []byte) error {
	if c.artifact == nil {
		return xerrors.Errorf("class '%s': %w", c.name, ErrNotCompiled)
	}

	_, index, found := c.resolve(name)
	if !found {
		return xerrors.Errorf("class '%s' has no method '%s': %w",
			c.name, name, ErrMethodNotFound)
	}

	err := c.artifact.Provers[index].Verify(st, data)
	if err != nil {
		return xerrors.Errorf("couldn't verify proof of '%s': %v", name, err)
	}

	return nil
}

func (c *Class) resolve(name string) (*Method, int, bool) {
	for i, m := range c.methods {
		if m.name == name {
			return m, i, true
		}
	}

	return nil, 0, false
}

// memoEntry pairs a memoized update with the session it belongs to, so that
// stale entries of closed sessions can be discarded.
type memoEntry struct {
	session *update.Session
	pending *update.Update
}

// Instance binds a class to an account address.
type Instance struct {
	class   *Class
	address crypto.PublicKey
	memo    map[string]memoEntry
}

// NewInstance returns an instance of the class at the address.
func NewInstance(class *Class, address crypto.PublicKey) *Instance {
	return &Instance{
		class:   class,
		address: address,
		memo:    make(map[string]memoEntry),
	}
}

// GetClass returns the class of the instance.
func (ins *Instance) GetClass() *Class {
	return ins.class
}

// GetAddress returns the account address of the instance.
func (ins *Instance) GetAddress() crypto.PublicKey {
	return ins.address
}

// Call dispatches the method under the active execution context. Without an
// activation the call runs directly against an ephemeral update, leaving no
// pending state behind.
func (ins *Instance) Call(stack *exec.Stack, name string, args ...proof.Fieldable) error {
	return ins.dispatch(stack, name, args, false)
}

type dispatchMode int

const (
	modeDirect dispatchMode = iota
	modeCompiling
	modeSession
)

// Dispatch resolves the method, materializes the arguments and runs the body
// under the mode the active context commands. The pipelines force the direct
// mode so that a body they drive is never folded into an ambient session.
func (ins *Instance) dispatch(stack *exec.Stack, name string,
	args []proof.Fieldable, forceDirect bool) error {

	m, _, found := ins.class.resolve(name)
	if !found {
		return xerrors.Errorf("class '%s' has no method '%s': %w",
			ins.class.name, name, ErrMethodNotFound)
	}

	err := validateArguments(m, args)
	if err != nil {
		return err
	}

	ins.dropStaleMemos()

	cfg, err := stack.Current()
	if err != nil {
		// No ambient context: run under an ephemeral direct activation.
		cfg = &exec.Config{}

		return stack.Activate(cfg, func() error {
			return ins.invoke(cfg, m, args, forceDirect)
		})
	}

	return ins.invoke(cfg, m, args, forceDirect)
}

func (ins *Instance) invoke(cfg *exec.Config, m *Method,
	args []proof.Fieldable, forceDirect bool) error {

	mode := modeDirect

	switch {
	case cfg.Session != nil && !forceDirect:
		mode = modeSession
	case cfg.Compiling:
		mode = modeCompiling
	}

	self := ins.self(cfg)

	call := &Call{
		Self: self,
		Args: args,
	}

	err := m.body(call)
	if err != nil {
		return xerrors.Errorf("method '%s' failed: %v", m.name, err)
	}

	switch mode {
	case modeCompiling:
		err = self.AssertPreconditionInvariants()
		if err != nil {
			return xerrors.Errorf("precondition invariants of '%s': %v", m.name, err)
		}
	case modeSession:
		// The body may have authorized the update itself, in which case the
		// first writer keeps the slot and no lazy proof is recorded.
		self.SetAuthorization(update.NewLazyAuthorization(&update.Lazy{
			Method: m.name,
			Args:   args,
			Class:  ins.class,
		}))
	}

	return nil
}

// self returns the account update the call folds its effects into: the
// update of the activation when the pipelines provide one, the memoized
// per-session update inside a session, or a fresh ephemeral one.
func (ins *Instance) self(cfg *exec.Config) *update.Update {
	if cfg.Update != nil {
		return cfg.Update
	}

	if cfg.Session != nil {
		entry, ok := ins.memo[cfg.Session.GetID()]
		if ok {
			return entry.pending
		}

		pending := update.New(ins.address)

		ins.memo[cfg.Session.GetID()] = memoEntry{
			session: cfg.Session,
			pending: pending,
		}

		cfg.Session.Add(pending)

		return pending
	}

	return update.New(ins.address)
}

func (ins *Instance) dropStaleMemos() {
	for id, entry := range ins.memo {
		if entry.session.IsClosed() {
			delete(ins.memo, id)
		}
	}
}

// validateArguments checks that the supplied values line up with the declared
// arguments, both in count and in field width.
func validateArguments(m *Method, args []proof.Fieldable) error {
	if len(args) != len(m.types) {
		return xerrors.Errorf("method '%s' expects %d arguments, got %d: %w",
			m.name, len(m.types), len(args), ErrWitnessArityMismatch)
	}

	for i, arg := range args {
		if arg.SizeInFields() != m.types[i].SizeInFields() {
			return xerrors.Errorf(
				"method '%s': argument %d has %d field elements, expected %d: %w",
				m.name, i, arg.SizeInFields(), m.types[i].SizeInFields(),
				ErrWitnessArityMismatch)
		}
	}

	return nil
}
