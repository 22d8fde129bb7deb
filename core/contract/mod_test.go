package contract

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/prova/core/exec"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/internal/testing/fake"
	"go.dedis.ch/prova/proof"
)

func TestClass_Register(t *testing.T) {
	class := NewClass("counter")

	err := class.Register("bump", []proof.Type{update.AmountType{}}, noopBody)
	require.NoError(t, err)
	require.Equal(t, []string{"bump"}, class.GetMethodNames())

	err = class.Register("ping", nil, noopBody)
	require.NoError(t, err)
	require.Equal(t, []string{"bump", "ping"}, class.GetMethodNames())

	err = class.Register("init", nil, noopBody)
	require.ErrorIs(t, err, ErrInvalidDeclaration)

	err = class.Register("compile", nil, noopBody)
	require.ErrorIs(t, err, ErrInvalidDeclaration)

	err = class.Register("broken", nil, nil)
	require.ErrorIs(t, err, ErrInvalidDeclaration)

	err = class.Register("bump", nil, noopBody)
	require.ErrorIs(t, err, ErrInvalidDeclaration)

	err = class.Register("typed", []proof.Type{nil}, noopBody)
	require.ErrorIs(t, err, ErrInvalidDeclaration)

	err = class.Register("recursive", []proof.Type{proofArg{}}, noopBody)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// Failed declarations leave the class untouched.
	require.Equal(t, []string{"bump", "ping"}, class.GetMethodNames())
}

func TestMethod_ZeroArguments(t *testing.T) {
	class := NewClass("counter")
	require.NoError(t, class.Register("bump",
		[]proof.Type{update.AmountType{}, update.AmountType{}}, noopBody))

	m, _, found := class.resolve("bump")
	require.True(t, found)
	require.Equal(t, 2, m.GetArity())
	require.Equal(t, "bump", m.GetName())

	args, err := m.ZeroArguments()
	require.NoError(t, err)
	require.Len(t, args, 2)
	require.Equal(t, update.Amount(0), args[0])
}

func TestInstance_Call_Direct(t *testing.T) {
	ins, recorder := makeInstance(t)
	stack := exec.NewStack()

	err := ins.Call(stack, "bump", update.Amount(5))
	require.NoError(t, err)
	require.Equal(t, 1, recorder.Len())

	// A direct call runs against an ephemeral update and leaves no pending
	// state behind.
	require.Equal(t, 0, stack.Depth())
	require.Empty(t, ins.memo)

	self := recorder.Get(0, 0).(*update.Update)
	require.Equal(t, int64(5), self.GetBalanceChange())

	_, found := self.GetAuthorization()
	require.False(t, found)

	err = ins.Call(stack, "missing")
	require.ErrorIs(t, err, ErrMethodNotFound)

	err = ins.Call(stack, "bump")
	require.ErrorIs(t, err, ErrWitnessArityMismatch)

	err = ins.Call(stack, "bump", update.Amount(1), update.Amount(2))
	require.ErrorIs(t, err, ErrWitnessArityMismatch)
}

func TestInstance_Call_Session(t *testing.T) {
	ins, _ := makeInstance(t)
	stack := exec.NewStack()
	session := update.NewSession()

	err := stack.Activate(&exec.Config{Session: session}, func() error {
		err := ins.Call(stack, "bump", update.Amount(2))
		require.NoError(t, err)

		// The second call reuses the memoized update of the session.
		return ins.Call(stack, "bump", update.Amount(3))
	})
	require.NoError(t, err)

	updates := session.GetUpdates()
	require.Len(t, updates, 1)
	require.Equal(t, int64(5), updates[0].GetBalanceChange())

	// The first call of the session recorded the lazy proof.
	auth, found := updates[0].GetAuthorization()
	require.True(t, found)
	require.Equal(t, update.KindLazyProof, auth.GetKind())
	require.Equal(t, "bump", auth.GetLazy().Method)
	require.Equal(t, "counter", auth.GetLazy().Class.GetName())
	require.Equal(t, []proof.Fieldable{update.Amount(2)}, auth.GetLazy().Args)
}

func TestInstance_Call_Session_FirstWriterWins(t *testing.T) {
	class := NewClass("counter")

	err := class.Register("approve", nil, func(call *Call) error {
		call.Self.SetAuthorization(update.NewProofAuthorization([]byte("own")))
		return nil
	})
	require.NoError(t, err)

	ins := NewInstance(class, fake.NewPublicKey(0))
	stack := exec.NewStack()
	session := update.NewSession()

	err = stack.Activate(&exec.Config{Session: session}, func() error {
		return ins.Call(stack, "approve")
	})
	require.NoError(t, err)

	// The body authorized the update itself, so no lazy proof was recorded.
	auth, found := session.GetUpdates()[0].GetAuthorization()
	require.True(t, found)
	require.Equal(t, update.KindProof, auth.GetKind())
}

func TestInstance_Call_StaleSessions(t *testing.T) {
	ins, _ := makeInstance(t)
	stack := exec.NewStack()

	stale := update.NewSession()

	err := stack.Activate(&exec.Config{Session: stale}, func() error {
		return ins.Call(stack, "bump", update.Amount(1))
	})
	require.NoError(t, err)
	require.Len(t, ins.memo, 1)

	stale.Close()

	fresh := update.NewSession()

	err = stack.Activate(&exec.Config{Session: fresh}, func() error {
		return ins.Call(stack, "bump", update.Amount(1))
	})
	require.NoError(t, err)

	// The memo of the closed session has been discarded.
	require.Len(t, ins.memo, 1)
	_, ok := ins.memo[fresh.GetID()]
	require.True(t, ok)
}

func TestInstance_Call_FailingBody(t *testing.T) {
	class := NewClass("counter")

	require.NoError(t, class.Register("fail", nil, func(*Call) error {
		return fake.GetError()
	}))

	ins := NewInstance(class, fake.NewPublicKey(0))

	err := ins.Call(exec.NewStack(), "fail")
	require.EqualError(t, err, "method 'fail' failed: fake error")
}

func TestClass_Verify(t *testing.T) {
	class := NewClass("counter")
	require.NoError(t, class.Register("bump",
		[]proof.Type{update.AmountType{}}, noopBody))

	err := class.Verify("bump", proof.Statement{}, nil)
	require.ErrorIs(t, err, ErrNotCompiled)

	_, err = class.Compile(fake.NewSuite(), exec.NewStack(), fake.NewPublicKey(0))
	require.NoError(t, err)

	err = class.Verify("missing", proof.Statement{}, nil)
	require.ErrorIs(t, err, ErrMethodNotFound)

	err = class.Verify("bump", proof.Statement{}, []byte("bogus"))
	require.EqualError(t, err,
		"couldn't verify proof of 'bump': proof does not match statement")
}

// -----------------------------------------------------------------------------
// Utility functions

func noopBody(*Call) error {
	return nil
}

// proofArg is an argument type marked as a nested proof.
type proofArg struct{}

func (proofArg) SizeInFields() int { return 1 }

func (proofArg) FromFields([]proof.Field) (proof.Fieldable, error) {
	return nil, nil
}

func (proofArg) ProofArgument() {}

func makeInstance(t *testing.T) (*Instance, *fake.Call) {
	recorder := &fake.Call{}

	class := NewClass("counter")

	err := class.Register("bump", []proof.Type{update.AmountType{}},
		func(call *Call) error {
			recorder.Add(call.Self, call.Args)

			amount := call.Args[0].(update.Amount)
			call.Self.AddBalance(int64(amount))

			return nil
		})
	require.NoError(t, err)

	return NewInstance(class, fake.NewPublicKey(0)), recorder
}
