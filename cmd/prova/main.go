// Package main implements the prova command line tool. It manages the
// contract keys, compiles the example contract and assembles deployment and
// call transactions ready to be submitted.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/prova"
	"go.dedis.ch/prova/contracts/counter"
	"go.dedis.ch/prova/core/contract"
	"go.dedis.ch/prova/core/exec"
	"go.dedis.ch/prova/core/store/kv"
	"go.dedis.ch/prova/core/txn"
	"go.dedis.ch/prova/core/update"
	"go.dedis.ch/prova/crypto/loader"
	"go.dedis.ch/prova/crypto/schnorr"
	"go.dedis.ch/prova/proof"
	"go.dedis.ch/prova/proof/gnark"
	"go.dedis.ch/prova/serde/json"
	"golang.org/x/xerrors"

	_ "go.dedis.ch/prova/core/txn/json"
	_ "go.dedis.ch/prova/core/update/json"
)

func main() {
	err := run(os.Args, os.Stdout)
	if err != nil {
		prova.Logger.Fatal().Err(err).Msg("command failed")
	}
}

func run(args []string, out io.Writer) error {
	app := &urfave.App{
		Name:   "prova",
		Usage:  "compile, deploy and call provable contracts",
		Writer: out,
		Commands: []*urfave.Command{
			{
				Name:  "key",
				Usage: "generate or show the key pair",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  "path",
						Usage: "path of the private key file",
						Value: "private.key",
					},
				},
				Action: func(c *urfave.Context) error {
					return keyAction(c, out)
				},
			},
			{
				Name:  "compile",
				Usage: "compile the counter contract and store its verification key",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  "db",
						Usage: "path of the artifact database",
						Value: "prova.db",
					},
				},
				Action: func(c *urfave.Context) error {
					return compileAction(c, out)
				},
			},
			{
				Name:  "deploy",
				Usage: "assemble a deployment transaction of the counter contract",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  "key",
						Usage: "path of the contract private key",
						Value: "private.key",
					},
					&urfave.StringFlag{
						Name:  "db",
						Usage: "path of the artifact database",
						Value: "prova.db",
					},
					&urfave.Uint64Flag{
						Name:  "balance",
						Usage: "initial balance of the contract account",
					},
					&urfave.StringFlag{
						Name:  "fee-payer-key",
						Usage: "path of the fee payer private key",
					},
					&urfave.Uint64Flag{
						Name:  "fee",
						Usage: "fee of the transaction",
					},
					&urfave.Uint64Flag{
						Name:  "nonce",
						Usage: "nonce of the fee payer",
					},
				},
				Action: func(c *urfave.Context) error {
					return deployAction(c, out)
				},
			},
			{
				Name:  "call",
				Usage: "assemble a proved call of the bump method",
				Flags: []urfave.Flag{
					&urfave.StringFlag{
						Name:  "key",
						Usage: "path of the contract private key",
						Value: "private.key",
					},
					&urfave.Uint64Flag{
						Name:  "amount",
						Usage: "amount passed to the bump method",
						Value: 1,
					},
					&urfave.BoolFlag{
						Name:  "unproved",
						Usage: "authorize with a signature instead of a proof",
					},
				},
				Action: func(c *urfave.Context) error {
					return callAction(c, out)
				},
			},
		},
	}

	return app.Run(args)
}

func keyAction(c *urfave.Context, out io.Writer) error {
	signer, err := loadSigner(c.String("path"))
	if err != nil {
		return xerrors.Errorf("couldn't load key: %v", err)
	}

	pubkey, ok := signer.GetPublicKey().(schnorr.PublicKey)
	if !ok {
		return xerrors.Errorf("invalid public key of type '%T'", signer.GetPublicKey())
	}

	fmt.Fprintln(out, pubkey.Address())

	return nil
}

func compileAction(c *urfave.Context, out io.Writer) error {
	class, err := counter.NewClass()
	if err != nil {
		return xerrors.Errorf("couldn't create class: %v", err)
	}

	artifact, err := class.Compile(gnark.NewSuite(), exec.NewStack(), nil)
	if err != nil {
		return xerrors.Errorf("couldn't compile: %v", err)
	}

	db, err := kv.New(c.String("db"))
	if err != nil {
		return xerrors.Errorf("couldn't open db: %v", err)
	}

	defer db.Close()

	err = contract.NewKeyStore(db).Save(class.GetName(), artifact.Key)
	if err != nil {
		return xerrors.Errorf("couldn't store key: %v", err)
	}

	fmt.Fprintln(out, artifact.Key.Hash.String())

	return nil
}

func deployAction(c *urfave.Context, out io.Writer) error {
	signer, err := loadSigner(c.String("key"))
	if err != nil {
		return xerrors.Errorf("couldn't load key: %v", err)
	}

	db, err := kv.New(c.String("db"))
	if err != nil {
		return xerrors.Errorf("couldn't open db: %v", err)
	}

	defer db.Close()

	key, err := contract.NewKeyStore(db).Load(counter.ClassName)
	if err != nil {
		return xerrors.Errorf("couldn't load verification key: %v", err)
	}

	args := txn.DeployArguments{
		Key:             signer,
		VerificationKey: key,
		Fee:             c.Uint64("fee"),
	}

	if c.IsSet("balance") {
		balance := c.Uint64("balance")
		args.InitialBalance = &balance
	}

	if c.IsSet("fee-payer-key") {
		feePayer, err := loadSigner(c.String("fee-payer-key"))
		if err != nil {
			return xerrors.Errorf("couldn't load fee payer key: %v", err)
		}

		args.FeePayerKey = feePayer
		args.SignFeePayer = true

		nonce := c.Uint64("nonce")
		args.Nonce = &nonce
	}

	assembler := txn.NewAssembler(gnark.NewSuite())

	tx, err := assembler.Deploy(args)
	if err != nil {
		return xerrors.Errorf("couldn't assemble deployment: %v", err)
	}

	return printTransaction(out, tx)
}

func callAction(c *urfave.Context, out io.Writer) error {
	signer, err := loadSigner(c.String("key"))
	if err != nil {
		return xerrors.Errorf("couldn't load key: %v", err)
	}

	class, err := counter.NewClass()
	if err != nil {
		return xerrors.Errorf("couldn't create class: %v", err)
	}

	suite := gnark.NewSuite()
	stack := exec.NewStack()
	assembler := txn.NewAssembler(suite)
	instance := contract.NewInstance(class, signer.GetPublicKey())
	args := []proof.Fieldable{update.Amount(c.Uint64("amount"))}

	if c.Bool("unproved") {
		tx, err := assembler.CallUnproved(stack, instance, "bump", args, signer)
		if err != nil {
			return xerrors.Errorf("couldn't assemble call: %v", err)
		}

		return printTransaction(out, tx)
	}

	_, err = class.Compile(suite, stack, signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("couldn't compile: %v", err)
	}

	tx, err := assembler.Call(context.Background(), stack, instance, "bump", args, true)
	if err != nil {
		return xerrors.Errorf("couldn't assemble call: %v", err)
	}

	return printTransaction(out, tx)
}

// keyGenerator generates a fresh private key when the file does not exist.
//
// - implements loader.Generator
type keyGenerator struct{}

// Generate implements loader.Generator. It returns the marshaled private key
// of a fresh signer.
func (keyGenerator) Generate() ([]byte, error) {
	signer := schnorr.NewSigner()

	return signer.GetPrivateKey()
}

func loadSigner(path string) (schnorr.Signer, error) {
	data, err := loader.NewFileLoader(path).LoadOrCreate(keyGenerator{})
	if err != nil {
		return schnorr.Signer{}, xerrors.Errorf("loader failed: %v", err)
	}

	signer, err := schnorr.NewSignerFromBytes(data)
	if err != nil {
		return schnorr.Signer{}, xerrors.Errorf("couldn't restore signer: %v", err)
	}

	return signer, nil
}

func printTransaction(out io.Writer, tx *txn.Transaction) error {
	data, err := tx.Serialize(json.NewContext())
	if err != nil {
		return xerrors.Errorf("couldn't serialize transaction: %v", err)
	}

	fmt.Fprintln(out, string(data))

	return nil
}
