// This file contains the persistent store of the verification keys produced
// by the compilation pipeline.
//

package contract

import (
	"encoding/json"

	"go.dedis.ch/prova/core/store/kv"
	"go.dedis.ch/prova/proof"
	"golang.org/x/xerrors"
)

var keyBucket = []byte("verification-keys")

// KeyStore persists the verification keys of compiled classes so that
// deployments do not need to recompile.
type KeyStore struct {
	db kv.DB
}

// NewKeyStore returns a store on top of the database.
func NewKeyStore(db kv.DB) KeyStore {
	return KeyStore{db: db}
}

type keyJSON struct {
	Data []byte
	Hash []byte
}

// Save stores the verification key of the class under its name, replacing a
// previous one.
func (s KeyStore) Save(class string, key proof.VerificationKey) error {
	value, err := json.Marshal(keyJSON{Data: key.Data, Hash: key.Hash.Bytes()})
	if err != nil {
		return xerrors.Errorf("couldn't marshal key: %v", err)
	}

	err = s.db.Update(keyBucket, func(bucket kv.Bucket) error {
		return bucket.Set([]byte(class), value)
	})
	if err != nil {
		return xerrors.Errorf("couldn't write key: %v", err)
	}

	return nil
}

// Load returns the verification key stored for the class, or an error when
// the class has never been compiled.
func (s KeyStore) Load(class string) (proof.VerificationKey, error) {
	var value []byte

	err := s.db.View(keyBucket, func(bucket kv.Bucket) error {
		value = bucket.Get([]byte(class))
		if value == nil {
			return xerrors.Errorf("no key for class '%s'", class)
		}

		return nil
	})
	if err != nil {
		return proof.VerificationKey{}, xerrors.Errorf("couldn't read key: %v", err)
	}

	m := keyJSON{}

	err = json.Unmarshal(value, &m)
	if err != nil {
		return proof.VerificationKey{}, xerrors.Errorf("couldn't unmarshal key: %v", err)
	}

	return proof.VerificationKey{
		Data: m.Data,
		Hash: proof.NewDigestFromBytes(m.Hash),
	}, nil
}
