package protocol

import (
	"fmt"
)

// TransactionID is the canonical identifier of a proven transaction.
type TransactionID Word

// Hex renders the id as lowercase hex without a 0x prefix, matching the
// node's wire form.
func (id TransactionID) Hex() string {
	return fmt.Sprintf("%x", Word(id).Bytes())
}

// TransactionInputs is the state witness bundle the node needs to admit a
// proven transaction: the account's pre-state commitment anchored at a
// reference block.
type TransactionInputs struct {
	AccountID       AccountID
	BlockNum        uint32
	BlockCommitment Word
}

// ToBytes serializes the transaction inputs.
func (ti TransactionInputs) ToBytes() []byte {
	w := &writer{}
	ti.AccountID.write(w)
	w.u32(ti.BlockNum)
	w.word(ti.BlockCommitment)
	return w.buf
}

// TransactionInputsFromBytes deserializes transaction inputs.
func TransactionInputsFromBytes(b []byte) (TransactionInputs, error) {
	r := &reader{buf: b}
	ti := TransactionInputs{
		AccountID:       readAccountID(r),
		BlockNum:        r.u32(),
		BlockCommitment: r.word(),
	}
	if err := r.finish(); err != nil {
		return TransactionInputs{}, err
	}
	return ti, nil
}

// ExecutedTransaction is the VM execution result before proving. Output
// notes are retained in full regardless of visibility; the prover shrinks
// private ones.
type ExecutedTransaction struct {
	AccountID              AccountID
	InitialStateCommitment Word
	FinalStateCommitment   Word
	ExpirationBlock        uint32
	OutputNotes            []OutputNote
	Inputs                 TransactionInputs
}

// ProvenTransaction is an executed transaction together with the proof of
// its correct execution.
type ProvenTransaction struct {
	AccountID              AccountID
	InitialStateCommitment Word
	FinalStateCommitment   Word
	ExpirationBlock        uint32
	OutputNotes            []OutputNote
	Proof                  []byte
}

// ID derives the canonical transaction id: a commitment over the serialized
// transaction body (the proof is not part of the id).
func (tx ProvenTransaction) ID() TransactionID {
	return TransactionID(hashWord("miden.tx.id", tx.bodyBytes()))
}

// ToBytes serializes the proven transaction.
func (tx ProvenTransaction) ToBytes() []byte {
	w := &writer{}
	tx.writeBody(w)
	w.lenBytes(tx.Proof)
	return w.buf
}

// ProvenTransactionFromBytes deserializes a proven transaction, rejecting
// truncated or trailing input.
func ProvenTransactionFromBytes(b []byte) (ProvenTransaction, error) {
	r := &reader{buf: b}
	tx := ProvenTransaction{
		AccountID:              readAccountID(r),
		InitialStateCommitment: r.word(),
		FinalStateCommitment:   r.word(),
		ExpirationBlock:        r.u32(),
	}
	n := int(r.u16())
	tx.OutputNotes = make([]OutputNote, 0, n)
	for i := 0; i < n; i++ {
		tx.OutputNotes = append(tx.OutputNotes, readOutputNote(r))
	}
	tx.Proof = r.lenBytes()
	if err := r.finish(); err != nil {
		return ProvenTransaction{}, err
	}
	return tx, nil
}

func (tx ProvenTransaction) writeBody(w *writer) {
	tx.AccountID.write(w)
	w.word(tx.InitialStateCommitment)
	w.word(tx.FinalStateCommitment)
	w.u32(tx.ExpirationBlock)
	w.u16(uint16(len(tx.OutputNotes)))
	for _, note := range tx.OutputNotes {
		note.write(w)
	}
}

func (tx ProvenTransaction) bodyBytes() []byte {
	w := &writer{}
	tx.writeBody(w)
	return w.buf
}
