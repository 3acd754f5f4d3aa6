package protocol

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrInsufficientBalance is returned when an execution would overdraw the
// account's vault.
var ErrInsufficientBalance = errors.New("miden: insufficient account balance")

// defaultExpirationDelta is how many blocks past the reference block a
// transaction stays admissible.
const defaultExpirationDelta = 256

// TransactionRequest describes a transaction to execute: the notes to
// produce and an optional expiration override.
type TransactionRequest struct {
	OutputNotes     []Note
	ExpirationDelta uint32 // blocks past the reference block; zero selects the default
}

// Client is a local rollup client: the account's state store plus the RNG
// used for note serial numbers. It is NOT safe for concurrent use; callers
// serialize access (the transaction signer wraps it in a mutex).
type Client struct {
	accountID       AccountID
	blockNum        uint32
	blockCommitment Word
	stateCommitment Word
	vault           map[AccountID]uint64
	prover          LocalProver
}

// NewClient creates a local client for the given account synced at the
// given reference block.
func NewClient(accountID AccountID, blockNum uint32, blockCommitment Word) *Client {
	return &Client{
		accountID:       accountID,
		blockNum:        blockNum,
		blockCommitment: blockCommitment,
		stateCommitment: hashWord("miden.account.state", accountID.Bytes()),
		vault:           make(map[AccountID]uint64),
	}
}

// AccountID returns the account this client operates.
func (c *Client) AccountID() AccountID { return c.accountID }

// Fund credits the account's local vault. Test and demo setup helper
// standing in for state sync against a node.
func (c *Client) Fund(faucet AccountID, amount uint64) {
	c.vault[faucet] += amount
}

// Balance returns the locally tracked balance for a faucet.
func (c *Client) Balance(faucet AccountID) uint64 {
	return c.vault[faucet]
}

// RandomSerialNumber draws a fresh note serial number from the client RNG.
func (c *Client) RandomSerialNumber() (Word, error) {
	var raw [32]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return Word{}, fmt.Errorf("miden: serial number entropy: %w", err)
	}
	return WordFromBytes(raw), nil
}

// Prover returns a detached prover handle. The handle is a value type with
// no reference back to the client, so proving can run after the caller has
// released whatever lock guards the client.
func (c *Client) Prover() LocalProver {
	if c.prover.securityLevel == 0 {
		c.prover = NewLocalProver(DefaultSecurityLevel)
	}
	return c.prover
}

// ExecuteTransaction runs the request against the account state: checks
// vault balances cover the output notes, debits them, and advances the
// account commitment. The returned execution result retains full output
// notes regardless of visibility.
func (c *Client) ExecuteTransaction(req TransactionRequest) (ExecutedTransaction, error) {
	if len(req.OutputNotes) == 0 {
		return ExecutedTransaction{}, ErrNothingToProve
	}

	// Aggregate required amounts per faucet before touching state.
	required := make(map[AccountID]uint64)
	for _, note := range req.OutputNotes {
		for _, asset := range note.Assets.Fungible() {
			required[asset.Faucet] += asset.Amount
		}
	}
	for faucet, amount := range required {
		if c.vault[faucet] < amount {
			return ExecutedTransaction{}, fmt.Errorf("%w: faucet %s needs %d, has %d",
				ErrInsufficientBalance, faucet, amount, c.vault[faucet])
		}
	}
	for faucet, amount := range required {
		c.vault[faucet] -= amount
	}

	delta := req.ExpirationDelta
	if delta == 0 {
		delta = defaultExpirationDelta
	}

	initial := c.stateCommitment
	outputs := make([]OutputNote, 0, len(req.OutputNotes))
	body := &writer{}
	body.word(initial)
	for _, note := range req.OutputNotes {
		outputs = append(outputs, FullOutputNote(note))
		body.word(Word(note.ID()))
	}
	c.stateCommitment = hashWord("miden.account.state", body.buf)

	return ExecutedTransaction{
		AccountID:              c.accountID,
		InitialStateCommitment: initial,
		FinalStateCommitment:   c.stateCommitment,
		ExpirationBlock:        c.blockNum + delta,
		OutputNotes:            outputs,
		Inputs: TransactionInputs{
			AccountID:       c.accountID,
			BlockNum:        c.blockNum,
			BlockCommitment: c.blockCommitment,
		},
	}, nil
}
