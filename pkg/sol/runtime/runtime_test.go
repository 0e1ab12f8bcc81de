package runtime

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	rt := New(nil)
	payer := solana.NewWallet().PublicKey()
	fresh := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	rt.Airdrop(payer, 10_000_000)

	lamports := RentExemptBalance(100)
	err := rt.Execute(NewCreateAccountInstruction(payer, fresh, lamports, 100, owner), payer, fresh)
	require.NoError(t, err)

	acc := rt.Account(fresh)
	assert.Equal(t, lamports, acc.Lamports)
	assert.Len(t, acc.Data, 100)
	assert.Equal(t, owner, acc.Owner)
	assert.True(t, IsRentExempt(acc))
	assert.Equal(t, 10_000_000-lamports, rt.Account(payer).Lamports)
}

func TestCreateAccountRequiresBothSignatures(t *testing.T) {
	rt := New(nil)
	payer := solana.NewWallet().PublicKey()
	fresh := solana.NewWallet().PublicKey()
	rt.Airdrop(payer, 10_000_000)

	ins := NewCreateAccountInstruction(payer, fresh, 1000, 0, solana.SystemProgramID)
	err := rt.Execute(ins, payer)
	require.ErrorIs(t, err, ErrMissingSignature)
}

func TestCreateAccountInUse(t *testing.T) {
	rt := New(nil)
	payer := solana.NewWallet().PublicKey()
	taken := solana.NewWallet().PublicKey()
	rt.Airdrop(payer, 10_000_000)
	rt.Airdrop(taken, 1)

	err := rt.Execute(NewCreateAccountInstruction(payer, taken, 1000, 0, solana.SystemProgramID), payer, taken)
	require.ErrorIs(t, err, ErrAccountInUse)
}

func TestTransfer(t *testing.T) {
	rt := New(nil)
	from := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	rt.Airdrop(from, 500)

	require.NoError(t, rt.Execute(NewTransferInstruction(from, to, 200), from))
	assert.Equal(t, uint64(300), rt.Account(from).Lamports)
	assert.Equal(t, uint64(200), rt.Account(to).Lamports)

	err := rt.Execute(NewTransferInstruction(from, to, 400), from)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	// rolled back
	assert.Equal(t, uint64(300), rt.Account(from).Lamports)
}

// forwarder transfers lamports out of its PDA-derived treasury. With seeds it
// must succeed, without them the system program must reject the move.
type forwarder struct {
	useSeeds bool
}

func (f forwarder) Execute(ctx *Ctx, accounts []AccountInfo, data []byte) error {
	treasury, dest := accounts[0], accounts[1]
	ins := NewTransferInstruction(treasury.Key, dest.Key, 100)
	if f.useSeeds {
		seed := [][]byte{[]byte("treasury"), data}
		return ctx.InvokeSigned(ins, seed)
	}
	return ctx.Invoke(ins)
}

func TestInvokeSignedProvesPdaSignature(t *testing.T) {
	programID := solana.NewWallet().PublicKey()
	dest := solana.NewWallet().PublicKey()

	pda, bump, err := solana.FindProgramAddress([][]byte{[]byte("treasury")}, programID)
	require.NoError(t, err)

	run := func(useSeeds bool) error {
		rt := New(nil)
		rt.RegisterProgram(programID, forwarder{useSeeds: useSeeds})
		rt.Airdrop(pda, 1000)
		return rt.Execute(Instruction{
			ProgramID: programID,
			Accounts:  []AccountMeta{Meta(pda, false, true), Meta(dest, false, true)},
			Data:      []byte{bump},
		})
	}

	require.ErrorIs(t, run(false), ErrMissingSignature)
	require.NoError(t, run(true))
}
