package token_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/dexforge/cpamm/pkg/sol/runtime"
	"github.com/dexforge/cpamm/pkg/sol/token"
)

type fixture struct {
	rt        *runtime.Runtime
	payer     solana.PublicKey
	authority solana.PublicKey
	mint      solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rt := runtime.New(nil)
	token.Register(rt)

	payer := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	rt.Airdrop(payer, 10_000_000_000)

	require.NoError(t, token.CreateMint(rt, payer, mint, 6, authority, nil))
	return &fixture{rt: rt, payer: payer, authority: authority, mint: mint}
}

func (f *fixture) newHolder(t *testing.T, amount uint64) (solana.PublicKey, solana.PublicKey) {
	t.Helper()

	wallet := solana.NewWallet().PublicKey()
	account, err := token.CreateAssociatedAccount(f.rt, f.payer, wallet, f.mint)
	require.NoError(t, err)
	if amount > 0 {
		mintTo := token.NewMintToInstruction(f.mint, account, f.authority, amount)
		require.NoError(t, f.rt.Execute(mintTo, f.authority))
	}
	return wallet, account
}

func TestCreateMintInitializesState(t *testing.T) {
	f := newFixture(t)

	mint, err := token.DecodeMint(f.rt.Account(f.mint).Data)
	require.NoError(t, err)
	require.True(t, mint.IsInitialized)
	require.Equal(t, uint8(6), mint.Decimals)
	require.NotNil(t, mint.MintAuthority)
	require.Equal(t, f.authority, *mint.MintAuthority)
	require.Nil(t, mint.FreezeAuthority)
	require.Zero(t, mint.Supply)
}

func TestInitializeMintRequiresRentExemption(t *testing.T) {
	rt := runtime.New(nil)
	token.Register(rt)
	mint := solana.NewWallet().PublicKey()
	rt.NewAccount(mint, 1, token.MintSize, solana.TokenProgramID)

	auth := solana.NewWallet().PublicKey()
	err := rt.Execute(token.NewInitializeMintInstruction(mint, 6, auth, nil))
	require.ErrorIs(t, err, token.ErrNotRentExempt)
}

func TestInitializeMintRejectsDoubleInit(t *testing.T) {
	f := newFixture(t)

	err := f.rt.Execute(token.NewInitializeMintInstruction(f.mint, 9, f.authority, nil))
	require.ErrorIs(t, err, token.ErrAlreadyInitialized)
}

func TestMintToAndSupply(t *testing.T) {
	f := newFixture(t)
	_, account := f.newHolder(t, 1_000)

	balance, err := token.Balance(f.rt, account)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), balance)

	supply, err := token.Supply(f.rt, f.mint)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), supply)
}

func TestMintToRejectsWrongAuthority(t *testing.T) {
	f := newFixture(t)
	_, account := f.newHolder(t, 0)

	impostor := solana.NewWallet().PublicKey()
	err := f.rt.Execute(token.NewMintToInstruction(f.mint, account, impostor, 5), impostor)
	require.ErrorIs(t, err, token.ErrOwnerMismatch)
}

func TestMintToRequiresSignature(t *testing.T) {
	f := newFixture(t)
	_, account := f.newHolder(t, 0)

	err := f.rt.Execute(token.NewMintToInstruction(f.mint, account, f.authority, 5))
	require.ErrorIs(t, err, runtime.ErrMissingSignature)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	alice, aliceAcc := f.newHolder(t, 1_000)
	_, bobAcc := f.newHolder(t, 0)

	require.NoError(t, f.rt.Execute(
		token.NewTransferInstruction(aliceAcc, bobAcc, alice, 400), alice))

	aliceBal, err := token.Balance(f.rt, aliceAcc)
	require.NoError(t, err)
	require.Equal(t, uint64(600), aliceBal)
	bobBal, err := token.Balance(f.rt, bobAcc)
	require.NoError(t, err)
	require.Equal(t, uint64(400), bobBal)
}

func TestTransferRejectsWrongOwner(t *testing.T) {
	f := newFixture(t)
	_, aliceAcc := f.newHolder(t, 1_000)
	bob, bobAcc := f.newHolder(t, 0)

	err := f.rt.Execute(token.NewTransferInstruction(aliceAcc, bobAcc, bob, 1), bob)
	require.ErrorIs(t, err, token.ErrOwnerMismatch)
}

func TestTransferExceedingBalance(t *testing.T) {
	f := newFixture(t)
	alice, aliceAcc := f.newHolder(t, 100)
	_, bobAcc := f.newHolder(t, 0)

	err := f.rt.Execute(token.NewTransferInstruction(aliceAcc, bobAcc, alice, 101), alice)
	require.ErrorIs(t, err, token.ErrInsufficientFunds)

	// rollback leaves balances untouched
	balance, err := token.Balance(f.rt, aliceAcc)
	require.NoError(t, err)
	require.Equal(t, uint64(100), balance)
}

func TestTransferRejectsMintMismatch(t *testing.T) {
	f := newFixture(t)
	alice, aliceAcc := f.newHolder(t, 100)

	otherMint := solana.NewWallet().PublicKey()
	require.NoError(t, token.CreateMint(f.rt, f.payer, otherMint, 6, f.authority, nil))
	otherAcc, err := token.CreateAssociatedAccount(f.rt, f.payer, alice, otherMint)
	require.NoError(t, err)

	err = f.rt.Execute(token.NewTransferInstruction(aliceAcc, otherAcc, alice, 1), alice)
	require.ErrorIs(t, err, token.ErrMintMismatch)
}

func TestBurn(t *testing.T) {
	f := newFixture(t)
	alice, aliceAcc := f.newHolder(t, 1_000)

	require.NoError(t, f.rt.Execute(
		token.NewBurnInstruction(aliceAcc, f.mint, alice, 250), alice))

	balance, err := token.Balance(f.rt, aliceAcc)
	require.NoError(t, err)
	require.Equal(t, uint64(750), balance)
	supply, err := token.Supply(f.rt, f.mint)
	require.NoError(t, err)
	require.Equal(t, uint64(750), supply)
}

func TestBurnRejectsNonOwner(t *testing.T) {
	f := newFixture(t)
	_, aliceAcc := f.newHolder(t, 1_000)
	bob, _ := f.newHolder(t, 0)

	err := f.rt.Execute(token.NewBurnInstruction(aliceAcc, f.mint, bob, 1), bob)
	require.ErrorIs(t, err, token.ErrOwnerMismatch)
}

func TestAssociatedAccountIsDeterministic(t *testing.T) {
	f := newFixture(t)
	wallet, account := f.newHolder(t, 0)

	derived, err := token.AssociatedTokenAddress(wallet, f.mint)
	require.NoError(t, err)
	require.Equal(t, account, derived)

	acc, err := token.DecodeAccount(f.rt.Account(account).Data)
	require.NoError(t, err)
	require.Equal(t, wallet, acc.Owner)
	require.Equal(t, f.mint, acc.Mint)
}
