package token

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/dexforge/cpamm/pkg/sol/runtime"
)

// NewInitializeMintInstruction configures a freshly created mint account.
func NewInitializeMintInstruction(mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) runtime.Instruction {
	data := make([]byte, 0, 1+1+32+1+32)
	data = append(data, tagInitializeMint, decimals)
	data = append(data, mintAuthority[:]...)
	if freezeAuthority != nil {
		data = append(data, 1)
		data = append(data, freezeAuthority[:]...)
	} else {
		data = append(data, 0)
	}
	return runtime.Instruction{
		ProgramID: solana.TokenProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(mint, false, true),
			runtime.Meta(solana.SysVarRentPubkey, false, false),
		},
		Data: data,
	}
}

// NewInitializeAccountInstruction configures a freshly created token account.
func NewInitializeAccountInstruction(account, mint, owner solana.PublicKey) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: solana.TokenProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(account, false, true),
			runtime.Meta(mint, false, false),
			runtime.Meta(owner, false, false),
			runtime.Meta(solana.SysVarRentPubkey, false, false),
		},
		Data: []byte{tagInitializeAccount},
	}
}

// NewTransferInstruction moves amount between token accounts; authority is
// the source account's owner.
func NewTransferInstruction(source, destination, authority solana.PublicKey, amount uint64) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: solana.TokenProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(source, false, true),
			runtime.Meta(destination, false, true),
			runtime.Meta(authority, true, false),
		},
		Data: amountData(tagTransfer, amount),
	}
}

// NewMintToInstruction mints amount to destination; authority is the mint
// authority.
func NewMintToInstruction(mint, destination, authority solana.PublicKey, amount uint64) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: solana.TokenProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(mint, false, true),
			runtime.Meta(destination, false, true),
			runtime.Meta(authority, true, false),
		},
		Data: amountData(tagMintTo, amount),
	}
}

// NewBurnInstruction burns amount from account; authority is the account's
// owner.
func NewBurnInstruction(account, mint, authority solana.PublicKey, amount uint64) runtime.Instruction {
	return runtime.Instruction{
		ProgramID: solana.TokenProgramID,
		Accounts: []runtime.AccountMeta{
			runtime.Meta(account, false, true),
			runtime.Meta(mint, false, true),
			runtime.Meta(authority, true, false),
		},
		Data: amountData(tagBurn, amount),
	}
}

func amountData(tag uint8, amount uint64) []byte {
	data := make([]byte, 9)
	data[0] = tag
	binary.LittleEndian.PutUint64(data[1:], amount)
	return data
}

// AssociatedTokenAddress derives the canonical token account address for
// (wallet, mint).
func AssociatedTokenAddress(wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("deriving associated token address: %w", err)
	}
	return ata, nil
}

// CreateMint allocates and initializes a mint in one transaction pair.
// Setup helper for clients and tests; payer and mint must sign.
func CreateMint(rt *runtime.Runtime, payer, mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) error {
	create := runtime.NewCreateAccountInstruction(payer, mint, runtime.RentExemptBalance(MintSize), MintSize, solana.TokenProgramID)
	if err := rt.Execute(create, payer, mint); err != nil {
		return fmt.Errorf("creating mint account: %w", err)
	}
	if err := rt.Execute(NewInitializeMintInstruction(mint, decimals, mintAuthority, freezeAuthority)); err != nil {
		return fmt.Errorf("initializing mint: %w", err)
	}
	return nil
}

// CreateAccount allocates and initializes a token account at the given key.
func CreateAccount(rt *runtime.Runtime, payer, account, mint, owner solana.PublicKey) error {
	create := runtime.NewCreateAccountInstruction(payer, account, runtime.RentExemptBalance(AccountSize), AccountSize, solana.TokenProgramID)
	if err := rt.Execute(create, payer, account); err != nil {
		return fmt.Errorf("creating token account: %w", err)
	}
	if err := rt.Execute(NewInitializeAccountInstruction(account, mint, owner)); err != nil {
		return fmt.Errorf("initializing token account: %w", err)
	}
	return nil
}

// CreateAssociatedAccount allocates and initializes the associated token
// account for (wallet, mint), the way the associated-token program would,
// and returns its address.
func CreateAssociatedAccount(rt *runtime.Runtime, payer, wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, err := AssociatedTokenAddress(wallet, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	rt.NewAccount(ata, runtime.RentExemptBalance(AccountSize), AccountSize, solana.TokenProgramID)
	if err := rt.Execute(NewInitializeAccountInstruction(ata, mint, wallet)); err != nil {
		return solana.PublicKey{}, fmt.Errorf("initializing associated account: %w", err)
	}
	return ata, nil
}

// Balance reads the amount field of a token account.
func Balance(rt *runtime.Runtime, account solana.PublicKey) (uint64, error) {
	acc, err := DecodeAccount(rt.Account(account).Data)
	if err != nil {
		return 0, err
	}
	return acc.Amount, nil
}

// Supply reads the supply field of a mint.
func Supply(rt *runtime.Runtime, mint solana.PublicKey) (uint64, error) {
	m, err := DecodeMint(rt.Account(mint).Data)
	if err != nil {
		return 0, err
	}
	return m.Supply, nil
}
