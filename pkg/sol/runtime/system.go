package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// System program instruction tags, matching the on-chain bincode layout
// (little-endian u32 discriminant).
const (
	sysCreateAccount uint32 = 0
	sysTransfer      uint32 = 2
)

const (
	// accountStorageOverhead is the per-account byte overhead charged by rent.
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	rentExemptionYears     = 2
)

// RentExemptBalance returns the minimum lamports an account of the given
// data size needs to be rent exempt.
func RentExemptBalance(dataLen int) uint64 {
	return uint64(accountStorageOverhead+dataLen) * lamportsPerByteYear * rentExemptionYears
}

// IsRentExempt reports whether the account meets its rent-exempt minimum.
func IsRentExempt(acc *Account) bool {
	return acc.Lamports >= RentExemptBalance(len(acc.Data))
}

// NewCreateAccountInstruction builds a system-program CreateAccount: funder
// pays, the new account signs, gets space bytes and the given owner.
func NewCreateAccountInstruction(funder, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) Instruction {
	data := make([]byte, 4+8+8+32)
	binary.LittleEndian.PutUint32(data[0:4], sysCreateAccount)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	binary.LittleEndian.PutUint64(data[12:20], space)
	copy(data[20:52], owner[:])
	return Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []AccountMeta{
			Meta(funder, true, true),
			Meta(newAccount, true, true),
		},
		Data: data,
	}
}

// NewTransferInstruction builds a system-program lamport transfer.
func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) Instruction {
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data[0:4], sysTransfer)
	binary.LittleEndian.PutUint64(data[4:12], lamports)
	return Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []AccountMeta{
			Meta(from, true, true),
			Meta(to, false, true),
		},
		Data: data,
	}
}

type systemProgram struct{}

func (systemProgram) Execute(ctx *Ctx, accounts []AccountInfo, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidInstruction
	}
	switch binary.LittleEndian.Uint32(data[0:4]) {
	case sysCreateAccount:
		return sysProcessCreateAccount(accounts, data)
	case sysTransfer:
		return sysProcessTransfer(accounts, data)
	default:
		return fmt.Errorf("%w: system tag %d", ErrInvalidInstruction, binary.LittleEndian.Uint32(data[0:4]))
	}
}

func sysProcessCreateAccount(accounts []AccountInfo, data []byte) error {
	if len(accounts) < 2 || len(data) < 52 {
		return ErrInvalidInstruction
	}
	funder, newAcc := accounts[0], accounts[1]
	lamports := binary.LittleEndian.Uint64(data[4:12])
	space := binary.LittleEndian.Uint64(data[12:20])
	var owner solana.PublicKey
	copy(owner[:], data[20:52])

	if !funder.IsSigner || !newAcc.IsSigner {
		return ErrMissingSignature
	}
	if newAcc.Account.Lamports != 0 || len(newAcc.Account.Data) != 0 ||
		!newAcc.Account.Owner.Equals(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, newAcc.Key)
	}
	if funder.Account.Lamports < lamports {
		return fmt.Errorf("%w: funder %s", ErrInsufficientFunds, funder.Key)
	}

	funder.Account.Lamports -= lamports
	newAcc.Account.Lamports = lamports
	newAcc.Account.Data = make([]byte, space)
	newAcc.Account.Owner = owner
	return nil
}

func sysProcessTransfer(accounts []AccountInfo, data []byte) error {
	if len(accounts) < 2 || len(data) < 12 {
		return ErrInvalidInstruction
	}
	from, to := accounts[0], accounts[1]
	lamports := binary.LittleEndian.Uint64(data[4:12])

	if !from.IsSigner {
		return ErrMissingSignature
	}
	if len(from.Account.Data) != 0 {
		return fmt.Errorf("%w: %s", ErrAccountCarriesData, from.Key)
	}
	if from.Account.Lamports < lamports {
		return fmt.Errorf("%w: %s", ErrInsufficientFunds, from.Key)
	}
	from.Account.Lamports -= lamports
	to.Account.Lamports += lamports
	return nil
}
