// Package runtime is a minimal in-process account-model host: accounts with
// lamports/data/owner, registered programs dispatched by instruction, CPI
// with program-derived signing, and transaction-level rollback. It models
// exactly the execution rules the pool and plugin programs depend on.
package runtime

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Account is the on-chain account record.
type Account struct {
	Lamports   uint64
	Data       []byte
	Owner      solana.PublicKey
	Executable bool
}

func (a *Account) clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{Lamports: a.Lamports, Data: data, Owner: a.Owner, Executable: a.Executable}
}

// AccountMeta names an account an instruction touches.
type AccountMeta struct {
	PublicKey  solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// Meta is a shorthand constructor.
func Meta(key solana.PublicKey, signer, writable bool) AccountMeta {
	return AccountMeta{PublicKey: key, IsSigner: signer, IsWritable: writable}
}

// Instruction is a program invocation request.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// AccountInfo is the resolved view a program receives for each account.
type AccountInfo struct {
	Key        solana.PublicKey
	Account    *Account
	IsSigner   bool
	IsWritable bool
}

// Program is the entry point a registered program exposes.
type Program interface {
	Execute(ctx *Ctx, accounts []AccountInfo, data []byte) error
}

// Runtime holds the account space and the program registry.
type Runtime struct {
	accounts map[solana.PublicKey]*Account
	programs map[solana.PublicKey]Program
	log      *zap.Logger
}

// New returns a runtime with the system program installed.
func New(log *zap.Logger) *Runtime {
	if log == nil {
		log = zap.NewNop()
	}
	rt := &Runtime{
		accounts: make(map[solana.PublicKey]*Account),
		programs: make(map[solana.PublicKey]Program),
		log:      log,
	}
	rt.programs[solana.SystemProgramID] = systemProgram{}
	rt.accounts[solana.SysVarRentPubkey] = &Account{Owner: solana.SysVarRentPubkey}
	return rt
}

// RegisterProgram installs a program and creates its executable account.
func (rt *Runtime) RegisterProgram(id solana.PublicKey, p Program) {
	rt.programs[id] = p
	rt.accounts[id] = &Account{
		Lamports:   1,
		Owner:      solana.BPFLoaderProgramID,
		Executable: true,
	}
}

// Account returns the account at key, or an empty system-owned account.
// Unknown keys resolve to fresh accounts, as on chain.
func (rt *Runtime) Account(key solana.PublicKey) *Account {
	if acc, ok := rt.accounts[key]; ok {
		return acc
	}
	acc := &Account{Owner: solana.SystemProgramID}
	rt.accounts[key] = acc
	return acc
}

// Airdrop credits lamports to key.
func (rt *Runtime) Airdrop(key solana.PublicKey, lamports uint64) {
	rt.Account(key).Lamports += lamports
}

// NewAccount installs a funded, allocated account owned by owner. Setup
// helper standing in for flows (like the associated-token program) that
// allocate program-owned accounts out of band.
func (rt *Runtime) NewAccount(key solana.PublicKey, lamports uint64, space int, owner solana.PublicKey) *Account {
	acc := &Account{Lamports: lamports, Data: make([]byte, space), Owner: owner}
	rt.accounts[key] = acc
	return acc
}

func (rt *Runtime) snapshot() map[solana.PublicKey]*Account {
	cp := make(map[solana.PublicKey]*Account, len(rt.accounts))
	for k, v := range rt.accounts {
		cp[k] = v.clone()
	}
	return cp
}

// Execute runs one top-level instruction transactionally. The signers list
// names the keys whose signatures accompany the transaction.
func (rt *Runtime) Execute(ins Instruction, signers ...solana.PublicKey) error {
	snap := rt.snapshot()
	signerSet := make(map[solana.PublicKey]bool, len(signers))
	for _, s := range signers {
		signerSet[s] = true
	}
	if err := rt.dispatch(ins, signerSet); err != nil {
		rt.accounts = snap
		rt.log.Debug("instruction rolled back",
			zap.Stringer("program", ins.ProgramID), zap.Error(err))
		return err
	}
	return nil
}

func (rt *Runtime) dispatch(ins Instruction, signers map[solana.PublicKey]bool) error {
	program, ok := rt.programs[ins.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrProgramNotFound, ins.ProgramID)
	}

	infos := make([]AccountInfo, len(ins.Accounts))
	for i, meta := range ins.Accounts {
		if meta.IsSigner && !signers[meta.PublicKey] {
			return fmt.Errorf("%w: %s", ErrMissingSignature, meta.PublicKey)
		}
		infos[i] = AccountInfo{
			Key:        meta.PublicKey,
			Account:    rt.Account(meta.PublicKey),
			IsSigner:   meta.IsSigner,
			IsWritable: meta.IsWritable,
		}
	}

	ctx := &Ctx{rt: rt, programID: ins.ProgramID, signers: signers}
	return program.Execute(ctx, infos, ins.Data)
}

// Ctx is the execution context handed to a program.
type Ctx struct {
	rt        *Runtime
	programID solana.PublicKey
	signers   map[solana.PublicKey]bool
}

// ProgramID returns the executing program's ID.
func (c *Ctx) ProgramID() solana.PublicKey { return c.programID }

// Invoke performs a CPI. Signer privileges of the current frame carry over.
func (c *Ctx) Invoke(ins Instruction) error {
	return c.rt.dispatch(ins, c.signers)
}

// InvokeSigned performs a CPI extending the signer set with program-derived
// addresses proven by the given seed groups.
func (c *Ctx) InvokeSigned(ins Instruction, seedGroups ...[][]byte) error {
	signers := make(map[solana.PublicKey]bool, len(c.signers)+len(seedGroups))
	for k, v := range c.signers {
		signers[k] = v
	}
	for _, seeds := range seedGroups {
		pda, err := solana.CreateProgramAddress(seeds, c.programID)
		if err != nil {
			return fmt.Errorf("deriving signer pda: %w", err)
		}
		signers[pda] = true
	}
	return c.rt.dispatch(ins, signers)
}
