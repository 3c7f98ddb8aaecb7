package model

// Pool is the registry row of a pool.
type Pool struct {
	Address      string `json:"address"`
	Seed         uint64 `json:"seed"`
	Authority    string `json:"authority,omitempty"`
	MintX        string `json:"mint_x"`
	MintY        string `json:"mint_y"`
	LPMint       string `json:"lp_mint"`
	VaultX       string `json:"vault_x"`
	VaultY       string `json:"vault_y"`
	FeeBps       uint16 `json:"fee_bps"`
	FirstSeenSeq uint64 `json:"first_seen_seq"`
}

// PoolSnapshot is the state of a pool after an instruction executed.
type PoolSnapshot struct {
	Address  string `json:"address"`
	MintX    string `json:"mint_x"`
	MintY    string `json:"mint_y"`
	FeeBps   uint16 `json:"fee_bps"`
	Locked   bool   `json:"locked"`
	ReserveX uint64 `json:"reserve_x"`
	ReserveY uint64 `json:"reserve_y"`
	LPSupply uint64 `json:"lp_supply"`
}
