package token

import (
	"time"

	"github.com/shopspring/decimal"
)

// Token is a fungible token definition. Amounts everywhere in this package
// are raw base units scaled by Decimals (USDC-style 6, bond-token-style 18).
// Amount columns are varchar(78), wide enough for a uint256 in decimal form;
// arithmetic happens in application code so no backend ever coerces a value
// beyond int64 range into a float.
type Token struct {
	Symbol    string    `gorm:"column:symbol;primaryKey;type:varchar(16)"`
	Name      string    `gorm:"column:name;type:varchar(64);not null"`
	Decimals  int32     `gorm:"column:decimals;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

type Balance struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Symbol    string          `gorm:"column:symbol;uniqueIndex:idx_balance_holder;not null"`
	Address   string          `gorm:"column:address;uniqueIndex:idx_balance_holder;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:varchar(78);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

type Allowance struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Symbol    string          `gorm:"column:symbol;uniqueIndex:idx_allowance_key;not null"`
	Owner     string          `gorm:"column:owner;uniqueIndex:idx_allowance_key;not null"`
	Spender   string          `gorm:"column:spender;uniqueIndex:idx_allowance_key;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:varchar(78);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

type TransferKind string

const (
	TransferKindTransfer TransferKind = "TRANSFER"
	TransferKindMint     TransferKind = "MINT"
)

// Transfer is the append-only movement record; mints carry an empty
// from_address.
type Transfer struct {
	ID          string          `gorm:"column:id;primaryKey"`
	ReferenceID string          `gorm:"column:reference_id;uniqueIndex;not null"`
	Symbol      string          `gorm:"column:symbol;index;not null"`
	FromAddress string          `gorm:"column:from_address;index"`
	ToAddress   string          `gorm:"column:to_address;index;not null"`
	Kind        TransferKind    `gorm:"column:kind;type:varchar(16);not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:varchar(78);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// MintAuthorization caps how much a minter may still create of a token. The
// campaign's pricing step funds the bond token authorization; claims draw it
// down.
type MintAuthorization struct {
	ID        string          `gorm:"column:id;primaryKey"`
	Symbol    string          `gorm:"column:symbol;uniqueIndex:idx_mint_auth;not null"`
	Minter    string          `gorm:"column:minter;uniqueIndex:idx_mint_auth;not null"`
	Remaining decimal.Decimal `gorm:"column:remaining;type:varchar(78);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
