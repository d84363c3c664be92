package model

import "time"

// Receipt is an externally issued proof-of-purchase token.  Merchant
// tooling registers receipts before customers can accrue stamps with
// them.  At most one live stamp references a given token at a time.
//
// Fields:
//  Token     – unique token string (primary key).
//  CreatedAt – registration timestamp.
type Receipt struct {
	Token     string    // receipts.token
	CreatedAt time.Time // receipts.created_at
}
