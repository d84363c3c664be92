// Package queue defines message payloads exchanged over the message broker.
package queue

// CouponCompletedEvent is published after the accrual that brings a coupon
// to its required stamp count has committed. It contains enough information
// for downstream consumers to log, notify, or trigger reward fulfilment
// without querying the primary database.
type CouponCompletedEvent struct {
    CouponID     uint64 `json:"coupon_id"`
    CouponBookID uint64 `json:"couponbook_id"`
    TemplateID   uint64 `json:"template_id"`
    PlaceID      uint64 `json:"place_id"`
    CustomerID   uint64 `json:"customer_id"`
    Reward       string `json:"reward"`
    StampCount   uint32 `json:"stamp_count"`
    CompletedAt  string `json:"completed_at"`
}
