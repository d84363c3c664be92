package model

import "time"

// CouponTemplate is a stamp-card campaign published by a merchant.
// Customers claim coupons against a template; the template carries the
// campaign-wide rules (expiry, first-come capacity, on/off flag).  This
// struct corresponds to a row in the `coupon_templates` table.
//
// Fields:
//  ID            – primary key identifier.
//  PlaceID       – campaign metadata (place) this template belongs to.
//  ValidUntil    – expiry of the campaign; nil means it never expires.
//  FirstNPersons – maximum number of coupons the template may ever issue;
//                  0 means unlimited.
//  ImageURL      – opaque URL of the coupon artwork.
//  IsOn          – whether the campaign is currently published.
//  CreatedAt     – timestamp when the template was created.
type CouponTemplate struct {
	ID            uint64     // coupon_templates.id
	PlaceID       uint64     // coupon_templates.place_id
	ValidUntil    *time.Time // coupon_templates.valid_until (nullable)
	FirstNPersons uint32     // coupon_templates.first_n_persons
	ImageURL      string     // coupon_templates.image_url
	IsOn          bool       // coupon_templates.is_on
	CreatedAt     time.Time  // coupon_templates.created_at
}

// RewardInfo describes the reward rule of one template.  Exactly one
// row exists per template; a template without reward info cannot be
// stamped and read paths must tolerate its absence.
//
// Fields:
//  ID         – primary key identifier.
//  TemplateID – template this reward rule belongs to (unique).
//  Amount     – number of stamps required to complete a coupon (>= 1).
//  Reward     – human readable description of the benefit.
type RewardInfo struct {
	ID         uint64 // reward_infos.id
	TemplateID uint64 // reward_infos.template_id
	Amount     uint32 // reward_infos.amount
	Reward     string // reward_infos.reward
}
