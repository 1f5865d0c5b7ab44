package model

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Wallet{},
		&Product{},
		&InventoryAdjustment{},
		&Cart{},
		&CartItem{},
		&Address{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&CouponRedemption{},
		&PaymentEvent{},
		&AuditLog{},
	}
}
