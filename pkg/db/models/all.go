package models

// All lists every persisted model, in dependency order, for sqlite auto-migration.
func All() []any {
	return []any{
		&Admin{},
		&Customer{},
		&Vendor{},
		&Food{},
		&CartItem{},
		&DeliveryUser{},
		&Offer{},
		&Transaction{},
		&Order{},
		&OrderItem{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
